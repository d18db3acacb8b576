// Package events publishes booking lifecycle events to Kafka. Publication is
// best-effort; a broker outage never fails the originating operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"voltgrid/internal/models"
)

// Event types.
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingCompleted = "booking.completed"
)

// BookingEvent is the wire payload, keyed by station id so per-station order
// is preserved within a partition.
type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	StationID string    `json:"station_id"`
	UserID    int64     `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	At        time.Time `json:"at"`
}

// Producer writes booking events.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer builds a kafka-backed producer.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Producer{writer: writer, logger: logger}
}

// PublishBooking emits one lifecycle event for the booking.
func (p *Producer) PublishBooking(ctx context.Context, eventType string, booking *models.Booking) {
	if p == nil || p.writer == nil {
		return
	}
	evt := BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		StationID: booking.StationID,
		UserID:    booking.UserID,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		At:        time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn("failed to encode booking event", zap.Error(err))
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(booking.StationID),
		Value: payload,
	}); err != nil {
		p.logger.Warn("failed to publish booking event",
			zap.String("type", eventType),
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
	}
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
