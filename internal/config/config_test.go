package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesEnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("RESERVATIONS_POSTGRES_DSN", "postgres://localhost/voltgrid")
	t.Setenv("RESERVATIONS_JWT_SECRET", "secret")
	t.Setenv("RESERVATIONS_HTTP_PORT", "9090")
	t.Setenv("RESERVATIONS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers())
	assert.Equal(t, "booking-events", cfg.Kafka.Topic)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
}

func TestLoadRequiresDSNAndSecret(t *testing.T) {
	t.Setenv("RESERVATIONS_POSTGRES_DSN", "")
	t.Setenv("RESERVATIONS_JWT_SECRET", "secret")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RESERVATIONS_POSTGRES_DSN", "postgres://localhost/voltgrid")
	t.Setenv("RESERVATIONS_JWT_SECRET", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestKafkaBrokersEmptyMeansDisabled(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.KafkaBrokers())
}
