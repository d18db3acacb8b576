package app

import (
	"context"
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"voltgrid/internal/auth"
	"voltgrid/internal/booking"
	"voltgrid/internal/cache"
	"voltgrid/internal/config"
	"voltgrid/internal/db"
	"voltgrid/internal/events"
	httpserver "voltgrid/internal/http"
	"voltgrid/internal/http/handlers"
	"voltgrid/internal/payments"
	libredis "voltgrid/internal/redis"
	"voltgrid/internal/repository"
	"voltgrid/internal/search"
	"voltgrid/internal/service"
	"voltgrid/internal/ws"
)

// App wires reservations-service dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	db          *sql.DB
	redisClient *goredis.Client
	producer    *events.Producer
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// Redis is an accelerator here; the service still works off Postgres when
	// it is absent.
	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("redis unavailable, running without snapshot cache", zap.Error(err))
		redisClient = nil
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	bookingRepo := repository.NewBookingRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	paymentRepo := repository.NewPaymentRepository(sqlDB)

	stationCache := cache.NewStationCache(redisClient, stationRepo.ListAll, cfg.Search.CacheSize, cfg.SnapshotTTL(), logger)
	occupancy := cache.NewOccupancyStore(redisClient, sessionRepo, logger)

	engine := search.NewEngine(stationCache, occupancy, logger)
	resolver := booking.NewResolver(stationRepo, bookingRepo, logger)

	var provider payments.Provider
	if cfg.Stripe.APIKey != "" {
		provider = payments.NewStripeProvider(cfg.Stripe.APIKey)
	}

	var producer *events.Producer
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		producer = events.NewProducer(brokers, cfg.Kafka.Topic, logger)
	}

	hub := ws.NewHub(cfg.PingInterval(), logger)

	stationsService := service.NewStationsService(stationRepo, bookingRepo, stationCache, engine, hub, logger)
	bookingsService := service.NewBookingsService(resolver, bookingRepo, stationRepo, sessionRepo, paymentRepo, occupancy, provider, producer, cfg.Stripe.Currency, logger)

	router := httpserver.NewRouter(httpserver.Deps{
		Stations: handlers.NewStationsHandlers(stationsService, logger),
		Bookings: handlers.NewBookingsHandlers(bookingsService, logger),
		Stream:   handlers.NewStreamHandler(hub, logger),
		Health:   handlers.NewHealthHandler(),
		Auth:     auth.Middleware(cfg.Auth.JWTSecret),
		Operator: auth.RequireOperator,
		APIKey:   auth.RequireAPIKey(cfg.Auth.OperatorAPIKeyHash),
	})
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		hub:         hub,
		db:          sqlDB,
		redisClient: redisClient,
		producer:    producer,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server and the websocket keepalive loop.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Start(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close event producer", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
