package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"availability/cmd/internal/config"
	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/routes"
	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/validators"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init store
	db, err := store.Open(store.Config{
		URL:                cfg.Database.URL,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold(),
		Logger:             logger,
	})
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}
	logger.Info("store ready", zap.String("dialect", db.Dialect()))

	// Change event broker
	pub, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		log.Fatal("failed to connect event broker: ", err)
	}
	defer pub.Close()

	emitter := events.NewEmitter(pub)
	validate := validators.New()

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	externalRepo := repository.NewExternalIntegrationRepository(db)
	integrationRepo := repository.NewIntegrationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Getting services
	userService := service.NewUserService(userRepo, profileRepo, db, validate, emitter)
	profileService := service.NewProfileService(profileRepo, validate, emitter)
	scheduleService := service.NewScheduleService(scheduleRepo, apptRepo, db, validate, emitter)
	apptService := service.NewAppointmentService(apptRepo, scheduleRepo, notifRepo, db, validate, emitter)
	notifService := service.NewNotificationService(notifRepo, validate, emitter)
	integrationService := service.NewIntegrationService(externalRepo, integrationRepo, scheduleRepo, db, validate, emitter)
	analyticsService := service.NewAnalyticsService(analyticsRepo, validate, emitter)

	e := routes.NewRouter(routes.Handlers{
		Users:         routes.NewUserDefault(userService),
		Profiles:      routes.NewProfileDefault(profileService),
		Schedules:     routes.NewScheduleDefault(scheduleService),
		Appointments:  routes.NewAppointmentDefault(apptService),
		Notifications: routes.NewNotificationDefault(notifService),
		Integrations:  routes.NewIntegrationDefault(integrationService),
		Analytics:     routes.NewAnalyticsDefault(analyticsService),
		DB:            db,
	})
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch lvl {
	case zapcore.DebugLevel:
		log.SetLevel(log.DEBUG)
	case zapcore.WarnLevel:
		log.SetLevel(log.WARN)
	case zapcore.ErrorLevel:
		log.SetLevel(log.ERROR)
	default:
		log.SetLevel(log.INFO)
	}
	return zcfg.Build()
}

func newPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Broker {
	case "amqp":
		return events.NewAMQPPublisher(cfg.URL, cfg.Topic)
	case "redis":
		return events.NewRedisPublisher(ctx, cfg.URL, cfg.Topic)
	case "kafka":
		return events.NewKafkaPublisher(cfg.URL, cfg.Topic)
	default:
		return events.NopPublisher{}, nil
	}
}
