package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/bizdesk/api/handler"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/internal/config"
	"github.com/fastygo/bizdesk/internal/infrastructure/monitor"
	mongoInfra "github.com/fastygo/bizdesk/internal/infrastructure/mongo"
	"github.com/fastygo/bizdesk/internal/infrastructure/outbox"
	"github.com/fastygo/bizdesk/internal/middleware"
	"github.com/fastygo/bizdesk/internal/publisher"
	"github.com/fastygo/bizdesk/internal/router"
	"github.com/fastygo/bizdesk/internal/services"
	"github.com/fastygo/bizdesk/internal/services/lifecycle"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	"github.com/fastygo/bizdesk/pkg/logger"
	"github.com/fastygo/bizdesk/repository"
	mongoRepo "github.com/fastygo/bizdesk/repository/mongo"
	"github.com/fastygo/bizdesk/usecase"
	bookingUC "github.com/fastygo/bizdesk/usecase/booking"
	leadUC "github.com/fastygo/bizdesk/usecase/lead"
	roleUC "github.com/fastygo/bizdesk/usecase/role"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mongoClient, err := mongoInfra.NewClient(appCtx, cfg.Mongo, zapLogger)
	if err != nil {
		zapLogger.Fatal("mongo connection failed", zap.Error(err))
	}
	manager.Register("mongo", func(ctx context.Context) error {
		return mongoInfra.Close(ctx, mongoClient, zapLogger)
	})

	db := mongoClient.Database(cfg.Mongo.Database)
	if cfg.Mongo.EnsureIndexes {
		if err := mongoRepo.EnsureIndexes(appCtx, db); err != nil {
			zapLogger.Fatal("mongo indexes failed", zap.Error(err))
		}
	}

	deps, err := connectTransports(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("event transport setup failed", zap.Error(err))
	}

	target, err := publisher.Build(*cfg, deps.clients, publisher.NewMetrics(registry))
	if err != nil {
		zapLogger.Fatal("event publisher setup failed", zap.Error(err))
	}

	checks := append([]monitor.Check{mongoCheck(mongoClient)}, deps.checks...)

	var (
		eventPublisher usecase.EventPublisher = target
		outboxStore    *outbox.Store
		outboxSize     monitor.SizeReporter
	)
	if cfg.Events.Mode == config.ModeOutbox {
		outboxStore, err = outbox.Open(cfg.Outbox.Path, "events", cfg.Outbox.MaxSize)
		if err != nil {
			zapLogger.Fatal("failed to open outbox", zap.Error(err))
		}
		manager.Register("outbox", func(ctx context.Context) error {
			return outboxStore.Close()
		})
		eventPublisher = services.NewOutboxPublisher(outboxStore)
		outboxSize = outboxStore
	}

	mon := monitor.New(checks, outboxSize, 0, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	if outboxStore != nil {
		relay := services.NewOutboxRelay(outboxStore, mon, target, zapLogger, services.RelayConfig{
			Interval:       cfg.Outbox.SyncInterval,
			BatchSize:      cfg.Outbox.BatchSize,
			MaxRetries:     cfg.Outbox.MaxRetry,
			RetentionHours: cfg.Outbox.RetentionHours,
		})
		registry.MustRegister(relay.Collectors()...)
		relay.Start()
		manager.Register("outbox_relay", func(ctx context.Context) error {
			relay.Stop(ctx)
			return nil
		})
	}

	opts := []usecase.Option{
		usecase.WithFetchCap(cfg.List.FetchCap),
		usecase.WithMetadata(domain.Metadata{domain.MetaOrigin: cfg.Events.Origin}),
	}
	leadUseCase := leadUC.New(
		mongoRepo.New[*domain.Lead](db, repository.CollectionLeads),
		mongoRepo.New[*domain.LeadContact](db, repository.CollectionLeadContacts),
		eventPublisher, zapLogger, opts...,
	)
	bookingUseCase := bookingUC.New(mongoRepo.New[*domain.Booking](db, repository.CollectionBookings), eventPublisher, zapLogger, opts...)
	roleUseCase := roleUC.New(mongoRepo.New[*domain.Role](db, repository.CollectionRoles), eventPublisher, zapLogger, opts...)

	authenticator, err := middleware.NewAuthenticator(cfg.Auth, zapLogger)
	if err != nil {
		zapLogger.Fatal("authentication setup failed", zap.Error(err))
	}
	if !authenticator.Enabled() {
		zapLogger.Warn("token verification disabled, principal read from X-User-ID header")
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Lead:    apiHandler.NewLeadHandler(leadUseCase, ctxAdapter, zapLogger),
		Booking: apiHandler.NewBookingHandler(bookingUseCase, ctxAdapter, zapLogger),
		Role:    apiHandler.NewRoleHandler(roleUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	if deps.journal != nil {
		handlers.Event = apiHandler.NewEventHandler(deps.journal, ctxAdapter, zapLogger)
	}

	var routerOpts router.Options
	if cfg.HTTP.EnableMetrics {
		routerOpts.Metrics = registry
	}
	r := router.New(handlers, authenticator.Handler, routerOpts)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.Strings("event_transports", cfg.Events.Transports),
			zap.String("events_mode", cfg.Events.Mode),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
