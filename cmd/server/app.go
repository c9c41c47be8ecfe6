package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catalog/internal/observability"
	"catalog/internal/rbac/config"
	"catalog/internal/rbac/events"
	"catalog/internal/rbac/policy"
	"catalog/internal/rbac/repository"
	"catalog/internal/rbac/repository/memory"
	"catalog/internal/rbac/service"
	"catalog/internal/rbac/util"
	"catalog/internal/search"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repository.Store
	resolver *policy.Resolver
	metrics  *observability.Metrics
	queue    *search.Queue
	svc      *service.Service

	mongoClient *mongo.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	util.InitLoggerWithLevel(cfg.LogLevel)
	logger := util.GetLogger()

	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	if err := a.store.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure indexes", "error", err)
	}

	backend, err := search.NewElasticBackend(search.ElasticConfig{
		Addresses: cfg.ElasticsearchURLs,
		Username:  cfg.ElasticsearchUsername,
		Password:  cfg.ElasticsearchPassword,
		Index:     cfg.SearchIndex,
	}, logger)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	synchronizer := search.NewSynchronizer(backend, a.store, logger)
	a.queue = search.NewQueue(synchronizer, search.QueueConfig{
		RetryInterval: cfg.SyncRetryInterval,
		ProbeTimeout:  cfg.SyncProbeTimeout,
		Rate:          cfg.SyncRate,
		Metrics:       search.NewMetrics(a.metrics.Registerer()),
		Logger:        logger,
	})

	a.resolver = policy.NewResolver(a.store, cfg.AdminRoleName)
	a.svc = service.NewService(service.Deps{
		Store:    a.store,
		Resolver: a.resolver,
		Bus:      events.NewBus(logger),
		Queue:    a.queue,
		Indexer:  synchronizer,
		Logger:   logger,
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.StoreDriver == config.StoreDriverMemory {
		a.logger.Warn("Using in-memory store, data is lost on restart")
		a.store = memory.New()
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(a.cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.mongoClient = client
	a.store = repository.NewMongoRepository(client.Database(a.cfg.DBName))
	return nil
}

func (a *app) bootstrap(ctx context.Context) error {
	res, err := a.svc.Bootstrap(ctx, service.BootstrapConfig{
		AdminEmail:    a.cfg.BootstrapAdminEmail,
		AdminPassword: a.cfg.BootstrapAdminPassword,
	})
	if err != nil {
		return err
	}
	a.logger.Info("Bootstrap complete",
		"permissions_created", res.PermissionsCreated,
		"roles_created", res.RolesCreated,
		"admin_created", res.AdminCreated,
	)
	return nil
}

// close stops the sync queue and then releases the store.
func (a *app) close(ctx context.Context) {
	if a.queue != nil {
		a.queue.Close()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Error("Failed to disconnect DB", "error", err)
		}
	}
}
