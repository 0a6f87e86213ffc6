package main

import (
	"context"
	"errors"
	"fmt"

	"taikoweb/config"
	"taikoweb/database"
	"taikoweb/services"

	"go.uber.org/zap"
)

// app holds the components every command shares
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    database.Store
	staging  *services.Staging
	gate     *services.Gate
	pipeline *services.Pipeline
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, notifiers ...services.SongNotifier) (*app, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	staging, err := services.NewStaging(cfg.UploadFolder, cfg.Limits, services.UUIDAllocator{}, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	gate := services.NewGate(store, cfg.Limits.StoreTimeout)
	writer := services.NewCatalogWriter(store, cfg.Limits.StoreTimeout)
	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		staging:  staging,
		gate:     gate,
		pipeline: services.NewPipeline(gate, cfg.UploadLevel, staging, writer, cfg.Limits, log, notifiers...),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (database.Store, error) {
	store, err := dialStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	countCtx := ctx
	if cfg.Limits.StoreTimeout > 0 {
		var cancel context.CancelFunc
		countCtx, cancel = context.WithTimeout(ctx, cfg.Limits.StoreTimeout)
		defer cancel()
	}
	songs, err := store.CountSongs(countCtx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("catalog store unreachable: %w", err), store.Close())
	}
	log.Info("catalog store ready", zap.String("driver", cfg.StoreDriver), zap.Int64("songs", songs))
	return store, nil
}

func dialStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (database.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := database.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if cfg.BootstrapAdmin != "" {
			log.Warn("BOOTSTRAP_ADMIN is ignored with the mongo driver, accounts are managed by the account service")
		}
		return store, nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Open(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Populate(ctx, db, cfg, log); err != nil {
			store := database.NewGormStore(db)
			return nil, errors.Join(err, store.Close())
		}
		return database.NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
