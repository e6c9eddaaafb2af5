package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/api"
	"github.com/Tiliavir/shiftpay/internal/config"
	"github.com/Tiliavir/shiftpay/internal/logger"
	"github.com/Tiliavir/shiftpay/internal/repository/mongodb"
	"github.com/Tiliavir/shiftpay/internal/repository/sheets"
	"github.com/Tiliavir/shiftpay/internal/repository/sqlstore"
	"github.com/Tiliavir/shiftpay/internal/storage"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// openService connects the configured store and wraps it in a service. The
// returned func releases the store.
func openService(ctx context.Context, cfg config.Config, log *zap.Logger) (*timesheet.Service, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}

	opts := []timesheet.Option{timesheet.WithLocation(loc)}
	closeFn := func() {}
	var store timesheet.Store

	switch cfg.Store {
	case config.StoreFile:
		store = storage.New(filepath.Join(dataDir, "entries"), loc)
	case config.StoreAPI:
		store = api.NewClient(api.Options{
			BaseURL:  cfg.API.BaseURL,
			Token:    cfg.API.Token,
			Timeout:  cfg.APITimeout(),
			Location: loc,
		}, logger.Named(log, "api"))
		opts = append(opts, timesheet.WithCache(storage.New(filepath.Join(dataDir, "cache"), loc)))
	case config.StoreMongo:
		repo, err := mongodb.NewRepository(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, loc, logger.Named(log, "repo.mongodb"))
		if err != nil {
			return nil, nil, err
		}
		store = repo
		closeFn = func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}
	case config.StoreMySQL:
		repo, err := sqlstore.Open(cfg.MySQL.DSN, loc, logger.Named(log, "repo.mysql"))
		if err != nil {
			return nil, nil, err
		}
		store = repo
		closeFn = func() {
			if err := repo.Close(); err != nil {
				log.Error("failed to close mysql connection", zap.Error(err))
			}
		}
	default:
		return nil, nil, usagef("unknown store %q", cfg.Store)
	}

	log.Debug("store opened", zap.String("store", cfg.Store), zap.String("timezone", loc.String()))
	return timesheet.NewService(store, logger.Named(log, "svc.timesheet"), opts...), closeFn, nil
}

// openSheets connects the Google Sheet of the config, or returns nil when
// none is configured.
func openSheets(ctx context.Context, cfg config.Config, log *zap.Logger) (*sheets.Repository, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	repo, err := sheets.New(ctx, sheets.Config{
		CredentialsPath: cfg.Sheets.CredentialsPath,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
	}, logger.Named(log, "repo.sheets"))
	if err != nil {
		return nil, fmt.Errorf("init sheets repository: %w", err)
	}
	return repo, nil
}
