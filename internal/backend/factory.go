package backend

import (
	"context"
	"errors"
	"fmt"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/cache"
	"pengeluaran/internal/ledger/google"
	"pengeluaran/internal/ledger/memory"
	applog "pengeluaran/internal/log"
	"pengeluaran/internal/services"
	"pengeluaran/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend builds the configured store. When an AMQP URL is set the
// store is wrapped so writes are mirrored; a broker that cannot be reached
// only disables mirroring.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		f.attachMirror(res, config)
	}
	return res, nil
}

func (f *DefaultFactory) attachMirror(res *Result, config Config) {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without mirror", applog.FieldError, err)
		return
	}

	res.Store = services.NewMirroredStore(res.Store, client, f.logger)
	res.Mirror = true
	inner := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if inner != nil {
			errs = append(errs, inner())
		}
		errs = append(errs, client.Close())
		return errors.Join(errs...)
	}
	f.logger.Info("Initialized AMQP mirror", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	n, err := repo.Count(ctx)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to read SQLite ledger: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, applog.FieldCount, n)
	return &Result{
		Store:   repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := google.New(ctx, config.Google())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &Result{
		Store:  store,
		Ping:   store.Ping,
		Caches: []cache.Cleaner{store.RowCache()},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	store := memory.New()
	if config.MemorySeedFile != "" {
		seeded, err := memory.NewFromFile(config.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory seed file: %w", err)
		}
		store = seeded
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile, applog.FieldCount, store.Len())
	return &Result{Store: store}, nil
}
