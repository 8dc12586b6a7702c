// Package bootstrap initializes the logger and the configured storage
// backend before the bot starts handling updates.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "confbot/core/config"
	coredatabase "confbot/core/database"
	"confbot/core/logger"
	"confbot/dialog"

	"log/slog"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	States        dialog.Store
	Registrations dialog.RegistrationStore

	db    *sqlx.DB
	redis *redis.Client
}

// Close releases storage connections opened during bootstrap.
func (r *Result) Close() error {
	var firstErr error
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run initializes the logger and builds the dialog stores for the
// configured backend.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	switch cfg.Storage.Backend {
	case coreconfig.BackendMemory:
		mem := dialog.NewMemoryStore()
		return &Result{States: mem, Registrations: mem}, nil

	case coreconfig.BackendPostgres, coreconfig.BackendSQLite:
		db, err := openSQL(opts, sqlDatabaseConfig(cfg))
		if err != nil {
			return nil, err
		}
		store := dialog.NewSQLStore(db)
		return &Result{States: store, Registrations: store, db: db}, nil

	case coreconfig.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("bootstrap: redis ping failed: %w", err)
		}
		ttl := time.Duration(cfg.Storage.Redis.TTLSeconds) * time.Second
		result := &Result{
			States: dialog.NewRedisStore(client, ttl),
			redis:  client,
		}

		// Registrations are relational records; they go to SQL when one is
		// configured alongside Redis, otherwise to memory.
		if cfg.Storage.SQL.Name != "" || cfg.Storage.SQL.Path != "" {
			db, err := openSQL(opts, sqlDatabaseConfig(cfg))
			if err != nil {
				_ = client.Close()
				return nil, err
			}
			result.Registrations = dialog.NewSQLStore(db)
			result.db = db
		} else {
			logger.DB.Warn("no sql storage configured, registrations are kept in memory",
				slog.String("event", "storage.registrations.memory"),
			)
			result.Registrations = dialog.NewMemoryStore()
		}
		return result, nil

	default:
		return nil, fmt.Errorf("bootstrap: unsupported storage backend %q", cfg.Storage.Backend)
	}
}

func openSQL(opts Options, dbCfg coredatabase.Config) (*sqlx.DB, error) {
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return db, nil
}

func sqlDatabaseConfig(cfg *coreconfig.Config) coredatabase.Config {
	driver := coredatabase.DriverPostgres
	if cfg.Storage.Backend == coreconfig.BackendSQLite ||
		(cfg.Storage.Backend == coreconfig.BackendRedis && cfg.Storage.SQL.Path != "") {
		driver = coredatabase.DriverSQLite
	}
	if cfg.Storage.SQL.Driver != "" {
		driver = cfg.Storage.SQL.Driver
	}
	return coredatabase.Config{
		Driver:         driver,
		Host:           cfg.Storage.SQL.Host,
		Port:           cfg.Storage.SQL.Port,
		User:           cfg.Storage.SQL.User,
		Password:       cfg.Storage.SQL.Password,
		Name:           cfg.Storage.SQL.Name,
		SSLMode:        cfg.Storage.SQL.SSLMode,
		Path:           cfg.Storage.SQL.Path,
		MaxConnections: cfg.Storage.SQL.MaxConnections,
	}
}
