package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-io/inkwell/server/internal/config"
	storepkg "github.com/inkwell-io/inkwell/server/internal/store"
	storepg "github.com/inkwell-io/inkwell/server/internal/store/postgres"
	storesqlite "github.com/inkwell-io/inkwell/server/internal/store/sqlite"
)

// NewStore builds the record store selected by DB_DRIVER.
//
// SQLite bootstraps its schema synchronously; it is a local file and fast.
// Postgres opens the pool synchronously so health checks have a connection,
// then runs an async connectivity check; schema migration is an operator
// concern, not done here.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return storesqlite.New(cfg.SQLitePath)

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("INKWELL_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}

		go func() {
			bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
			defer cancel()

			if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap check completed")
			}
		}()

		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
