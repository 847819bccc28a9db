package database

import (
	"database/sql"

	"attendance.service/internal/config"
	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// NewInstrumentedConnection opens the pool through otelsql so every query
// becomes a child span of the request or message that issued it.
func NewInstrumentedConnection(cfg config.Config) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", dsn(cfg),
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBNameKey.String(cfg.DBName),
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitRows:             true,
			OmitConnResetSession: true,
		}),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, err
	}
	configurePool(db, cfg.DBMaxConns)

	if err := ping(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
