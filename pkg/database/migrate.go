package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Schema names one embedded migration file.
type Schema string

const (
	SchemaAPI   Schema = "api"
	SchemaAudit Schema = "audit"
)

// Migrate applies the schema. Statements are idempotent, so every process
// runs its own schema on start.
func Migrate(ctx context.Context, db *sql.DB, schema Schema) error {
	ddl, err := migrations.ReadFile("migrations/" + string(schema) + ".sql")
	if err != nil {
		return fmt.Errorf("reading %s schema: %w", schema, err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("applying %s schema: %w", schema, err)
	}
	return nil
}
