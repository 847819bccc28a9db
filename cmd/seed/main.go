// Creates the initial admin account.
package main

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(cfg.IsLocalDev)

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db, database.SchemaAPI); err != nil {
		log.Fatal().Err(err).Msg("Schema migration failed")
	}

	repo := repository.NewEmployeeRepository(db)
	if err := seedAdmin(ctx, repo, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
}

// seedAdmin creates the admin account unless the email is already registered.
func seedAdmin(ctx context.Context, repo repository.EmployeeRepository, email, password string) error {
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		log.Info().Str("email", email).Msg("Admin already exists, nothing to do")
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := model.Employee{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Position:     model.PositionAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	log.Info().Str("email", email).Str("employee_id", admin.ID).Msg("Admin account created")
	return nil
}
