package main

import (
	"context"
	"testing"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryEmployees struct {
	repository.EmployeeRepository
	byEmail map[string]model.Employee
}

func (m *memoryEmployees) FindByEmail(_ context.Context, email string) (*model.Employee, error) {
	e, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *memoryEmployees) Create(_ context.Context, e model.Employee) error {
	m.byEmail[e.Email] = e
	return nil
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	repo := &memoryEmployees{byEmail: map[string]model.Employee{}}
	ctx := context.Background()

	require.NoError(t, seedAdmin(ctx, repo, "admin@example.com", "admin123"))
	first := repo.byEmail["admin@example.com"]
	assert.Equal(t, model.PositionAdmin, first.Position)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(first.PasswordHash), []byte("admin123")))

	require.NoError(t, seedAdmin(ctx, repo, "admin@example.com", "other"))
	assert.Equal(t, first.ID, repo.byEmail["admin@example.com"].ID)
	assert.Len(t, repo.byEmail, 1)
}
