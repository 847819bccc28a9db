package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is lowered in tests.
var passwordCost = bcrypt.DefaultCost

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Identity is the authenticated caller of an operation.
type Identity struct {
	EmployeeID string
	Email      string
	Position   model.Position
}

func (i Identity) IsAdmin() bool {
	return i.Position == model.PositionAdmin
}

type LoginUser struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Position model.Position `json:"position"`
	PhotoURL string         `json:"photoUrl,omitempty"`
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   string    `json:"expiresIn"`
	User        LoginUser `json:"user"`
}

type tokenClaims struct {
	Email    string         `json:"email"`
	Position model.Position `json:"position"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies HS256 session tokens.
type AuthService struct {
	employees repository.EmployeeRepository
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(employees repository.EmployeeRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{employees: employees, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login checks the credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	e, err := s.employees.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(*e)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   s.ttl.String(),
		User: LoginUser{
			ID:       e.ID,
			Name:     e.Name,
			Email:    e.Email,
			Position: e.Position,
			PhotoURL: e.PhotoURL,
		},
	}, nil
}

// IssueToken signs a token for e.
func (s *AuthService) IssueToken(e model.Employee) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Email:    e.Email,
		Position: e.Position,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   e.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the identity it carries.
func (s *AuthService) Verify(token string) (Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{EmployeeID: claims.Subject, Email: claims.Email, Position: claims.Position}, nil
}
