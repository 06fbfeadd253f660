// Package service authenticates the single administrator account and issues
// time-limited session tokens.
package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartration/internal/admin/secrets"
	"smartration/internal/platform/config"
	dErrors "smartration/pkg/domain-errors"
	"smartration/pkg/requestcontext"
)

type TokenIssuer interface {
	GenerateAdminToken(email string, expiresIn time.Duration) (string, error)
}

// LoginResult carries the issued session token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	email        string
	passwordHash string
	tokenTTL     time.Duration
	tokens       TokenIssuer
	logger       *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New hashes cfg.Password once when no PasswordHash is configured.
func New(cfg config.AdminConfig, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	hash := cfg.PasswordHash
	if hash == "" {
		h, err := secrets.Hash(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = h
	}
	s := &Service{
		email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		passwordHash: hash,
		tokenTTL:     cfg.TokenTTL,
		tokens:       tokens,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials and returns a signed session token.
// Unknown email and wrong password are reported identically.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	requestID := requestcontext.RequestID(ctx)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	// Verify runs even on an email mismatch so both failures take the same time.
	if err := secrets.Verify(password, s.passwordHash); err != nil || !emailOK {
		if err != nil && !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.ErrorContext(ctx, "admin password verification failed",
				"request_id", requestID,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
		}
		s.logger.WarnContext(ctx, "admin login rejected",
			"request_id", requestID,
			"client_ip", requestcontext.ClientIP(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	token, err := s.tokens.GenerateAdminToken(s.email, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	s.logger.InfoContext(ctx, "admin logged in",
		"request_id", requestID,
	)
	return &LoginResult{Token: token, ExpiresAt: now.Add(s.tokenTTL)}, nil
}
