package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"smartration/internal/admin/secrets"
	jwttoken "smartration/internal/jwt_token"
	"smartration/internal/platform/config"
	dErrors "smartration/pkg/domain-errors"
	"smartration/pkg/requestcontext"
)

type failingIssuer struct{}

func (failingIssuer) GenerateAdminToken(string, time.Duration) (string, error) {
	return "", errors.New("signing failed")
}

type LoginSuite struct {
	suite.Suite
	jwt     *jwttoken.JWTService
	service *Service
}

func TestLoginSuite(t *testing.T) {
	suite.Run(t, new(LoginSuite))
}

func (s *LoginSuite) SetupTest() {
	s.jwt = jwttoken.NewJWTService("test-key", "smartration")
	svc, err := New(config.AdminConfig{
		Email:    "Admin@Example.com",
		Password: "Admin@123",
		TokenTTL: 2 * time.Hour,
	}, s.jwt)
	s.Require().NoError(err)
	s.service = svc
}

func (s *LoginSuite) TestLogin() {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC))

	s.Run("valid credentials yield an admin token", func() {
		res, err := s.service.Login(ctx, " admin@example.com ", "Admin@123")
		s.Require().NoError(err)
		s.Equal(time.Date(2024, 5, 3, 11, 0, 0, 0, time.UTC), res.ExpiresAt)

		claims, err := s.jwt.ValidateToken(res.Token)
		s.Require().NoError(err)
		s.Equal("admin@example.com", claims.Email)
		s.Equal(jwttoken.RoleAdmin, claims.Role)
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.service.Login(ctx, "admin@example.com", "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown email is unauthorized", func() {
		_, err := s.service.Login(ctx, "someone@example.com", "Admin@123")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
	})

	s.Run("missing fields are a validation error", func() {
		_, err := s.service.Login(ctx, "", "Admin@123")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.Login(ctx, "admin@example.com", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LoginSuite) TestConfiguredHashIsUsed() {
	hash, err := secrets.Hash("from-hash")
	s.Require().NoError(err)

	svc, err := New(config.AdminConfig{
		Email:        "admin@example.com",
		Password:     "ignored",
		PasswordHash: hash,
		TokenTTL:     time.Hour,
	}, s.jwt)
	s.Require().NoError(err)

	_, err = svc.Login(context.Background(), "admin@example.com", "from-hash")
	s.NoError(err)
	_, err = svc.Login(context.Background(), "admin@example.com", "ignored")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *LoginSuite) TestTokenFailureIsInternal() {
	svc, err := New(config.AdminConfig{Email: "admin@example.com", Password: "pw", TokenTTL: time.Hour}, failingIssuer{})
	s.Require().NoError(err)

	_, err = svc.Login(context.Background(), "admin@example.com", "pw")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *LoginSuite) TestNewRequiresCredentials() {
	_, err := New(config.AdminConfig{Password: "pw"}, s.jwt)
	s.Error(err)
	_, err = New(config.AdminConfig{Email: "admin@example.com"}, s.jwt)
	s.Error(err)
}
