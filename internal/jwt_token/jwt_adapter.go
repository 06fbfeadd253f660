package jwttoken

import (
	"smartration/internal/issuance/service"
)

func ToSession(claims *Claims) *service.Session {
	return &service.Session{Email: claims.Email}
}

// SessionVerifier exposes JWTService as the issuance service's Authenticator.
type SessionVerifier struct {
	service *JWTService
}

func NewSessionVerifier(service *JWTService) *SessionVerifier {
	return &SessionVerifier{service: service}
}

func (a *SessionVerifier) Verify(tokenString string) (*service.Session, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToSession(claims), nil
}
