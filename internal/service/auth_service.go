package service

import (
	"context"
	"fmt"
	"time"

	"pix-ledger/config"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService for the single operator
// account configured at deploy time. There is no registration flow: the ops
// surface belongs to whoever runs the service.
type AuthServiceImpl struct {
	operator config.OperatorConfig
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(operator config.OperatorConfig, hashSvc ports.HashService, tokenSvc ports.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		operator: operator,
		hashSvc:  hashSvc,
		tokenSvc: tokenSvc,
	}
}

// Login validates operator credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if s.operator.Username == "" || s.operator.PasswordHash == "" {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if username != s.operator.Username {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, s.operator.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}
