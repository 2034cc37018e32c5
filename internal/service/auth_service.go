package service

import (
	"fmt"
	"time"

	"stride-sync-server/internal/domain"
	"stride-sync-server/pkg/hash"
	"stride-sync-server/pkg/jwt"
)

// AuthService exchanges the deployment's shared sync key for short-lived
// device session tokens.
type AuthService struct {
	syncKeyHash   string
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(syncKeyHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		syncKeyHash:   syncKeyHash,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) IssueToken(req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if err := hash.Verify(s.syncKeyHash, req.SyncKey); err != nil {
		return nil, fmt.Errorf("invalid sync key")
	}

	token, err := jwt.GenerateToken(req.UserID, req.DeviceID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}
