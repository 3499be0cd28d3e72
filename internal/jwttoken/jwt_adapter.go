package jwttoken

import (
	authmw "unicred/pkg/platform/middleware/auth"
)

// Adapter exposes the token service through the middleware's validator
// interface.
type Adapter struct {
	service *Service
}

// NewAdapter wraps a token service for middleware use.
func NewAdapter(service *Service) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		UserID: claims.UserID,
		Role:   claims.Role,
	}, nil
}
