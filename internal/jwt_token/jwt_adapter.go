package jwttoken

import (
	"context"

	dErrors "trustlessid/pkg/domain-errors"
	authmw "trustlessid/pkg/platform/middleware/auth"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MiddlewareAdapter exposes JWTService as an authmw.TokenValidator.
type MiddlewareAdapter struct {
	service *JWTService
	revoked RevocationChecker
}

// NewMiddlewareAdapter builds the adapter. revoked may be nil.
func NewMiddlewareAdapter(service *JWTService, revoked RevocationChecker) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service, revoked: revoked}
}

func (a *MiddlewareAdapter) ValidateToken(ctx context.Context, tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "token revocation check failed")
		}
		if revoked {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}
	out := &authmw.Claims{UserID: claims.UserID, JTI: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
