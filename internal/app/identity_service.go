package app

import (
	"context"
	"fmt"

	"learn-activity/internal/domain"
)

// TokenVerifier checks an opaque activity token and returns its profile claims.
type TokenVerifier interface {
	Verify(raw string) (domain.Profile, error)
}

// UserRepository resolves profiles to user records with find-or-create semantics.
type UserRepository interface {
	// FindOrCreate inserts a new user with zero points on first sight, or
	// refreshes username/avatar/last_login on every later call. Points are
	// never reset. The returned user carries the current point total and level.
	FindOrCreate(ctx context.Context, profile domain.Profile) (domain.User, error)
}

// IdentityService verifies activity tokens and resolves the internal user.
type IdentityService struct {
	tokens TokenVerifier
	users  UserRepository
}

func NewIdentityService(tokens TokenVerifier, users UserRepository) *IdentityService {
	return &IdentityService{tokens: tokens, users: users}
}

// VerifyToken validates the token and find-or-creates the user record.
// Every successful call refreshes the user's last login.
func (s *IdentityService) VerifyToken(ctx context.Context, raw string) (domain.User, error) {
	profile, err := s.tokens.Verify(raw)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.FindOrCreate(ctx, profile)
	if err != nil {
		return domain.User{}, fmt.Errorf("resolve user %s: %w", profile.DiscordID, err)
	}
	return user, nil
}
