package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"learn-activity/internal/domain"
)

// Claims mirror what the companion Discord bot signs into activity links.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 activity tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for a profile, as the bot does for /learn links.
func (m *TokenManager) Issue(profile domain.Profile) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   profile.DiscordID,
		Username: profile.Username,
		Avatar:   profile.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the embedded profile.
// All failures map to the domain token errors; callers never see parser detail.
func (m *TokenManager) Verify(raw string) (domain.Profile, error) {
	if raw == "" {
		return domain.Profile{}, domain.ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return domain.Profile{}, domain.ErrInvalidToken
	}
	if claims.UserID == "" {
		return domain.Profile{}, domain.ErrInvalidToken
	}

	return domain.Profile{
		DiscordID: claims.UserID,
		Username:  claims.Username,
		Avatar:    claims.Avatar,
	}, nil
}
