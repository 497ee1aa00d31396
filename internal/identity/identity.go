// Package identity issues the anonymous per-device identity players carry
// around: a stable opaque id plus a user-chosen display name, wrapped in a
// signed guest token so a device can prove it is the same device later.
// There are no passwords and no accounts.
package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
	ErrNameRequired = errors.New("display name is required")
)

type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type claims struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

type Provider struct {
	secret []byte
	expire time.Duration
}

func NewProvider(secret string, expire time.Duration) *Provider {
	return &Provider{
		secret: []byte(secret),
		expire: expire,
	}
}

// Issue mints a fresh identity with a new opaque id. Ids are never reused
// across devices; the display name is the profile-level name chosen once at
// onboarding.
func (p *Provider) Issue(displayName string) (Identity, string, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return Identity{}, "", ErrNameRequired
	}
	id := Identity{
		ID:          "user-" + uuid.NewString(),
		DisplayName: name,
	}
	token, err := p.Token(id)
	if err != nil {
		return Identity{}, "", err
	}
	return id, token, nil
}

// Token signs an existing identity, e.g. after a display-name change.
func (p *Provider) Token(id Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		PlayerID:    id.ID,
		DisplayName: id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gamenight",
		},
	})
	return token.SignedString(p.secret)
}

// Parse validates a guest token and returns the identity it carries.
func (p *Provider) Parse(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	parsed, ok := token.Claims.(*claims)
	if !ok || !token.Valid || parsed.PlayerID == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{ID: parsed.PlayerID, DisplayName: parsed.DisplayName}, nil
}
