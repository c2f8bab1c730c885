package ghost

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenAudience = "/admin/"
	tokenLifetime = 5 * time.Minute
)

// adminKey is a parsed Ghost Admin API key.
type adminKey struct {
	id     string
	secret []byte
}

func parseAdminKey(raw string) (adminKey, error) {
	id, secretHex, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || id == "" || secretHex == "" {
		return adminKey{}, fmt.Errorf("%w: expected {id}:{secret}", ErrInvalidAdminKey)
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return adminKey{}, fmt.Errorf("%w: secret is not hex: %v", ErrInvalidAdminKey, err)
	}
	return adminKey{id: id, secret: secret}, nil
}

// sign returns a short-lived HS256 token for the Admin API.
func (k adminKey) sign(now time.Time) (string, error) {
	iat := now.Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": iat,
		"exp": now.Add(tokenLifetime).Unix(),
		"aud": tokenAudience,
	})
	token.Header["kid"] = k.id

	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}
