package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// JWTProvider verifies HS256 tokens signed by IssueToken. The "sub"
// claim is taken as the player id; the "exp" claim is enforced by the
// underlying library.
type JWTProvider struct {
	secret []byte
}

// NewJWTProvider constructs a JWTProvider signing and verifying with
// the given shared secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

// IssueToken signs a token identifying playerID, valid for ttl.
func (p *JWTProvider) IssueToken(playerID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": playerID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %v", err)
	}
	return signed, nil
}

// VerifyToken validates the token's signature and expiry and returns
// the player id carried in its "sub" claim.
func (p *JWTProvider) VerifyToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("verifying token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("verifying token: invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("verifying token: missing sub claim")
	}
	return sub, nil
}
