package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/secvote/secvote/pkg/internal/models"
	"github.com/spf13/viper"
)

type TokenClaims struct {
	AccountID uint   `json:"user_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// ResolveToken turns a bearer token into a voter identity. Anything
// malformed, mis-signed, or expired comes back as ErrUnauthenticated; the
// claims themselves are trusted as issued.
func ResolveToken(tokenStr string) (models.Identity, error) {
	if len(tokenStr) == 0 {
		return models.Identity{}, ErrUnauthenticated
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(viper.GetString("security.jwt_secret")), nil
	})
	if err != nil || !token.Valid || claims.AccountID == 0 {
		return models.Identity{}, ErrUnauthenticated
	}

	return models.Identity{
		AccountID: claims.AccountID,
		Username:  claims.Username,
	}, nil
}
