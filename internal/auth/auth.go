// Package auth consumes the embedding platform's identity token. The
// handshake itself happens elsewhere; we only read the token's subject and
// display name, and hand out a guest identity when there is no usable token.
package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Identity struct {
	PlayerID string
	Name     string
}

// Identify resolves the player identity for a connection. The token may ride
// the Authorization header or a "token" query parameter (browsers cannot set
// headers on websocket upgrades).
func Identify(r *http.Request, secret string) Identity {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		}
	}

	if tokenStr != "" && secret != "" {
		claims := jwt.MapClaims{}
		tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err == nil && tok.Valid {
			sub, _ := claims["sub"].(string)
			name, _ := claims["name"].(string)
			if sub != "" {
				return Identity{PlayerID: sub, Name: name}
			}
		}
	}

	return Identity{PlayerID: uuid.NewString()}
}
