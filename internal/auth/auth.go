package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims follows the hosted identity provider's access token layout: the
// subject is the user id and the display name sits in user_metadata.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses a raw token into the caller identity.
func (v *Verifier) Verify(raw string) (domain.Identity, error) {
	if len(v.secret) == 0 {
		return domain.Identity{}, fmt.Errorf("%w: no signing secret configured", domain.ErrUnauthorized)
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	name := claims.UserMetadata.FullName
	if name == "" {
		name = claims.UserMetadata.Name
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email, Name: name}, nil
}

// Sign issues a token for id. Used by the token command and tests.
func (v *Verifier) Sign(id domain.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Email:        id.Email,
		UserMetadata: UserMetadata{FullName: id.Name},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity stored by the middleware.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	return id, ok && id.UserID != ""
}

// Middleware attaches the bearer identity to the request context. With
// required set, requests without a valid token are rejected with 401;
// otherwise they pass through anonymously.
func (v *Verifier) Middleware(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				if required {
					unauthorized(w, "authorization header is required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			id, err := v.Verify(raw)
			if err != nil {
				if required {
					unauthorized(w, "invalid token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		// websocket clients cannot set headers from the browser
		if t := r.URL.Query().Get("access_token"); t != "" {
			return t, true
		}
		return "", false
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": msg})
}
