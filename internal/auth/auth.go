// Package auth is the credential/identity boundary: it turns a bearer
// token into an optional {id, role} principal on the request context. The
// rest of the backend trusts the principal as given and never looks at the
// token itself.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cheapshop/backend/internal/apperr"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type Principal struct {
	ID    int64
	Email string
	Role  Role
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the request principal, or false for anonymous calls.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

func (m *Manager) Issue(p Principal) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    p.ID,
		"email": p.Email,
		"role":  string(p.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to sign token", err)
	}
	return signed, nil
}

func (m *Manager) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "invalid token claims")
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "invalid token claims")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &Principal{ID: int64(id), Email: email, Role: Role(role)}, nil
}

// Optional attaches a principal when a valid token is present and lets the
// request through anonymously otherwise (anonymous checkout path).
func (m *Manager) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, err := m.principalFromRequest(r); err == nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.principalFromRequest(r)
		if err != nil {
			respondUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := FromContext(r.Context())
		if p.Role != RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"access denied","code":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m *Manager) principalFromRequest(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" || tokenString == header {
		return nil, apperr.New(apperr.Unauthorized, "token not provided")
	}
	return m.Verify(tokenString)
}

func respondUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"unauthorized"}`))
}
