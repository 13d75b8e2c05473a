package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/usecase"
)

// ===== Token primitives =====

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (t *TokenManager) Mint(username string, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Subject:   username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenManager) Parse(tok string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ===== Caller identity =====

type Caller struct {
	Username string
	Role     model.Role
}

type callerKey struct{}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// ===== Authenticator =====

// Authenticator resolves the caller from the X-Api-Key header (master
// dashboard key first, then the users table) or from a Bearer token.
type Authenticator struct {
	users             usecase.UserUseCase
	tokens            *TokenManager
	masterKey         string
	dashboardUsername string
	log               *zerolog.Logger
}

func NewAuthenticator(users usecase.UserUseCase, tokens *TokenManager, masterKey, dashboardUsername string, logger *zerolog.Logger) *Authenticator {
	authLog := logger.With().Str("component", "Auth").Logger()
	return &Authenticator{
		users:             users,
		tokens:            tokens,
		masterKey:         masterKey,
		dashboardUsername: dashboardUsername,
		log:               &authLog,
	}
}

// Tokens exposes the token manager so the login handler can mint
// credentials without a second wiring path.
func (a *Authenticator) Tokens() *TokenManager {
	return a.tokens
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := strings.TrimSpace(r.Header.Get("X-Api-Key")); apiKey != "" {
			caller, ok := a.resolveAPIKey(r.Context(), apiKey)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid or expired API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
			return
		}

		if hdr := r.Header.Get("Authorization"); hdr != "" {
			if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
				writeError(w, http.StatusUnauthorized, "Malformed Authorization header")
				return
			}
			claims, err := a.tokens.Parse(strings.TrimSpace(hdr[7:]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			caller := Caller{Username: claims.Username, Role: model.Role(claims.Role)}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
			return
		}

		writeError(w, http.StatusUnauthorized, "Missing X-Api-Key header")
	})
}

// RequireAdmin gates destructive operations on the caller's role.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if caller.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolveAPIKey(ctx context.Context, apiKey string) (Caller, bool) {
	if a.masterKey != "" && apiKey == a.masterKey {
		return Caller{Username: a.dashboardUsername, Role: model.RoleAdmin}, true
	}
	if a.users == nil {
		return Caller{}, false
	}
	u, err := a.users.ResolveAPIKey(ctx, apiKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidArgument) {
			a.log.Error().Err(err).Msg("api key lookup failed")
		}
		return Caller{}, false
	}
	return Caller{Username: u.Username, Role: u.Role}, true
}
