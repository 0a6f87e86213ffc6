package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"taikoweb/database"
	"taikoweb/services"
	"taikoweb/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	callerKey = "caller"
	userKey   = "user"
)

// CallerResolver extracts the caller's username from a request.
// Missing or invalid credentials resolve to "" (anonymous), errors are reserved
// for backends that could not be reached.
type CallerResolver interface {
	Resolve(r *http.Request) (string, error)
}

// SessionResolver reads the session cookie and looks it up in Redis
type SessionResolver struct {
	Sessions *database.SessionStore
	Cookie   string
}

func (s SessionResolver) Resolve(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.Cookie)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	username, err := s.Sessions.Username(r.Context(), cookie.Value)
	if err != nil {
		return "", err
	}
	return username, nil
}

// TokenResolver accepts "Authorization: Bearer <jwt>" headers signed with HS256.
// The subject claim carries the username.
type TokenResolver struct {
	secret []byte
}

// NewTokenResolver builds a resolver validating tokens with secret
func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret)}
}

// Issue signs a token for username valid for ttl
func (t *TokenResolver) Issue(username string, ttl time.Duration) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("secret key is not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenResolver) Resolve(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || len(t.secret) == 0 {
		return "", nil
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", nil
	}
	return claims.Subject, nil
}

// ChainResolver returns the first non anonymous caller
type ChainResolver []CallerResolver

func (c ChainResolver) Resolve(r *http.Request) (string, error) {
	for _, resolver := range c {
		caller, err := resolver.Resolve(r)
		if err != nil {
			return "", err
		}
		if caller != "" {
			return caller, nil
		}
	}
	return "", nil
}

// AuthMiddleware stores the resolved caller in the gin context. It never rejects
// anonymous requests, RequireLevel does that.
func AuthMiddleware(resolver CallerResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := resolver.Resolve(c.Request)
		if err != nil {
			log.Error("failed to resolve caller", zap.Error(err))
			response.Failure(c, services.Wrap(services.ErrStoreUnavailable, err))
			c.Abort()
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// GetCaller returns the username resolved by AuthMiddleware, "" when anonymous
func GetCaller(c *gin.Context) string {
	return c.GetString(callerKey)
}

// RequireLevel rejects callers below level before the handler reads the body
func RequireLevel(gate *services.Gate, level int, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		user, err := gate.Authorize(ctx, GetCaller(c), level)
		if err != nil {
			response.Failure(c, err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}
