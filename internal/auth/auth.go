// Package auth provides JWT token issuing/verification and the middleware
// that gates every note route behind an `Authorization: Bearer <token>`
// header. The verified username is bound into the request context before
// any handler or storage call runs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/quirknotes/internal/logger"
	"github.com/patric-chuzhbe/quirknotes/internal/models"
)

// ErrInvalidToken is returned when a token is absent, malformed,
// or its signature does not verify.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned when the token signature verifies
// but the expiry instant has passed. Expiry is the only invalidation
// mechanism; there is no revocation list.
var ErrTokenExpired = errors.New("token expired")

// Auth issues and verifies the bearer tokens of the service.
type Auth struct {
	// tokenSigningSecretKey is the shared HMAC key used to sign tokens.
	tokenSigningSecretKey []byte

	// tokenTTL is the lifetime of an issued token.
	tokenTTL time.Duration
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds the owning username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UsernameKey is the context key used to store and retrieve the authenticated username.
const UsernameKey ContextKey = "username"

// New creates a new Auth with the given signing key and token lifetime.
func New(tokenSigningSecretKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		tokenSigningSecretKey: tokenSigningSecretKey,
		tokenTTL:              tokenTTL,
	}
}

// BuildJWTString mints a signed token embedding the username,
// expiring exactly tokenTTL after issuance.
func (a *Auth) BuildJWTString(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.tokenSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken verifies the token signature and expiry and returns
// the embedded username. Failures are ErrTokenExpired for an outlived token
// and ErrInvalidToken for everything else.
func (a *Auth) GetUsernameFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.tokenSigningSecretKey, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.Username == "" {
		return "", ErrInvalidToken
	}

	return claims.Username, nil
}

// AuthenticateUser is the HTTP middleware gating the note routes.
// It extracts the bearer token from the Authorization header, verifies it,
// and stores the username in the request context. Missing, malformed and
// expired tokens all answer 401 before any storage access happens.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := getBearerToken(request)
		if err != nil {
			writeUnauthorized(response)
			return
		}

		username, err := a.GetUsernameFromToken(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.GetUsernameFromToken()`: ", zap.Error(err))
			writeUnauthorized(response)
			return
		}

		ctx := context.WithValue(request.Context(), UsernameKey, username)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

// GetUsername retrieves the authenticated username bound by AuthenticateUser.
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok && username != ""
}

func getBearerToken(request *http.Request) (string, error) {
	authHeader := request.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

func writeUnauthorized(response http.ResponseWriter) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(response).Encode(models.ErrorResponse{Error: "Unauthorized."})
}
