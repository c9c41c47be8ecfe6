package handler

import (
	"errors"
	"strings"

	"catalog/internal/rbac/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderUserID carries the caller when a trusted gateway has authenticated it
	HeaderUserID = "x-user-id"

	callerIDKey = "caller_id"
)

var errInvalidToken = errors.New("invalid or expired token")

func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)
		return next(c)
	}
}

type AuthConfig struct {
	// JWTSecret verifies HMAC-signed bearer tokens; the subject is the principal id
	JWTSecret string
	// TrustUserHeader accepts the x-user-id header when no bearer token is sent
	TrustUserHeader bool
}

// AuthMiddleware resolves the caller id and stores it on the context. Requests
// without credentials continue anonymously; the RBAC middleware and the
// services reject them where a principal is required.
func AuthMiddleware(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && cfg.JWTSecret != "" {
				subject, err := verifyToken(strings.TrimSpace(token), cfg.JWTSecret)
				if err != nil {
					status, body := httpError(c, apperrors.ErrUnauthenticated)
					body.Error.Message = err.Error()
					return c.JSON(status, body)
				}
				c.Set(callerIDKey, subject)
				return next(c)
			}

			if cfg.TrustUserHeader {
				if id := strings.TrimSpace(c.Request().Header.Get(HeaderUserID)); id != "" {
					c.Set(callerIDKey, id)
				}
			}
			return next(c)
		}
	}
}

func verifyToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errInvalidToken
	}
	return subject, nil
}

// CallerID returns the authenticated principal id, or "" for anonymous requests.
func CallerID(c echo.Context) string {
	id, _ := c.Get(callerIDKey).(string)
	return id
}

func extractCallerID(c echo.Context) (string, error) {
	callerID := CallerID(c)
	if callerID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return callerID, nil
}
