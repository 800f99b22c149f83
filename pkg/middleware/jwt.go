package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/auth"
)

// JWTAuthenticator verifies bearer tokens and stores their claims under
// auth.ContextKey.
type JWTAuthenticator struct {
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewJWTAuthenticator(tokens *auth.TokenManager, logger *zap.Logger) *JWTAuthenticator {
	return &JWTAuthenticator{tokens: tokens, logger: logger.Named("jwt")}
}

func (a *JWTAuthenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return apperr.Unauthorized("Missing token")
		}
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return apperr.Unauthorized("Invalid token")
		}

		claims, err := a.tokens.ValidateJWT(token)
		if err != nil {
			a.logger.Debug("rejected token", zap.Error(err))
			return apperr.Unauthorized("Invalid or expired token")
		}
		c.Set(auth.ContextKey, claims)
		return next(c)
	}
}
