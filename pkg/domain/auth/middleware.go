package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierr "github.com/loom-ml/loom/pkg/api/errors"
)

const claimsContextKey = "loom-token-claims"

// Middleware returns an echo middleware rejecting requests without a valid
// bearer token signed by s.
//
// Verified claims are stored in the request context and can be read back
// with [ClaimsFrom].
func Middleware(s *Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return apierr.NewErrorMessage(
					http.StatusUnauthorized,
					"bearer token is required",
				)
			}

			claims, err := s.Verify(token)
			if err != nil {
				return apierr.NewErrorMessage(
					http.StatusUnauthorized,
					"token is not accepted",
					apierr.WithError(err),
				)
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom reads the claims stored by Middleware, or nil when the request
// was not authenticated.
func ClaimsFrom(c echo.Context) *Claims {
	if claims, ok := c.Get(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}
