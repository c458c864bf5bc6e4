package middleware

import (
	"net/http"
	"strings"

	"schedule-board/core/constants"
	"schedule-board/core/errors"
	"schedule-board/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// AuthMiddleware validates the bearer token and stores the parsed claims in
// the echo context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrMissingAuthorizationHeader, "missing authorization header", nil))
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid authorization header format", nil))
			}

			claims, appErr := utils.ValidateAndParseToken(parts[1])
			if appErr != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, appErr)
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}
