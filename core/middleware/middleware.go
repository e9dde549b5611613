package middleware

import (
	"strings"
	"time"

	"smartschedule/core/constants"
	"smartschedule/core/controller"
	"smartschedule/core/errors"
	"smartschedule/core/logger"
	"smartschedule/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	jwtSecret string
	base      controller.BaseController
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{
		jwtSecret: jwtSecret,
		base:      controller.NewBaseController(),
	}
}

// AuthMiddleware verifies the bearer token and stores its claims under ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return m.base.Unauthorized(errors.ErrMissingAuthorizationHeader, "missing authorization header")
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return m.base.Unauthorized(errors.ErrInvalidTokenFormat, "authorization header must be a bearer token")
			}

			claims, err := utils.ParseToken(tokenString, m.jwtSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return m.base.Unauthorized(errors.ErrTokenExpired, "token expired")
				}
				logger.Warn("Middleware:AuthMiddleware:ParseToken", "error", err)
				return m.base.Unauthorized(errors.ErrUnauthorized, "invalid token")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// RequestID tags every request with an id, reusing the caller's X-Request-ID if present.
func (m *Middleware) RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(constants.HeaderRequestID)
			if id == "" {
				id = utils.GenerateID()
			}
			c.Set(constants.ContextRequestID, id)
			c.Response().Header().Set(constants.HeaderRequestID, id)
			return next(c)
		}
	}
}

// AccessLog writes one structured line per request.
func (m *Middleware) AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			requestID, _ := c.Get(constants.ContextRequestID).(string)
			logger.Info("HTTP:Request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency", time.Since(start),
			)
			return nil
		}
	}
}
