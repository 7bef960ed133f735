package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	httpHandlers "github.com/hudeditor/hudstore/internal/adapters/http"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
)

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.WithRequestID(values.RequestID).LogHTTPRequest(
				values.Method,
				values.URI,
				values.UserAgent,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
				values.Error,
			)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitEnabled {
		s.echo.Use(s.rateLimiter())
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	// The editor posts its whole state in one request
	s.echo.Use(middleware.BodyLimit(s.config.Server.BodyLimit))

	s.echo.Use(middleware.Gzip())

	// Deadline for storage calls made on behalf of a request
	if s.config.Server.HandlerTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.HandlerTimeout,
		}))
	}
}

// rateLimiter limits each client IP to RateLimitRequests per RateLimitWindow
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	security := s.config.Security
	limit := rate.Limit(float64(security.RateLimitRequests) / security.RateLimitWindow.Seconds())

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      limit,
				Burst:     security.RateLimitRequests,
				ExpiresIn: security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			s.logger.Warnw("Rate limit exceeded", "ip", identifier, "path", ctx.Request().URL.Path)
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// customErrorHandler writes every error as an ErrorResponse. In debug mode the
// internal error is appended to the message.
func customErrorHandler(logger *logger.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  = http.StatusText(http.StatusInternalServerError)
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = fmt.Sprint(he.Message)
			}
			if he.Internal != nil {
				if debug {
					msg = fmt.Sprintf("%s: %v", msg, he.Internal)
				}
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		}

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		log := logger.WithRequestID(requestID)
		switch {
		case code >= http.StatusInternalServerError:
			log.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		case code != http.StatusNotFound:
			log.Warnw("Request rejected", "status", code, "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, httpHandlers.ErrorResponse{
					Error:     msg,
					Code:      code,
					RequestID: requestID,
				})
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
