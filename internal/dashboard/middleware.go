package dashboard

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"BandSentinel/internal/logger"

	"github.com/labstack/echo/v4"
)

// recovery turns handler panics into a 500 response.
func recovery(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("http handler panic",
						logger.String("path", c.Request().URL.Path),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", r))
				}
			}()
			return next(c)
		}
	}
}

// requestLogging logs each request at debug level.
func requestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Debug("http request",
				logger.String("method", c.Request().Method),
				logger.String("uri", c.Request().RequestURI),
				logger.Int("status", c.Response().Status),
				logger.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}
