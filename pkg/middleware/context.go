package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appctx "github.com/cuevaio/cpp-insumos/pkg/context"
)

// Context seeds the request context with the request ID and basic request
// metadata so every downstream log line can carry them.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = appctx.SetRequestID(ctx, requestID)
			ctx = appctx.SetMethod(ctx, req.Method)
			ctx = appctx.SetRoute(ctx, req.URL.Path)
			ctx = appctx.SetRemoteIP(ctx, c.RealIP())

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
