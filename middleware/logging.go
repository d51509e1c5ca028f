// Package middleware provides the standard-library middleware set named
// in §4.4: logging, CORS, error trap, auth, rate limit, request-id,
// security headers, and metrics.
package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/neutronx-labs/neutronx"
)

// Logging emits method, path, status, and elapsed milliseconds for every
// request, catching a downstream failure to log it before re-raising
// (§4.4 "Logging").
func Logging(log neutronx.Logger) neutronx.Middleware {
	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			start := time.Now()

			resp, err := next(req)
			elapsed := time.Since(start)

			if err != nil {
				log.Error("request failed",
					zap.String("method", req.Method),
					zap.String("path", req.Path),
					zap.Duration("elapsed", elapsed),
					zap.Error(err),
				)
				return resp, err
			}

			log.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("status", resp.StatusCode),
				zap.Duration("elapsed", elapsed),
			)

			return resp, nil
		}
	}
}
