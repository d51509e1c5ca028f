package middleware

import (
	"time"

	"github.com/neutronx-labs/neutronx"
)

// MetricsSink receives one call per completed response (§4.4 "Metrics").
type MetricsSink func(method, path string, status int, duration time.Duration, bodySize int)

// Metrics invokes sink with (method, path, status, duration, body-size)
// after each response.
func Metrics(sink MetricsSink) neutronx.Middleware {
	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			start := time.Now()

			resp, err := next(req)
			if err != nil {
				return resp, err
			}

			sink(req.Method, req.Path, resp.StatusCode, time.Since(start), len(resp.Body()))

			return resp, nil
		}
	}
}
