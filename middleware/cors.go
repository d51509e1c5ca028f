package middleware

import (
	"strings"

	"github.com/neutronx-labs/neutronx"
)

// CORSConfig configures the CORS middleware (§4.4 "CORS").
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
}

// CORS answers OPTIONS with 204 and the configured CORS headers, and adds
// origin/methods/headers to every other response.
func CORS(cfg CORSConfig) neutronx.Middleware {
	origins := strings.Join(cfg.AllowOrigins, ",")
	methods := strings.Join(cfg.AllowMethods, ",")
	headers := strings.Join(cfg.AllowHeaders, ",")

	apply := func(h neutronx.Headers) {
		if origins != "" {
			h.Set("access-control-allow-origin", origins)
		}
		if methods != "" {
			h.Set("access-control-allow-methods", methods)
		}
		if headers != "" {
			h.Set("access-control-allow-headers", headers)
		}
		if cfg.AllowCredentials {
			h.Set("access-control-allow-credentials", "true")
		}
	}

	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			if req.Method == "OPTIONS" {
				resp := neutronx.NewEmptyResponse()
				apply(resp.Headers)
				return resp, nil
			}

			resp, err := next(req)
			if err != nil {
				return resp, err
			}

			apply(resp.Headers)

			return resp, nil
		}
	}
}
