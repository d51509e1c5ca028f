package middleware

import "github.com/neutronx-labs/neutronx"

// SecurityHeadersConfig configures the security-headers middleware
// (§4.4 "Security headers"). Empty fields fall back to the documented
// default for that header.
type SecurityHeadersConfig struct {
	FrameOptions      string
	ContentTypeNoSniff bool
	ReferrerPolicy    string
	PermissionsPolicy string
	XSSProtection     string
}

// SecurityHeaders sets x-frame-options, x-content-type-options,
// referrer-policy, permissions-policy, and x-xss-protection on every
// response.
func SecurityHeaders(cfg SecurityHeadersConfig) neutronx.Middleware {
	frameOptions := cfg.FrameOptions
	if frameOptions == "" {
		frameOptions = "DENY"
	}
	referrerPolicy := cfg.ReferrerPolicy
	if referrerPolicy == "" {
		referrerPolicy = "no-referrer"
	}
	xssProtection := cfg.XSSProtection
	if xssProtection == "" {
		xssProtection = "1; mode=block"
	}

	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			resp, err := next(req)
			if err != nil {
				return resp, err
			}

			resp.Headers.Set(neutronx.HeaderXFrameOptions, frameOptions)
			if cfg.ContentTypeNoSniff {
				resp.Headers.Set(neutronx.HeaderXContentTypeOpts, "nosniff")
			}
			resp.Headers.Set(neutronx.HeaderReferrerPolicy, referrerPolicy)
			if cfg.PermissionsPolicy != "" {
				resp.Headers.Set(neutronx.HeaderPermissionsPolicy, cfg.PermissionsPolicy)
			}
			resp.Headers.Set(neutronx.HeaderXXSSProtection, xssProtection)

			return resp, nil
		}
	}
}
