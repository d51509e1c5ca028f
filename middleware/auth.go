package middleware

import (
	"strings"

	"github.com/neutronx-labs/neutronx"
)

// TokenValidator validates a bearer token and returns the principal to
// stash under context["user"], or an error to fail the request with 401
// (§4.4 "Auth").
type TokenValidator func(token string) (any, error)

// Auth extracts a bearer token from the Authorization header, invokes
// validate, and stashes the principal under context["user"]; a missing
// header or a failed validation responds 401, grounded on the same
// Authorization-header Bearer-prefix parsing the pack's JWT middleware
// uses.
func Auth(validate TokenValidator) neutronx.Middleware {
	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			header := req.Headers.Get(neutronx.HeaderAuthorization)
			if header == "" {
				return neutronx.NewUnauthorizedResponse("missing authorization header"), nil
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return neutronx.NewUnauthorizedResponse("malformed authorization header"), nil
			}

			user, err := validate(parts[1])
			if err != nil {
				return neutronx.NewUnauthorizedResponse("invalid token"), nil
			}

			return next(req.WithContext("user", user))
		}
	}
}
