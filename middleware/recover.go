package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/neutronx-labs/neutronx"
)

// ErrorTrapConfig configures the error-trap middleware (§4.4 "Error
// trap").
type ErrorTrapConfig struct {
	// Debug includes a stack trace in the 500 body when true (§6
	// "or, if configured, Internal Server Error: <msg>\n\n<trace>").
	Debug bool
}

// ErrorTrap recovers panics and converts a returned error into the
// canonical response: ErrMalformedBody/ErrPayloadTooLarge become 400/413,
// anything else becomes 500 with a generic body (a stack trace appended
// in Debug mode).
func ErrorTrap(cfg ErrorTrapConfig) neutronx.Middleware {
	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (resp neutronx.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = errorResponse(cfg, fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
					err = nil
				}
			}()

			resp, err = next(req)
			if err == nil {
				return resp, nil
			}

			return errorResponse(cfg, err), nil
		}
	}
}

func errorResponse(cfg ErrorTrapConfig, err error) neutronx.Response {
	switch {
	case errors.Is(err, neutronx.ErrMalformedBody):
		return neutronx.NewBadRequestResponse(err.Error())
	case errors.Is(err, neutronx.ErrPayloadTooLarge):
		return neutronx.NewErrorResponse(413, err.Error())
	}

	if cfg.Debug {
		return neutronx.NewInternalServerErrorResponse(
			fmt.Sprintf("Internal Server Error: %s", err.Error()),
		)
	}

	return neutronx.NewInternalServerErrorResponse("Internal Server Error")
}
