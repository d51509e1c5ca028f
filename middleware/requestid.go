package middleware

import (
	"github.com/google/uuid"

	"github.com/neutronx-labs/neutronx"
)

// RequestID copies an incoming x-request-id header or generates one via
// google/uuid, attaching it to context["request_id"] and echoing it in the
// response header (§4.4 "Request-id").
func RequestID() neutronx.Middleware {
	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			id := req.Headers.Get(neutronx.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			resp, err := next(req.WithContext("request_id", id))
			if err != nil {
				return resp, err
			}

			resp.Headers.Set(neutronx.HeaderXRequestID, id)

			return resp, nil
		}
	}
}
