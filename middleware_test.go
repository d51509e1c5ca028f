package neutronx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario C: onion ordering. M1 wraps M2 wraps the handler, so M1 runs
// first on the way in and last on the way out.
func TestComposeAppliesOutermostFirstOnEntryAndLastOnExit(t *testing.T) {
	var order []string

	tracer := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(req Request) (Response, error) {
				order = append(order, name+":in")
				resp, err := next(req)
				order = append(order, name+":out")
				return resp, err
			}
		}
	}

	final := func(Request) (Response, error) {
		order = append(order, "handler")
		return NewEmptyResponse(), nil
	}

	h := Compose(tracer("m1"), tracer("m2"))(final)

	_, err := h(NewTestRequest("GET", "/x", nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"m1:in", "m2:in", "handler", "m2:out", "m1:out"}, order)
}

func TestComposeWithNoMiddlewareIsIdentity(t *testing.T) {
	final := func(Request) (Response, error) { return NewTextResponse("ok"), nil }

	h := Compose()(final)

	resp, err := h(NewTestRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body()))
}

func TestComposePropagatesHandlerError(t *testing.T) {
	boom := ErrCancelled

	passthrough := func(next Handler) Handler {
		return func(req Request) (Response, error) { return next(req) }
	}

	final := func(Request) (Response, error) { return Response{}, boom }

	h := Compose(passthrough)(final)

	_, err := h(NewTestRequest("GET", "/x", nil))
	assert.ErrorIs(t, err, boom)
}
