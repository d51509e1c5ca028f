package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neutronx-labs/neutronx"
)

func TestCORSAnswersOptionsWithoutCallingNext(t *testing.T) {
	called := false
	h := CORS(CORSConfig{AllowOrigins: []string{"*"}})(func(neutronx.Request) (neutronx.Response, error) {
		called = true
		return neutronx.NewTextResponse("unreachable"), nil
	})

	resp, err := h(neutronx.NewTestRequest("OPTIONS", "/x", nil))
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers.Get("access-control-allow-origin"))
}

func TestCORSAppliesHeadersToNonOptionsResponses(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:     []string{"https://example.com"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization"},
		AllowCredentials: true,
	})(func(neutronx.Request) (neutronx.Response, error) {
		return neutronx.NewTextResponse("ok"), nil
	})

	resp, err := h(neutronx.NewTestRequest("GET", "/x", nil))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", resp.Headers.Get("access-control-allow-origin"))
	assert.Equal(t, "GET,POST", resp.Headers.Get("access-control-allow-methods"))
	assert.Equal(t, "Authorization", resp.Headers.Get("access-control-allow-headers"))
	assert.Equal(t, "true", resp.Headers.Get("access-control-allow-credentials"))
}
