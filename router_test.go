package neutronx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textHandler(body string) Handler {
	return func(Request) (Response, error) {
		return NewTextResponse(body), nil
	}
}

func TestRouterRegisterAndMatchExact(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/users", textHandler("list")))

	res, req, ok := rt.Resolve(NewTestRequest("GET", "/users", nil))
	require.True(t, ok)
	require.NotNil(t, res.handler)

	resp, err := res.handler(req)
	require.NoError(t, err)
	assert.Equal(t, "list", string(resp.Body()))
}

func TestRouterRegisterDuplicateFails(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/x", textHandler("a")))

	err := rt.GET("/x", textHandler("b"))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

// Router invariant 2: static-before-parameter tie-break.
func TestRouterStaticBeforeParam(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/users/me", textHandler("me")))
	require.NoError(t, rt.GET("/users/:id", textHandler("id")))

	res, req, ok := rt.Resolve(NewTestRequest("GET", "/users/me", nil))
	require.True(t, ok)
	resp, err := res.handler(req)
	require.NoError(t, err)
	assert.Equal(t, "me", string(resp.Body()))

	res, req, ok = rt.Resolve(NewTestRequest("GET", "/users/42", nil))
	require.True(t, ok)
	assert.Equal(t, "42", req.Params["id"])
	resp, err = res.handler(req)
	require.NoError(t, err)
	assert.Equal(t, "id", string(resp.Body()))
}

// Scenario A.
func TestScenarioAPathParameter(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/users/:id", func(req Request) (Response, error) {
		return NewJSONResponse(map[string]string{"userId": req.Params["id"]}), nil
	}))

	res, req, ok := rt.Resolve(NewTestRequest("GET", "/users/42", nil))
	require.True(t, ok)

	resp, err := res.handler(req)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"userId":"42"}`, string(resp.Body()))
	assert.Equal(t, MIMEApplicationJSON, resp.Headers.Get(HeaderContentType))
}

// Scenario B.
func TestScenarioBMethodNotAllowed(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/x", textHandler("ok")))

	res, _, ok := rt.Resolve(NewTestRequest("POST", "/x", nil))
	require.True(t, ok)
	assert.True(t, res.methodNotAllowed)
	assert.Equal(t, []string{"GET", "HEAD", "OPTIONS"}, res.allow)
}

// Router invariant 4 + 5.
func TestOptionsSynthesizedAndHeadFallsThroughGet(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/x", textHandler("ok")))

	res, _, ok := rt.Resolve(NewTestRequest("OPTIONS", "/x", nil))
	require.True(t, ok)
	assert.True(t, res.synthesizeOpt)
	assert.Equal(t, []string{"GET", "HEAD", "OPTIONS"}, res.allow)

	res, req, ok := rt.Resolve(NewTestRequest("HEAD", "/x", nil))
	require.True(t, ok)
	assert.True(t, res.stripBody)
	resp, err := res.handler(req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body()))
}

// Scenario D.
func TestScenarioDNestedMount(t *testing.T) {
	api := NewRouter()
	require.NoError(t, api.GET("/users", func(req Request) (Response, error) {
		assert.Equal(t, "/users", req.Path)
		assert.Equal(t, "/api/users", req.Context["_originalPath"])
		return NewJSONResponse(map[string]any{"users": []string{}}), nil
	}))

	root := NewRouter()
	root.Mount("/api", api)

	res, req, ok := root.Resolve(NewTestRequest("GET", "/api/users", nil))
	require.True(t, ok)

	resp, err := res.handler(req)
	require.NoError(t, err)
	assert.Equal(t, `{"users":[]}`, string(resp.Body()))
}

func TestMountNoFallthroughToLocalTrie(t *testing.T) {
	api := NewRouter()
	require.NoError(t, api.GET("/known", textHandler("known")))

	root := NewRouter()
	root.Mount("/api", api)
	require.NoError(t, root.GET("/api/unknown", textHandler("should not match")))

	_, _, ok := root.Resolve(NewTestRequest("GET", "/api/unknown", nil))
	assert.False(t, ok, "a sub-router 404 must be final, no fall-through to the local trie")
}

func TestRegisteredRoutesSuppressesHeadWhenGetExists(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.GET("/x", textHandler("a")))
	require.NoError(t, rt.POST("/x", textHandler("b")))
	require.NoError(t, rt.HandleWebSocket("/ws/:room", func(*Session) error { return nil }))

	routes := rt.RegisteredRoutes()
	assert.Contains(t, routes, "GET /x")
	assert.Contains(t, routes, "POST /x")
	assert.NotContains(t, routes, "HEAD /x")
	assert.Contains(t, routes, "WS /ws/:room")
}

func TestWebSocketMatch(t *testing.T) {
	rt := NewRouter()
	require.NoError(t, rt.HandleWebSocket("/ws/:room", func(*Session) error { return nil }))

	params, h, norm, ok := rt.matchWebSocket("/ws/lobby")
	require.True(t, ok)
	assert.NotNil(t, h)
	assert.Equal(t, "lobby", params["room"])
	assert.Equal(t, "/ws/:room", norm)
}
