package neutronx

// RouteGroup is a thin prefix+middleware accumulator over a Router (SPEC
// C "Route groups"), grounded on the teacher's Group: registering through
// a RouteGroup composes the group's own middleware around the handler and
// prepends the group's prefix before delegating to the underlying Router.
// The module subsystem uses one internally to build each module's private
// sub-router; it is also exposed for embedders who want grouping without
// a full Module.
type RouteGroup struct {
	prefix string
	mws    []Middleware
	router *Router
}

// NewRouteGroup returns a RouteGroup rooted at prefix over router, with mws
// applied (outermost-first) to every handler registered through it.
func NewRouteGroup(router *Router, prefix string, mws ...Middleware) *RouteGroup {
	return &RouteGroup{prefix: normalizePath(prefix), mws: mws, router: router}
}

// Group returns a nested RouteGroup under g, concatenating prefixes and
// middleware (outer group's middleware run first).
func (g *RouteGroup) Group(prefix string, mws ...Middleware) *RouteGroup {
	combined := make([]Middleware, 0, len(g.mws)+len(mws))
	combined = append(combined, g.mws...)
	combined = append(combined, mws...)
	return NewRouteGroup(g.router, g.prefix+normalizePath(prefix), combined...)
}

func (g *RouteGroup) wrap(h Handler) Handler {
	if len(g.mws) == 0 {
		return h
	}
	return Compose(g.mws...)(h)
}

func (g *RouteGroup) joinPath(path string) string {
	if g.prefix == "/" {
		return normalizePath(path)
	}
	return g.prefix + normalizePath(path)
}

// GET registers a GET route under the group's prefix and middleware.
func (g *RouteGroup) GET(path string, h Handler) error {
	return g.router.GET(g.joinPath(path), g.wrap(h))
}

// POST registers a POST route under the group's prefix and middleware.
func (g *RouteGroup) POST(path string, h Handler) error {
	return g.router.POST(g.joinPath(path), g.wrap(h))
}

// PUT registers a PUT route under the group's prefix and middleware.
func (g *RouteGroup) PUT(path string, h Handler) error {
	return g.router.PUT(g.joinPath(path), g.wrap(h))
}

// PATCH registers a PATCH route under the group's prefix and middleware.
func (g *RouteGroup) PATCH(path string, h Handler) error {
	return g.router.PATCH(g.joinPath(path), g.wrap(h))
}

// DELETE registers a DELETE route under the group's prefix and middleware.
func (g *RouteGroup) DELETE(path string, h Handler) error {
	return g.router.DELETE(g.joinPath(path), g.wrap(h))
}

// Any registers h for every method under the group's prefix and middleware.
func (g *RouteGroup) Any(path string, h Handler) error {
	return g.router.Any(g.joinPath(path), g.wrap(h))
}
