package neutronx

import (
	"fmt"
	"sort"
	"strings"
)

// Handler serves a matched, immutable Request and produces an immutable
// Response (§3 data flow).
type Handler func(Request) (Response, error)

// Middleware wraps a downstream Handler with an upstream Handler (§4.4).
// The first Middleware in a declared list is outermost.
type Middleware func(Handler) Handler

// WebSocketHandler serves an upgraded WebSocket Session (§4.8).
type WebSocketHandler func(*Session) error

const wildcardMethod = "*"

// routeNode is a segment-trie node (§3 "Router trie node"): a bag of
// static children keyed by token, at most one parameter child, and a
// method table on the owning leaf.
type routeNode struct {
	static    map[string]*routeNode
	param     *routeNode
	paramName string
	handlers  map[string]Handler
}

func newRouteNode() *routeNode {
	return &routeNode{static: map[string]*routeNode{}, handlers: map[string]Handler{}}
}

type routeRecord struct {
	method  string
	pattern string
}

type mountEntry struct {
	prefix string
	router *Router
}

// wsNode mirrors routeNode but carries a single handler per leaf instead
// of a method table (§4.3 "WebSocket sub-router").
type wsNode struct {
	static    map[string]*wsNode
	param     *wsNode
	paramName string
	handler   WebSocketHandler
	pattern   string
}

func newWSNode() *wsNode {
	return &wsNode{static: map[string]*wsNode{}}
}

// Router is a segment trie for HTTP routes with a parallel WebSocket trie
// and an ordered list of mounted sub-routers (§4.3).
type Router struct {
	root   *routeNode
	routes []routeRecord

	wsRoot   *wsNode
	wsRoutes []string

	mounts []mountEntry
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{root: newRouteNode(), wsRoot: newWSNode()}
}

// Handle registers h for method at pattern. Duplicate (method, pattern)
// registration fails with ErrAlreadyRegistered (router invariant 3).
func (rt *Router) Handle(method, pattern string, h Handler) error {
	method = strings.ToUpper(method)
	norm := normalizePath(pattern)

	for _, r := range rt.routes {
		if r.method == method && r.pattern == norm {
			return fmt.Errorf("%w: %s %s", ErrAlreadyRegistered, method, norm)
		}
	}

	n := rt.root
	for _, seg := range pathSegments(norm) {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if n.param == nil {
				n.param = newRouteNode()
				n.param.paramName = name
			}
			n = n.param
		} else {
			child, ok := n.static[seg]
			if !ok {
				child = newRouteNode()
				n.static[seg] = child
			}
			n = child
		}
	}

	if _, exists := n.handlers[method]; exists {
		return fmt.Errorf("%w: %s %s", ErrAlreadyRegistered, method, norm)
	}

	n.handlers[method] = h
	rt.routes = append(rt.routes, routeRecord{method: method, pattern: norm})

	return nil
}

// GET registers a GET route.
func (rt *Router) GET(pattern string, h Handler) error { return rt.Handle("GET", pattern, h) }

// POST registers a POST route.
func (rt *Router) POST(pattern string, h Handler) error { return rt.Handle("POST", pattern, h) }

// PUT registers a PUT route.
func (rt *Router) PUT(pattern string, h Handler) error { return rt.Handle("PUT", pattern, h) }

// PATCH registers a PATCH route.
func (rt *Router) PATCH(pattern string, h Handler) error { return rt.Handle("PATCH", pattern, h) }

// DELETE registers a DELETE route.
func (rt *Router) DELETE(pattern string, h Handler) error { return rt.Handle("DELETE", pattern, h) }

// OPTIONS registers an explicit OPTIONS handler, overriding the
// synthesized 204 (§4.3).
func (rt *Router) OPTIONS(pattern string, h Handler) error { return rt.Handle("OPTIONS", pattern, h) }

// Any registers h for every method via the wildcard method table entry
// (§3 "'*' (wildcard method) and concrete methods may coexist").
func (rt *Router) Any(pattern string, h Handler) error {
	return rt.Handle(wildcardMethod, pattern, h)
}

// HandleWebSocket registers h for the WebSocket pattern. At most one
// handler per pattern.
func (rt *Router) HandleWebSocket(pattern string, h WebSocketHandler) error {
	norm := normalizePath(pattern)

	n := rt.wsRoot
	for _, seg := range pathSegments(norm) {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if n.param == nil {
				n.param = newWSNode()
				n.param.paramName = name
			}
			n = n.param
		} else {
			child, ok := n.static[seg]
			if !ok {
				child = newWSNode()
				n.static[seg] = child
			}
			n = child
		}
	}

	if n.handler != nil {
		return fmt.Errorf("%w: WS %s", ErrAlreadyRegistered, norm)
	}

	n.handler = h
	n.pattern = norm
	rt.wsRoutes = append(rt.wsRoutes, norm)

	return nil
}

// Mount attaches sub at prefix. Matching precedence favors mounts, in
// insertion order, over the local trie (§4.3).
func (rt *Router) Mount(prefix string, sub *Router) {
	rt.mounts = append(rt.mounts, mountEntry{prefix: normalizePath(prefix), router: sub})
}

// matchResult is the outcome of descending the trie for a path, prior to
// method resolution.
type matchResult struct {
	node   *routeNode
	params map[string]string
	found  bool // true iff a leaf node was reached (may still lack the method)
}

// matchTrie performs the depth-first, static-before-parameter, backtracking
// descent of §4.3's match algorithm.
func matchTrie(root *routeNode, segs []string) matchResult {
	params := map[string]string{}

	var descend func(n *routeNode, i int) (*routeNode, bool)
	descend = func(n *routeNode, i int) (*routeNode, bool) {
		if i == len(segs) {
			if len(n.handlers) > 0 {
				return n, true
			}
			return nil, false
		}

		seg := segs[i]

		if child, ok := n.static[seg]; ok {
			if leaf, ok := descend(child, i+1); ok {
				return leaf, true
			}
		}

		if n.param != nil {
			prior, hadPrior := params[n.param.paramName]
			params[n.param.paramName] = seg
			if leaf, ok := descend(n.param, i+1); ok {
				return leaf, true
			}
			if hadPrior {
				params[n.param.paramName] = prior
			} else {
				delete(params, n.param.paramName)
			}
		}

		return nil, false
	}

	leaf, ok := descend(root, 0)
	return matchResult{node: leaf, params: params, found: ok}
}

// allowedMethods computes the Allow header value for a matched leaf
// (§4.3 "Allowed-methods computation").
func allowedMethods(handlers map[string]Handler) []string {
	set := map[string]bool{}
	hasWildcard := false

	for m := range handlers {
		if m == wildcardMethod {
			hasWildcard = true
			continue
		}
		set[m] = true
	}

	if hasWildcard {
		for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD"} {
			set[m] = true
		}
	}

	if set["GET"] {
		set["HEAD"] = true
	}

	set["OPTIONS"] = true

	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)

	return out
}

// resolution is the decided outcome of method resolution on a matched
// leaf (§4.3 "Method resolution on a matched leaf").
type resolution struct {
	handler          Handler
	params           map[string]string
	stripBody        bool // HEAD falling through GET
	synthesizeOpt    bool // OPTIONS with no explicit handler
	methodNotAllowed bool
	allow            []string
}

// Resolve matches method and path against rt, consulting mounts first (in
// insertion order) and falling back to the local trie (§4.3). It never
// falls through from the trie back to a later mount. The returned Request
// carries merged params and, when mount delegation rewrote the path, the
// original path stashed under context["_originalPath"].
func (rt *Router) Resolve(req Request) (resolution, Request, bool) {
	for _, m := range rt.mounts {
		if req.Path == m.prefix || strings.HasPrefix(req.Path, m.prefix+"/") {
			remainder := strings.TrimPrefix(req.Path, m.prefix)
			if remainder == "" {
				remainder = "/"
			}

			derived := req
			if _, ok := derived.Context["_originalPath"]; !ok {
				derived = derived.WithContext("_originalPath", req.Path)
			}
			derived = derived.WithPath(remainder)

			if res, out, ok := m.router.Resolve(derived); ok {
				return res, out, true
			}
			// Per §4.3/§9: sub-router's 404 is final, no fall-through
			// to later mounts or the local trie.
			return resolution{}, req, false
		}
	}

	segs := pathSegments(req.Path)
	mr := matchTrie(rt.root, segs)
	if !mr.found {
		return resolution{}, req, false
	}

	merged := mergeParams(req.Params, mr.params)
	req = req.WithParams(merged)

	res := resolveMethod(mr.node.handlers, req.Method)
	res.params = merged

	return res, req, true
}

func mergeParams(base, extra map[string]string) map[string]string {
	m := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func resolveMethod(handlers map[string]Handler, method string) resolution {
	if h, ok := handlers[method]; ok {
		return resolution{handler: h}
	}

	if method == "HEAD" {
		if h, ok := handlers["GET"]; ok {
			return resolution{handler: h, stripBody: true}
		}
	}

	allow := allowedMethods(handlers)

	if method == "OPTIONS" {
		return resolution{synthesizeOpt: true, allow: allow}
	}

	if h, ok := handlers[wildcardMethod]; ok {
		return resolution{handler: h}
	}

	return resolution{methodNotAllowed: true, allow: allow}
}

// matchWebSocket resolves a WebSocket path, consulting mounts (recursively)
// then the local WS trie (§4.3).
func (rt *Router) matchWebSocket(path string) (map[string]string, WebSocketHandler, string, bool) {
	for _, m := range rt.mounts {
		if path == m.prefix || strings.HasPrefix(path, m.prefix+"/") {
			remainder := strings.TrimPrefix(path, m.prefix)
			if remainder == "" {
				remainder = "/"
			}
			if params, h, norm, ok := m.router.matchWebSocket(remainder); ok {
				return params, h, norm, true
			}
			return nil, nil, "", false
		}
	}

	segs := pathSegments(path)
	params := map[string]string{}

	var descend func(n *wsNode, i int) (*wsNode, bool)
	descend = func(n *wsNode, i int) (*wsNode, bool) {
		if i == len(segs) {
			if n.handler != nil {
				return n, true
			}
			return nil, false
		}

		seg := segs[i]
		if child, ok := n.static[seg]; ok {
			if leaf, ok := descend(child, i+1); ok {
				return leaf, true
			}
		}
		if n.param != nil {
			params[n.param.paramName] = seg
			if leaf, ok := descend(n.param, i+1); ok {
				return leaf, true
			}
			delete(params, n.param.paramName)
		}
		return nil, false
	}

	leaf, ok := descend(rt.wsRoot, 0)
	if !ok {
		return nil, nil, "", false
	}

	return params, leaf.handler, leaf.pattern, true
}

// RegisteredRoutes returns human-readable "METHOD /pattern" diagnostics,
// including "WS /pattern" and "MOUNT /prefix -> [nested router]" entries,
// with HEAD suppressed when GET exists on the same pattern (§4.3).
func (rt *Router) RegisteredRoutes() []string {
	byPattern := map[string]map[string]bool{}
	var order []string

	for _, r := range rt.routes {
		if byPattern[r.pattern] == nil {
			byPattern[r.pattern] = map[string]bool{}
			order = append(order, r.pattern)
		}
		byPattern[r.pattern][r.method] = true
	}

	var out []string
	for _, p := range order {
		methods := byPattern[p]
		names := make([]string, 0, len(methods))
		for m := range methods {
			if m == "HEAD" && methods["GET"] {
				continue
			}
			names = append(names, m)
		}
		sort.Strings(names)
		for _, m := range names {
			out = append(out, m+" "+p)
		}
	}

	for _, p := range rt.wsRoutes {
		out = append(out, "WS "+p)
	}

	for _, m := range rt.mounts {
		out = append(out, "MOUNT "+m.prefix+" -> [nested router]")
	}

	return out
}
