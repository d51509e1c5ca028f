// Package neutronx implements an embeddable HTTP/WebSocket service runtime.
package neutronx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// App is the top-level orchestrator (§4.7): it owns the DI container, the
// root Router, the composed Handler, and the registered modules/plugins,
// and drives the socket acceptor via http.Server.
//
// It is highly recommended not to modify an App's Config after calling
// Boot, which will cause unpredictable behavior. New instances are only
// created via New.
type App struct {
	Config    *Config
	Container *Container
	Router    *Router
	Log       Logger

	modules []*Module
	plugins []*Plugin

	handler Handler
	server  *http.Server

	shuttingDown atomic.Bool
	bootOnce     sync.Once
	bootErr      error

	moduleOrder []*Module
	pluginOrder []*Plugin
}

// New returns a new App wired from cfg: a fresh Container and root Router,
// and a Logger built per §A.1 off cfg.DebugMode. If cfg is nil,
// DefaultConfig is used.
func New(cfg *Config) *App {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &App{
		Config:    cfg,
		Container: NewContainer(),
		Router:    NewRouter(),
		Log:       newLogger(cfg.DebugMode),
	}
}

// UseModules registers modules to be validated and booted by Boot, in the
// given declared order (§4.5).
func (a *App) UseModules(modules ...*Module) {
	a.modules = append(a.modules, modules...)
}

// UsePlugins registers plugins to be booted, in declaration order, after
// all modules (§4.6).
func (a *App) UsePlugins(plugins ...*Plugin) {
	a.plugins = append(a.plugins, plugins...)
}

// Boot runs the boot sequence of §4.7: validate modules, register
// modules, register plugins, compose middleware onto the root router's
// handler. It is idempotent; subsequent calls return the first result.
func (a *App) Boot(mws ...Middleware) error {
	a.bootOnce.Do(func() {
		if err := ValidateModules(a.modules); err != nil {
			a.bootErr = err
			return
		}

		order, err := RegisterModules(a.modules, a.Container, a.Router, a.Config)
		a.moduleOrder = order
		if err != nil {
			a.bootErr = err
			return
		}

		pluginOrder, err := RegisterPlugins(a.plugins, a.Container, a.Router, a.Config)
		a.pluginOrder = pluginOrder
		if err != nil {
			a.bootErr = err
			return
		}

		base := a.dispatch
		if len(mws) > 0 {
			a.handler = Compose(mws...)(base)
		} else {
			a.handler = base
		}
	})

	return a.bootErr
}

// dispatch resolves req against the root router and produces a Response
// per §4.3's method-resolution policy; it never returns an error itself
// except for an explicit handler failure (surfaced to the caller for the
// error-trap middleware, or the ServeHTTP fallback, to translate to 500).
func (a *App) dispatch(req Request) (Response, error) {
	res, matched, ok := a.Router.Resolve(req)
	if !ok {
		return NewNotFoundResponse(req.Method, req.Path), nil
	}

	if res.methodNotAllowed {
		resp := NewErrorResponse(405, fmt.Sprintf("Method %s not allowed", req.Method))
		resp.Headers.Set(HeaderAllow, joinComma(res.allow))
		return resp, nil
	}

	if res.synthesizeOpt {
		resp := NewEmptyResponse().WithStatus(204)
		resp.Headers.Set(HeaderAllow, joinComma(res.allow))
		return resp, nil
	}

	resp, err := res.handler(matched)
	if err != nil {
		return Response{}, err
	}

	if res.stripBody {
		resp = resp.CopyWith(ResponseOverrides{Body: []byte{}})
	}

	return resp, nil
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// ListenAndServe binds the acceptor at Config.Addr and serves until
// Shutdown is called or an unrecoverable error occurs (§4.7 step 5-6).
func (a *App) ListenAndServe() error {
	if err := a.Boot(); err != nil {
		return err
	}

	a.server = &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           http.HandlerFunc(a.serveHTTP),
		ReadTimeout:       a.Config.ReadTimeout,
		WriteTimeout:      a.Config.WriteTimeout,
		ReadHeaderTimeout: a.Config.ReadHeaderTimeout,
		IdleTimeout:       a.Config.IdleTimeout,
	}

	if a.Config.SecurityContext != nil {
		return a.server.ListenAndServeTLS(
			a.Config.SecurityContext.CertFile,
			a.Config.SecurityContext.KeyFile,
		)
	}

	return a.server.ListenAndServe()
}

// serveHTTP is the per-connection dispatch of §4.7: discriminate a
// WebSocket upgrade, otherwise build the Request honoring the body-size
// cap, invoke the composed handler, and write the Response.
func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	headers := headersFromHTTP(r.Header)

	if isWebSocketUpgrade(headers) {
		a.serveWebSocket(w, r, headers)
		return
	}

	req := a.buildRequest(r, headers)

	resp, err := a.handler(req)
	if err != nil {
		a.Log.Error("unhandled failure", zap.Error(err), zap.String("path", req.Path))
		resp = NewInternalServerErrorResponse("Internal Server Error")
	}

	if writeErr := writeResponse(w, resp); writeErr != nil {
		a.Log.Error("failed writing response; closing connection", zap.Error(writeErr))
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, hjErr := hj.Hijack(); hjErr == nil {
				conn.Close()
			}
		}
	}
}

// serveWebSocket implements §4.8: match matchWebSocket(path), 404 on
// miss, build the Request with path/params rewritten, upgrade, invoke the
// handler, and close with a protocol error on handler failure.
func (a *App) serveWebSocket(w http.ResponseWriter, r *http.Request, headers Headers) {
	params, handler, normalized, ok := a.Router.matchWebSocket(normalizePath(r.URL.Path))
	if !ok {
		http.NotFound(w, r)
		return
	}

	req := a.buildRequest(r, headers)
	merged := mergeParams(req.Params, params)
	req = req.WithContext("_originalPath", req.Path)
	req = req.WithParams(merged)
	req = req.WithPath(normalized)

	sess, err := upgrade(w, r, req, merged)
	if err != nil {
		a.Log.Warn("websocket upgrade failed", zap.Error(err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := handler(sess); err != nil {
		_ = sess.CloseWithError(err)
		return
	}
}

// buildRequest adapts an *http.Request into an immutable Request,
// enforcing Config.MaxRequestBodyBytes as the lazy body's size cap
// (§4.1, §4.7 "honoring the body-size cap").
func (a *App) buildRequest(r *http.Request, headers Headers) Request {
	q := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			q[k] = vs[0]
		}
	}

	var cookies []Cookie
	for _, c := range r.Cookies() {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value})
	}

	req := Request{
		Method:     r.Method,
		URI:        r.RequestURI,
		Path:       normalizePath(r.URL.Path),
		Params:     map[string]string{},
		Query:      q,
		Headers:    headers,
		Cookies:    cookies,
		RemoteAddr: r.RemoteAddr,
		Context:    map[string]any{},
	}

	maxBytes := a.Config.MaxRequestBodyBytes

	body := &requestBody{
		read: func() ([]byte, error) {
			if maxBytes > 0 {
				return io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
			}
			return io.ReadAll(r.Body)
		},
	}
	if maxBytes > 0 {
		body.maxBytes = maxBytes
	}
	req.body = body

	return req
}

func headersFromHTTP(h http.Header) Headers {
	out := NewHeaders()
	for k, vs := range h {
		out.Set(k, joinComma(vs))
	}
	return out
}

func writeResponse(w http.ResponseWriter, resp Response) error {
	hdr := w.Header()
	for k, v := range resp.Headers {
		hdr.Set(k, v)
	}
	for _, c := range resp.Cookies {
		if s := c.String(); s != "" {
			hdr.Add("Set-Cookie", s)
		}
	}

	w.WriteHeader(resp.StatusCode)

	if resp.IsStream() {
		_, err := io.Copy(w, resp.Stream())
		return err
	}

	if b := resp.Body(); b != nil {
		_, err := w.Write(b)
		return err
	}

	return nil
}

// Shutdown is idempotent (§4.7): marks shutting-down, invokes module
// onDestroy in reverse order, disposes the container, and closes the
// acceptor, waiting up to ctx's deadline before forcing a close.
func (a *App) Shutdown(ctx context.Context) error {
	if !a.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	TeardownModules(a.moduleOrder, a.Log)
	TeardownPlugins(a.pluginOrder, a.Log)
	a.Container.Dispose()

	if a.server == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- a.server.Shutdown(ctx) }()

	select {
	case <-ctx.Done():
		_ = a.server.Close()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// RegisteredRoutes proxies Router.RegisteredRoutes for diagnostics.
func (a *App) RegisteredRoutes() []string {
	return a.Router.RegisteredRoutes()
}
