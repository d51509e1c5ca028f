package neutronx

import (
	"encoding/json"
	"strings"
	"sync"
)

// Request is an immutable HTTP request value (§3). It is created once per
// accepted exchange (or WebSocket upgrade) by the acceptor, passed by value
// through the middleware pipeline, and discarded after the response is
// written. Middleware that needs to change a Request produces a new value
// via With*, never mutates the fields of an existing one (§5 ordering
// guarantees).
type Request struct {
	Method     string
	URI        string
	Path       string
	Params     map[string]string
	Query      map[string]string
	Headers    Headers
	Cookies    []Cookie
	RemoteAddr string
	Context    map[string]any

	body *requestBody
}

// requestBody is the shared, lazily-populated body cache behind a family
// of Request values derived from the same wire exchange (mount delegation,
// WithContext, ...). Sharing the pointer lets every derived Request see the
// same at-most-once-read, infinitely-repeatable buffered bytes (§4.1).
type requestBody struct {
	once     sync.Once
	read     func() ([]byte, error)
	maxBytes int64

	bytes []byte
	err   error

	jsonOnce sync.Once
	jsonErr  error
}

// NewTestRequest fabricates a Request without a socket, for use in tests
// (§4.1 "a test-only constructor fabricates a Request without a socket").
func NewTestRequest(method, path string, body []byte) Request {
	method = strings.ToUpper(method)

	q := map[string]string{}
	p := path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		p = path[:i]
		for _, kv := range strings.Split(path[i+1:], "&") {
			if kv == "" {
				continue
			}
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				q[parts[0]] = parts[1]
			} else {
				q[parts[0]] = ""
			}
		}
	}

	return Request{
		Method:  method,
		URI:     path,
		Path:    normalizePath(p),
		Params:  map[string]string{},
		Query:   q,
		Headers: NewHeaders(),
		Context: map[string]any{},
		body: &requestBody{
			read: func() ([]byte, error) { return body, nil },
		},
	}
}

// WithContext returns a copy of r with key set to value in its Context
// (§4.4: middleware "produces a copy with updated context").
func (r Request) WithContext(key string, value any) Request {
	nc := make(map[string]any, len(r.Context)+1)
	for k, v := range r.Context {
		nc[k] = v
	}
	nc[key] = value
	r.Context = nc
	return r
}

// WithPath returns a copy of r with Path replaced, used by mount
// delegation and WebSocket upgrade to rewrite the matched path.
func (r Request) WithPath(path string) Request {
	r.Path = path
	return r
}

// WithParams returns a copy of r with Params replaced (merged in by the
// router at match time).
func (r Request) WithParams(params map[string]string) Request {
	r.Params = params
	return r
}

// Body returns the fully buffered request body. The first call on any
// Request sharing this body reads it from the wire (or the test fixture);
// every subsequent call, including calls on Requests derived via With*,
// returns the same cached bytes. Exceeding the configured size cap yields
// ErrPayloadTooLarge.
func (r Request) Body() ([]byte, error) {
	if r.body == nil {
		return nil, nil
	}

	r.body.once.Do(func() {
		b, err := r.body.read()
		if err != nil {
			r.body.err = err
			return
		}
		if r.body.maxBytes > 0 && int64(len(b)) > r.body.maxBytes {
			r.body.err = ErrPayloadTooLarge
			return
		}
		r.body.bytes = b
	})

	return r.body.bytes, r.body.err
}

// JSON decodes the request body as JSON into v. The first call validates
// and caches whether the body is well-formed JSON so repeat calls skip
// re-validation; a malformed body reports ErrMalformedBody on every call.
func (r Request) JSON(v any) error {
	if r.body == nil {
		return ErrMalformedBody
	}

	b, err := r.Body()
	if err != nil {
		return err
	}

	r.body.jsonOnce.Do(func() {
		if !json.Valid(b) {
			r.body.jsonErr = ErrMalformedBody
		}
	})

	if r.body.jsonErr != nil {
		return r.body.jsonErr
	}

	if err := json.Unmarshal(b, v); err != nil {
		return ErrMalformedBody
	}

	return nil
}

// normalizePath applies §4.3 path normalization: prepend "/" if absent,
// strip a single trailing "/" unless the path is exactly "/".
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	if p != "/" && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// pathSegments splits a normalized path into its non-empty segments
// (§4.3: "drop empty segments").
func pathSegments(p string) []string {
	parts := strings.Split(p, "/")
	segs := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
