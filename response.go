package neutronx

import (
	"encoding/json"
	"io"
)

// bodyKind is the closed two-case variant discriminating a Response's body
// (§3, §9 "dynamic dispatch -> tagged variants"): either fully buffered, or
// a restartable-once stream of chunks. Never both.
type bodyKind uint8

const (
	bodyEmpty bodyKind = iota
	bodyBuffered
	bodyStream
)

// Response is an immutable HTTP response value (§3). Handlers and
// middleware produce Responses via the factories below or CopyWith;
// the writer (App.ServeHTTP) consumes exactly one Response per request.
type Response struct {
	StatusCode int
	Headers    Headers
	Cookies    []Cookie

	kind     bodyKind
	buffered []byte
	stream   io.Reader
}

// ResponseOverrides names the fields CopyWith may replace; a zero value
// for a field preserves the receiver's existing value (§4.1 copyWith).
type ResponseOverrides struct {
	StatusCode int
	Headers    Headers
	Body       []byte
	Stream     io.Reader
}

// CopyWith returns a copy of r with the given fields overridden.
func (r Response) CopyWith(o ResponseOverrides) Response {
	if o.StatusCode != 0 {
		r.StatusCode = o.StatusCode
	}
	if o.Headers != nil {
		r.Headers = o.Headers
	}
	if o.Body != nil {
		r.kind = bodyBuffered
		r.buffered = o.Body
		r.stream = nil
	}
	if o.Stream != nil {
		r.kind = bodyStream
		r.stream = o.Stream
		r.buffered = nil
	}
	return r
}

// WithHeaders merges other into r's headers, other's values overriding
// r's (§4.1: "withHeaders merges (new overrides old)").
func (r Response) WithHeaders(other Headers) Response {
	r.Headers = r.Headers.Merge(other)
	return r
}

// WithStatus returns a copy of r with StatusCode replaced.
func (r Response) WithStatus(status int) Response {
	r.StatusCode = status
	return r
}

// WithCookie returns a copy of r with c appended to its outgoing cookies,
// emitted as a separate Set-Cookie header per entry on write (§4.1).
func (r Response) WithCookie(c Cookie) Response {
	cookies := make([]Cookie, len(r.Cookies), len(r.Cookies)+1)
	copy(cookies, r.Cookies)
	r.Cookies = append(cookies, c)
	return r
}

// Body returns the buffered body bytes, or nil if the response streams or
// is empty.
func (r Response) Body() []byte {
	if r.kind != bodyBuffered {
		return nil
	}
	return r.buffered
}

// Stream returns the response's stream source, or nil if it is buffered
// or empty.
func (r Response) Stream() io.Reader {
	if r.kind != bodyStream {
		return nil
	}
	return r.stream
}

// IsStream reports whether the response carries a stream body rather than
// a buffered one.
func (r Response) IsStream() bool {
	return r.kind == bodyStream
}

func baseHeaders(contentType string) Headers {
	h := NewHeaders()
	if contentType != "" {
		h.Set(HeaderContentType, contentType)
	}
	return h
}

// NewTextResponse builds a 200 response with canonical text/plain content
// type (§4.1).
func NewTextResponse(s string) Response {
	return Response{
		StatusCode: 200,
		Headers:    baseHeaders(MIMETextPlain),
		kind:       bodyBuffered,
		buffered:   []byte(s),
	}
}

// NewJSONResponse builds a 200 response, JSON-encoding v with canonical
// application/json content type.
func NewJSONResponse(v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		return NewErrorResponse(500, "failed to encode response body")
	}

	return Response{
		StatusCode: 200,
		Headers:    baseHeaders(MIMEApplicationJSON),
		kind:       bodyBuffered,
		buffered:   b,
	}
}

// NewHTMLResponse builds a 200 response with canonical text/html content
// type.
func NewHTMLResponse(html string) Response {
	return Response{
		StatusCode: 200,
		Headers:    baseHeaders(MIMETextHTML),
		kind:       bodyBuffered,
		buffered:   []byte(html),
	}
}

// NewBytesResponse builds a 200 response with the given bytes, defaulting
// to application/octet-stream unless contentType overrides it.
func NewBytesResponse(b []byte, contentType string) Response {
	if contentType == "" {
		contentType = MIMEOctetStream
	}

	return Response{
		StatusCode: 200,
		Headers:    baseHeaders(contentType),
		kind:       bodyBuffered,
		buffered:   b,
	}
}

// NewRedirectResponse builds a response carrying the Location header for
// the given status (typically 301/302/303/307/308).
func NewRedirectResponse(status int, location string) Response {
	h := NewHeaders()
	h.Set(HeaderLocation, location)

	return Response{
		StatusCode: status,
		Headers:    h,
		kind:       bodyEmpty,
	}
}

// NewEmptyResponse builds a bodyless 204 response.
func NewEmptyResponse() Response {
	return Response{
		StatusCode: 204,
		Headers:    NewHeaders(),
		kind:       bodyEmpty,
	}
}

// NewStreamResponse builds a response whose body is supplied unbuffered
// from r.
func NewStreamResponse(contentType string, r io.Reader) Response {
	return Response{
		StatusCode: 200,
		Headers:    baseHeaders(contentType),
		kind:       bodyStream,
		stream:     r,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// NewErrorResponse builds a JSON {"error": message} response at status.
func NewErrorResponse(status int, message string) Response {
	b, _ := json.Marshal(errorBody{Error: message})
	return Response{
		StatusCode: status,
		Headers:    baseHeaders(MIMEApplicationJSON),
		kind:       bodyBuffered,
		buffered:   b,
	}
}

// NewNotFoundResponse builds the canonical 404 response for a route miss
// (§6).
func NewNotFoundResponse(method, path string) Response {
	return NewErrorResponse(404, "Route not found: "+method+" "+path)
}

// NewBadRequestResponse builds a 400 {"error": message} response.
func NewBadRequestResponse(message string) Response {
	return NewErrorResponse(400, message)
}

// NewUnauthorizedResponse builds a 401 {"error": message} response.
func NewUnauthorizedResponse(message string) Response {
	return NewErrorResponse(401, message)
}

// NewForbiddenResponse builds a 403 {"error": message} response.
func NewForbiddenResponse(message string) Response {
	return NewErrorResponse(403, message)
}

// NewInternalServerErrorResponse builds a 500 {"error": message} response.
func NewInternalServerErrorResponse(message string) Response {
	return NewErrorResponse(500, message)
}
