package neutronx

import "strings"

// Headers is a case-insensitive HTTP header mapping, keyed by lower-cased
// header name (§3 Request/Response). Multi-valued headers are joined with
// ", " at construction time (§4.1), so Headers itself only ever holds one
// string per key.
type Headers map[string]string

// NewHeaders returns an empty Headers map.
func NewHeaders() Headers {
	return Headers{}
}

// Get returns the value associated with key, or "" if absent.
//
// The key is case insensitive and canonicalized via strings.ToLower. To use
// non-canonical keys, access the map directly.
func (hs Headers) Get(key string) string {
	return hs[strings.ToLower(key)]
}

// Set sets the entry associated with key to value.
func (hs Headers) Set(key, value string) {
	hs[strings.ToLower(key)] = value
}

// Contains reports whether key is present, distinguishing an explicitly
// set empty value from an absent header.
func (hs Headers) Contains(key string) bool {
	_, ok := hs[strings.ToLower(key)]
	return ok
}

// Delete removes the entry associated with key.
func (hs Headers) Delete(key string) {
	delete(hs, strings.ToLower(key))
}

// Clone returns a shallow copy of hs, safe to mutate independently.
func (hs Headers) Clone() Headers {
	if hs == nil {
		return Headers{}
	}

	c := make(Headers, len(hs))
	for k, v := range hs {
		c[k] = v
	}

	return c
}

// Merge returns a new Headers containing hs's entries overridden by
// other's (§4.1 withHeaders: "new overrides old").
func (hs Headers) Merge(other Headers) Headers {
	m := hs.Clone()
	for k, v := range other {
		m[k] = v
	}
	return m
}

// Canonical HTTP header names used throughout the engine and its
// middleware stdlib.
const (
	HeaderContentType        = "content-type"
	HeaderContentLength      = "content-length"
	HeaderLocation           = "location"
	HeaderAllow              = "allow"
	HeaderRetryAfter         = "retry-after"
	HeaderAuthorization      = "authorization"
	HeaderOrigin             = "origin"
	HeaderVary               = "vary"
	HeaderXRequestID         = "x-request-id"
	HeaderXFrameOptions      = "x-frame-options"
	HeaderXContentTypeOpts   = "x-content-type-options"
	HeaderReferrerPolicy     = "referrer-policy"
	HeaderPermissionsPolicy  = "permissions-policy"
	HeaderXXSSProtection     = "x-xss-protection"
	HeaderUpgrade            = "upgrade"
	HeaderConnection         = "connection"
	HeaderSecWebSocketVer    = "sec-websocket-version"
)

// MIME types produced by the Response factories (§4.1).
const (
	MIMETextPlain       = "text/plain; charset=utf-8"
	MIMEApplicationJSON = "application/json; charset=utf-8"
	MIMETextHTML        = "text/html; charset=utf-8"
	MIMEOctetStream     = "application/octet-stream"
)
