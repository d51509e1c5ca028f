package neutronx

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Cookie is an outgoing Set-Cookie entry attached to a Response via
// Response.WithCookie (§4.1).
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HTTPOnly bool
}

// String renders c as a single Set-Cookie header value per RFC 6265,
// dropping attributes that don't apply (no Path, no Domain, MaxAge == 0)
// and stripping any byte a given attribute doesn't allow rather than
// rejecting the whole cookie. Returns "" if c.Name isn't a valid cookie
// token.
func (c Cookie) String() string {
	if !isCookieToken(c.Name) {
		return ""
	}

	var b strings.Builder

	name := strings.NewReplacer("\r", "-", "\n", "-").Replace(c.Name)
	value := stripInvalid(c.Value, isCookieValueByte)
	if strings.ContainsAny(value, " ,") {
		value = `"` + value + `"`
	}

	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)

	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(stripInvalid(c.Path, func(r byte) bool {
			return r >= 0x20 && r < 0x7f && r != ';'
		}))
	}

	if domain, ok := canonicalCookieDomain(c.Domain); ok {
		b.WriteString("; Domain=")
		b.WriteString(domain)
	}

	if c.Expires.Year() >= 1601 {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(http1TimeFormat))
	}

	switch {
	case c.MaxAge > 0:
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	case c.MaxAge < 0:
		b.WriteString("; Max-Age=0")
	}

	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if c.Secure {
		b.WriteString("; Secure")
	}

	return b.String()
}

// http1TimeFormat is the RFC 1123 variant RFC 6265 mandates for the
// cookie Expires attribute, spelled out rather than imported from
// net/http so cookie.go has no dependency on the server package.
const http1TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

const cookieTokenChars = "!#$%&'*+-.0123456789ABCDEFGHIJKLMNOPQRSTUWVXYZ^_`abcdefghijklmnopqrstuvwxyz|~"

// isCookieToken reports whether n is usable as a cookie-name token.
func isCookieToken(n string) bool {
	if n == "" {
		return false
	}
	return strings.IndexFunc(n, func(r rune) bool {
		return !strings.ContainsRune(cookieTokenChars, r)
	}) < 0
}

// isCookieValueByte reports whether b may appear unescaped in a cookie
// value per RFC 6265 cookie-octet.
func isCookieValueByte(b byte) bool {
	return b >= 0x20 && b < 0x7f && b != '"' && b != ';' && b != '\\'
}

// stripInvalid returns s unchanged if every byte satisfies valid, or a
// copy with the invalid bytes dropped otherwise.
func stripInvalid(s string, valid func(byte) bool) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if !valid(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if b := s[i]; valid(b) {
			out = append(out, b)
		}
	}
	return string(out)
}

// canonicalCookieDomain validates d as a cookie Domain attribute and
// returns it with any leading dot stripped, per RFC 6265 §5.1.3 (a
// leading dot is accepted on input but never re-emitted).
func canonicalCookieDomain(d string) (string, bool) {
	if len(d) == 0 || len(d) > 255 {
		return "", false
	}

	if ip := net.ParseIP(d); ip != nil && !strings.Contains(d, ":") {
		return d, true
	}

	if d[0] == '.' {
		d = d[1:]
	}
	trimmed := d

	sawLetter := false
	last := byte('.')
	runLen := 0
	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			sawLetter = true
			runLen++
		case c >= '0' && c <= '9':
			runLen++
		case c == '-':
			if last == '.' {
				return "", false
			}
			runLen++
		case c == '.':
			if last == '.' || last == '-' {
				return "", false
			}
			if runLen == 0 || runLen > 63 {
				return "", false
			}
			runLen = 0
		default:
			return "", false
		}
		last = c
	}

	if last == '-' || runLen > 63 || !sawLetter {
		return "", false
	}

	return trimmed, true
}
