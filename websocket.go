package neutronx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// upgrader is shared across all upgrades; origin checking is left to
// application-installed middleware (auth/CORS run ahead of upgrade in the
// composed pipeline), matching the teacher's permissive default.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Session wraps a single upgraded WebSocket connection (§3 "WebSocket
// session"): the socket, the originating Request (read-only), and the
// params/query observed at match time. It lives as long as the socket is
// open and is closed by handler completion or error (§4.8).
type Session struct {
	conn    *websocket.Conn
	Request Request
	Params  map[string]string
	Query   map[string]string
}

// isWebSocketUpgrade reports whether r carries the headers RFC 6455
// requires for a handshake (§4.7 "discriminate a WebSocket upgrade").
func isWebSocketUpgrade(h Headers) bool {
	return strings.EqualFold(h.Get(HeaderUpgrade), "websocket") &&
		h.Get(HeaderSecWebSocketVer) != ""
}

// ReadMessage blocks for the next text or binary frame, returning its
// payload and gorilla's message type constant.
func (s *Session) ReadMessage() (messageType int, payload []byte, err error) {
	return s.conn.ReadMessage()
}

// SendText writes a UTF-8 text frame.
func (s *Session) SendText(text string) error {
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// SendJSON UTF-8 JSON-encodes v and writes it as a text frame (§4.8
// "send-json (UTF-8 JSON encode)").
func (s *Session) SendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

// CloseWithCode sends a close frame carrying statusCode and reason, then
// closes the underlying connection.
func (s *Session) CloseWithCode(statusCode int, reason string) error {
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(statusCode, reason))
	return s.conn.Close()
}

// CloseWithError closes the session with the RFC 6455 protocol-error code
// and err's text as the close reason (§4.8 "A handler-thrown failure
// closes the socket with protocolError").
func (s *Session) CloseWithError(err error) error {
	return s.CloseWithCode(websocket.CloseProtocolError, err.Error())
}

// Close closes the session without sending a close frame.
func (s *Session) Close() error {
	return s.conn.Close()
}

// upgrade performs the RFC 6455 handshake over an *http.ResponseWriter/
// *http.Request pair (the acceptor's transport), returning a Session
// bound to req with params/query merged by the caller.
func upgrade(w http.ResponseWriter, r *http.Request, req Request, params map[string]string) (*Session, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	return &Session{
		conn:    conn,
		Request: req,
		Params:  params,
		Query:   req.Query,
	}, nil
}
