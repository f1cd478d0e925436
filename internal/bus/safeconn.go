package bus

import (
	"sync"

	"github.com/gorilla/websocket"
)

// SafeConn wraps a WebSocket connection with a write mutex, so concurrent
// request handlers can reply without interleaving frames.
type SafeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// NewSafeConn wraps conn.
func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// WriteJSON safely writes JSON to the connection. Writes after Close are
// silently dropped.
func (sc *SafeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	return sc.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (sc *SafeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}
