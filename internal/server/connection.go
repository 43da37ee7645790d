package server

import (
	"crypto/tls"
	"io"
	"net"

	"github.com/google/uuid"
)

// ConnState is the lifecycle stage of an accepted connection.
type ConnState int

const (
	StateAccepted ConnState = iota
	StateHandshaking
	StateEstablished
	StateClosed
	StateHandshakeFailed
)

func (s ConnState) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateHandshaking:
		return "handshaking"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	case StateHandshakeFailed:
		return "handshake_failed"
	default:
		return "unknown"
	}
}

var _ io.ReadWriteCloser = (*Connection)(nil)

// Connection is one established TLS session. It is owned by the goroutine
// running its handler; Read and Write go straight to the TLS stream.
type Connection struct {
	id   uuid.UUID
	peer net.Addr
	conn *tls.Conn
}

func newConnection(id uuid.UUID, peer net.Addr, conn *tls.Conn) *Connection {
	return &Connection{id: id, peer: peer, conn: conn}
}

// ID identifies the connection in log events.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// PeerAddr is the remote address captured when the socket was accepted.
func (c *Connection) PeerAddr() net.Addr {
	return c.peer
}

func (c *Connection) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

func (c *Connection) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// Close sends a close_notify alert and closes the socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ConnectionState returns the negotiated TLS parameters.
func (c *Connection) ConnectionState() tls.ConnectionState {
	return c.conn.ConnectionState()
}
