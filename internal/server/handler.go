package server

import (
	"context"
)

// Handler processes one established connection. Handle is called once per
// connection, concurrently across connections, and the connection is closed
// when it returns. A non-nil error is logged against the peer address.
type Handler interface {
	Handle(ctx context.Context, conn *Connection) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, conn *Connection) error

func (f HandlerFunc) Handle(ctx context.Context, conn *Connection) error {
	return f(ctx, conn)
}
