// Package greeter holds the connection handler the server runs by default.
package greeter

import (
	"context"
	"fmt"

	"github.com/latosol/latosol/internal/server"
	"github.com/rs/zerolog"
)

// Greeting is the single byte written to every peer.
const Greeting byte = 69

// Greeter writes Greeting to the peer and returns.
type Greeter struct{}

// New returns the greeting handler.
func New() *Greeter {
	return &Greeter{}
}

func (g *Greeter) Handle(ctx context.Context, conn *server.Connection) error {
	zerolog.Ctx(ctx).Info().Msg("Sending greeting")

	if _, err := conn.Write([]byte{Greeting}); err != nil {
		return fmt.Errorf("failed to write greeting: %w", err)
	}
	return nil
}
