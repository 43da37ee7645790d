package logger

import (
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Setup builds the process logger. Unknown or empty levels fall back to info.
func Setup(level string, dev bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if dev && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(lvl).With().Stack().Logger()
	}

	return logger
}

// ForConnection returns a child logger tagged with the connection identity.
func ForConnection(base zerolog.Logger, id uuid.UUID, peer net.Addr) zerolog.Logger {
	ctx := base.With().Str("conn_id", id.String())
	if peer != nil {
		ctx = ctx.Str("peer", peer.String())
	}
	return ctx.Logger()
}
