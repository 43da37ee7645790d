package commands

import (
	"github.com/latosol/latosol/internal/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Globals struct {
	Dev     bool
	Version string
}

// setupLogging installs the process logger as the global zerolog logger.
func setupLogging(level string, globals *Globals) zerolog.Logger {
	lg := logger.Setup(level, globals.Dev)
	log.Logger = lg
	zerolog.DefaultContextLogger = &log.Logger
	return lg
}
