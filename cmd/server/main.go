package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/latosol/latosol/cmd/server/internal/commands"
	"github.com/latosol/latosol/internal/config"
)

var (
	version = "dev"
	cli     struct {
		Dev     bool              `help:"Enable development mode (console logs, debug level)." env:"LATOSOL_DEV"`
		Config  kong.ConfigFlag   `help:"Load flag values from a YAML file." type:"path"`
		Version kong.VersionFlag  `help:"Print the version and exit."`
		Serve   commands.ServeCmd `cmd:"" default:"withargs" help:"Serve TLS connections"`
		Certs   commands.CertsCmd `cmd:"" help:"Generate a development credential directory"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("latosol"),
		kong.Description("TLS connection server."),
		kong.Configuration(config.YAML, "/etc/latosol/config.yaml"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Dev: cli.Dev, Version: version})
	cmd.FatalIfErrorf(err)
}
