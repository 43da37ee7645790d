package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/latosol/latosol/internal/greeter"
	"github.com/latosol/latosol/internal/pki"
	"github.com/latosol/latosol/internal/server"
	"github.com/latosol/latosol/internal/store"
	memorystore "github.com/latosol/latosol/internal/store/memory"
	postgresstore "github.com/latosol/latosol/internal/store/postgres"
	"github.com/latosol/latosol/internal/telemetry"
	"github.com/latosol/latosol/internal/tlsconf"
	"github.com/rs/zerolog/log"
)

type ServeCmd struct {
	// Listener configuration
	Host             string        `help:"address to bind" default:"::1" env:"LATOSOL_HOST"`
	Port             uint16        `help:"TCP port to listen on" default:"6969" env:"LATOSOL_PORT"`
	HandshakeTimeout time.Duration `help:"maximum time to complete a TLS handshake (0 disables)" default:"30s" env:"LATOSOL_HANDSHAKE_TIMEOUT"`

	// Credential sources
	TLSConfDir     string        `name:"tls-conf-dir" help:"directory holding the PEM certificate chain and private key" env:"LATOSOL_TLS_CONF_DIR"`
	TLSSSMPath     string        `name:"tls-ssm-path" help:"SSM parameter path holding the PEM certificate chain and private key" env:"LATOSOL_TLS_SSM_PATH"`
	RotationWindow time.Duration `help:"warn when the leaf certificate expires within this window" default:"720h" env:"LATOSOL_CERT_ROTATION_WINDOW"`

	// Operational
	LogLevel  string `help:"log level (trace, debug, info, warn, error)" default:"info" env:"LATOSOL_LOG"`
	Telemetry bool   `help:"export traces and metrics over OTLP" default:"false" env:"LATOSOL_TELEMETRY"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"LATOSOL_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	ready func(addr net.Addr)
}

type PostgresStoreFlags struct {
	ConnString  string `help:"PostgreSQL connection string" env:"LATOSOL_POSTGRES_URI"`
	MaxConns    int32  `help:"maximum number of connections in pool" default:"10" env:"LATOSOL_DB_MAX_CONNS"`
	AutoMigrate bool   `help:"run database migrations on startup" default:"false" env:"LATOSOL_POSTGRES_AUTO_MIGRATE"`
}

func (c *ServeCmd) Validate() error {
	switch {
	case c.TLSConfDir == "" && c.TLSSSMPath == "":
		return errors.New("a credential source is required (--tls-conf-dir or --tls-ssm-path)")
	case c.TLSConfDir != "" && c.TLSSSMPath != "":
		return errors.New("--tls-conf-dir and --tls-ssm-path are mutually exclusive")
	}

	if c.StoreType == "postgres" && c.PostgresStore.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or LATOSOL_POSTGRES_URI)")
	}

	return nil
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(c.LogLevel, globals)

	log.Info().Str("version", globals.Version).Bool("dev", globals.Dev).Msg("Starting server")

	if c.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, "latosol", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	creds, err := c.loadCredentials(ctx)
	if err != nil {
		return err
	}
	c.checkCredentials(ctx, creds)

	assets, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer assets.Close()

	srv, err := server.Bind(server.Config{
		Host:             c.Host,
		Port:             c.Port,
		HandshakeTimeout: c.HandshakeTimeout,
	}, creds)
	if err != nil {
		return err
	}

	if c.ready != nil {
		c.ready(srv.Addr())
	}

	return srv.Listen(ctx, greeter.New())
}

func (c *ServeCmd) loadCredentials(ctx context.Context) (*tlsconf.Credentials, error) {
	if c.TLSSSMPath != "" {
		log.Info().Str("path", c.TLSSSMPath).Msg("Loading TLS credentials from SSM")

		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		return tlsconf.LoadSSM(ctx, ssm.NewFromConfig(cfg), c.TLSSSMPath)
	}

	log.Info().Str("dir", c.TLSConfDir).Msg("Loading TLS credentials from directory")

	return tlsconf.LoadDir(c.TLSConfDir)
}

// checkCredentials reports the leaf certificate's validity window. Expiry is
// only logged; Bind rejects credentials that cannot be used at all.
func (c *ServeCmd) checkCredentials(ctx context.Context, creds *tlsconf.Credentials) {
	telemetry.GetMetrics().CredentialCertificates.Record(ctx, int64(len(creds.Chain())))

	leaf, err := creds.Leaf()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse leaf certificate")
		return
	}

	v := pki.ValidateCertificate(leaf, time.Now(), c.RotationWindow)

	ev := log.Info()
	switch {
	case v.Expired:
		ev = log.Error()
	case v.NotYetValid, v.ShouldRotate:
		ev = log.Warn()
	}

	ev.Str("subject", leaf.Subject.String()).
		Str("fingerprint", tlsconf.Fingerprint(leaf.Raw)).
		Time("not_after", v.NotAfter).
		Int("days_remaining", v.DaysRemaining).
		Bool("expired", v.Expired).
		Bool("not_yet_valid", v.NotYetValid).
		Msg("Loaded TLS credentials")
}

func (c *ServeCmd) openStore(ctx context.Context) (store.AssetStore, error) {
	var assets store.AssetStore

	switch c.StoreType {
	case "postgres":
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString: c.PostgresStore.ConnString,
			MaxConns:   c.PostgresStore.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		assets = postgresstore.NewAssetStore(pool)
		log.Info().Int32("max_conns", c.PostgresStore.MaxConns).Msg("Using PostgreSQL asset store")

	default:
		assets = memorystore.NewAssetStore()
		log.Info().Msg("Using in-memory asset store")
	}

	if err := assets.Ping(ctx); err != nil {
		assets.Close()
		return nil, fmt.Errorf("failed to connect to asset store: %w", err)
	}

	return assets, nil
}
