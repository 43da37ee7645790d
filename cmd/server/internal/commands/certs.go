package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/latosol/latosol/internal/pki"
	"github.com/rs/zerolog/log"
)

// CertsCmd writes a credential directory the serve command can load with
// --tls-conf-dir. Without --ca-key and --ca-cert a throwaway CA is created
// next to the credentials.
type CertsCmd struct {
	OutputDir string        `help:"credential directory to write" default:"./tls"`
	Hosts     []string      `help:"DNS names and IP addresses for the server certificate" default:"localhost,::1,127.0.0.1"`
	Validity  time.Duration `help:"server certificate validity" default:"2160h"`
	CAKey     string        `help:"existing CA private key (PEM)" type:"existingfile"`
	CACert    string        `help:"existing CA certificate (PEM)" type:"existingfile"`
	CADir     string        `help:"where to write a generated CA" default:"./ca"`
	LogLevel  string        `help:"log level (trace, debug, info, warn, error)" default:"info" env:"LATOSOL_LOG"`
}

func (c *CertsCmd) Validate() error {
	if (c.CAKey == "") != (c.CACert == "") {
		return fmt.Errorf("--ca-key and --ca-cert must be provided together")
	}
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one host is required")
	}
	return nil
}

func (c *CertsCmd) Run(ctx context.Context, globals *Globals) error {
	setupLogging(c.LogLevel, globals)

	signer, err := c.signer()
	if err != nil {
		return err
	}

	ca, err := signer.GetCACertificate()
	if err != nil {
		return fmt.Errorf("failed to get CA certificate: %w", err)
	}

	if v := pki.ValidateCertificate(ca, time.Now(), c.Validity); v.ShouldRotate {
		log.Warn().
			Int("days_remaining", v.DaysRemaining).
			Msg("CA certificate expires before the server certificate")
	}

	issued, err := pki.IssueServerCertificate(signer, c.Hosts, c.Validity)
	if err != nil {
		return fmt.Errorf("failed to issue server certificate: %w", err)
	}

	if err := pki.WriteCredentialDir(c.OutputDir, issued, ca); err != nil {
		return err
	}

	log.Info().
		Str("dir", c.OutputDir).
		Strs("hosts", c.Hosts).
		Time("not_after", issued.Certificate.NotAfter).
		Msg("Wrote TLS credentials")

	return nil
}

func (c *CertsCmd) signer() (pki.CASigner, error) {
	if c.CAKey != "" {
		log.Info().Str("cert", c.CACert).Msg("Using existing CA")
		return pki.NewFileSigner(c.CAKey, c.CACert)
	}

	signer, err := pki.GenerateCA("Latosol Development CA", 10*c.Validity)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.CADir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create CA directory: %w", err)
	}

	keyPath := filepath.Join(c.CADir, "ca-key.pem")
	certPath := filepath.Join(c.CADir, "ca-cert.pem")
	if err := signer.SaveCA(keyPath, certPath); err != nil {
		return nil, err
	}

	log.Info().Str("cert", certPath).Msg("Generated development CA")

	return signer, nil
}
