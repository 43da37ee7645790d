package commands

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/latosol/latosol/internal/pki"
	"github.com/latosol/latosol/internal/tlsconf"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     ServeCmd
		wantErr string
	}{
		{
			name: "directory source",
			cmd:  ServeCmd{TLSConfDir: "/etc/latosol/tls", StoreType: "memory"},
		},
		{
			name: "ssm source",
			cmd:  ServeCmd{TLSSSMPath: "/latosol/tls", StoreType: "memory"},
		},
		{
			name:    "no source",
			cmd:     ServeCmd{StoreType: "memory"},
			wantErr: "a credential source is required",
		},
		{
			name:    "both sources",
			cmd:     ServeCmd{TLSConfDir: "/etc/latosol/tls", TLSSSMPath: "/latosol/tls"},
			wantErr: "mutually exclusive",
		},
		{
			name:    "postgres without connection string",
			cmd:     ServeCmd{TLSConfDir: "/etc/latosol/tls", StoreType: "postgres"},
			wantErr: "PostgreSQL connection string is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCertsCmd_Validate(t *testing.T) {
	require.NoError(t, (&CertsCmd{Hosts: []string{"localhost"}}).Validate())
	require.Error(t, (&CertsCmd{Hosts: []string{"localhost"}, CAKey: "key.pem"}).Validate())
	require.Error(t, (&CertsCmd{}).Validate())
}

func TestCertsCmd_ExistingCA(t *testing.T) {
	dir := t.TempDir()

	ca, err := pki.GenerateCA("Existing CA", 24*time.Hour)
	require.NoError(t, err)
	keyPath := filepath.Join(dir, "ca-key.pem")
	certPath := filepath.Join(dir, "ca-cert.pem")
	require.NoError(t, ca.SaveCA(keyPath, certPath))

	out := filepath.Join(dir, "tls")
	certs := &CertsCmd{
		OutputDir: out,
		Hosts:     []string{"localhost"},
		Validity:  time.Hour,
		CAKey:     keyPath,
		CACert:    certPath,
		LogLevel:  "error",
	}
	require.NoError(t, certs.Run(context.Background(), &Globals{}))

	creds, err := tlsconf.LoadDir(out)
	require.NoError(t, err)

	leaf, err := creds.Leaf()
	require.NoError(t, err)

	caCert, _ := ca.GetCACertificate()
	require.NoError(t, leaf.CheckSignatureFrom(caCert))
}

func TestServeCmd_Run(t *testing.T) {
	dir := t.TempDir()
	tlsDir := filepath.Join(dir, "tls")
	caDir := filepath.Join(dir, "ca")

	certs := &CertsCmd{
		OutputDir: tlsDir,
		Hosts:     []string{"127.0.0.1"},
		Validity:  time.Hour,
		CADir:     caDir,
		LogLevel:  "error",
	}
	require.NoError(t, certs.Run(context.Background(), &Globals{}))

	addrs := make(chan net.Addr, 1)
	serve := &ServeCmd{
		Host:             "127.0.0.1",
		HandshakeTimeout: 5 * time.Second,
		TLSConfDir:       tlsDir,
		RotationWindow:   720 * time.Hour,
		LogLevel:         "error",
		StoreType:        "memory",
		ready:            func(addr net.Addr) { addrs <- addr },
	}
	require.NoError(t, serve.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve.Run(ctx, &Globals{Version: "test"}) }()

	var addr net.Addr
	select {
	case addr = <-addrs:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not start")
	}

	caPEM, err := os.ReadFile(filepath.Join(caDir, "ca-cert.pem"))
	require.NoError(t, err)
	roots := x509.NewCertPool()
	require.True(t, roots.AppendCertsFromPEM(caPEM))

	conn, err := tls.Dial("tcp", addr.String(), &tls.Config{RootCAs: roots, ServerName: "127.0.0.1", MinVersion: tls.VersionTLS12})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	require.Equal(t, []byte{69}, got)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeCmd_Run_MissingDirectory(t *testing.T) {
	serve := &ServeCmd{
		Host:       "127.0.0.1",
		TLSConfDir: filepath.Join(t.TempDir(), "missing"),
		LogLevel:   "error",
		StoreType:  "memory",
	}

	err := serve.Run(context.Background(), &Globals{})

	var dirErr *tlsconf.DirError
	require.ErrorAs(t, err, &dirErr)
}

func TestServeCmd_Run_NoPrivateKey(t *testing.T) {
	dir := t.TempDir()
	ca, err := pki.GenerateCA("Latosol Test CA", time.Hour)
	require.NoError(t, err)
	caCert, _ := ca.GetCACertificate()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chain.pem"), pki.EncodeCertificatesPEM(caCert), 0600))

	serve := &ServeCmd{Host: "127.0.0.1", TLSConfDir: dir, LogLevel: "error", StoreType: "memory"}

	err = serve.Run(context.Background(), &Globals{})
	require.ErrorIs(t, err, tlsconf.ErrNoPrivateKey)
}
