package tlsconf

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/latosol/latosol/internal/pki"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ca     *x509.Certificate
	leaf   *pki.Issued
	other  *pki.Issued
	rsaKey *rsa.PrivateKey
	ecKey  *ecdsa.PrivateKey
}

var (
	fixtureOnce sync.Once
	fixtureVal  *fixture
	fixtureErr  error
)

// testFixture generates key material once per test binary.
func testFixture(t testing.TB) *fixture {
	t.Helper()

	fixtureOnce.Do(func() {
		signer, err := pki.GenerateCA("Latosol Test CA", 24*time.Hour)
		if err != nil {
			fixtureErr = err
			return
		}
		ca, _ := signer.GetCACertificate()

		leaf, err := pki.IssueServerCertificate(signer, []string{"localhost", "127.0.0.1", "::1"}, time.Hour)
		if err != nil {
			fixtureErr = err
			return
		}

		other, err := pki.IssueServerCertificate(signer, []string{"other.example"}, time.Hour)
		if err != nil {
			fixtureErr = err
			return
		}

		rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			fixtureErr = err
			return
		}

		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			fixtureErr = err
			return
		}

		fixtureVal = &fixture{ca: ca, leaf: leaf, other: other, rsaKey: rsaKey, ecKey: ecKey}
	})

	require.NoError(t, fixtureErr)
	return fixtureVal
}

func (f *fixture) chainPEM() []byte {
	return pki.EncodeCertificatesPEM(f.leaf.Certificate, f.ca)
}

func (f *fixture) leafKeyPEM(t testing.TB) []byte {
	t.Helper()
	b, err := pki.EncodePKCS8PEM(f.leaf.Key)
	require.NoError(t, err)
	return b
}

// leafKeyDER returns the PKCS#8 DER body of leafKeyPEM.
func (f *fixture) leafKeyDER(t testing.TB) []byte {
	t.Helper()
	block, _ := pem.Decode(f.leafKeyPEM(t))
	require.NotNil(t, block)
	return block.Bytes
}

func (f *fixture) otherKeyPEM(t testing.TB) []byte {
	t.Helper()
	b, err := pki.EncodePKCS8PEM(f.other.Key)
	require.NoError(t, err)
	return b
}

func (f *fixture) rsaKeyPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(f.rsaKey)})
}

func (f *fixture) ecKeyPEM(t testing.TB) []byte {
	t.Helper()
	der, err := x509.MarshalECPrivateKey(f.ecKey)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

func writeFile(t testing.TB, dir, name string, data ...[]byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), bytes.Join(data, nil), 0600))
}

// captureLogs redirects the global logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	return captureLogsAt(t, zerolog.DebugLevel)
}

func captureLogsAt(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(level)
	t.Cleanup(func() { log.Logger = prev })

	return &buf
}
