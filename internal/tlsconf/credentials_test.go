package tlsconf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentials_TLSCertificate(t *testing.T) {
	f := testFixture(t)

	t.Run("matching key", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddPEM("chain.pem", f.chainPEM()))
		require.NoError(t, b.AddPEM("key.pem", f.leafKeyPEM(t)))
		creds, err := b.Complete()
		require.NoError(t, err)

		cert, err := creds.TLSCertificate()
		require.NoError(t, err)
		require.Len(t, cert.Certificate, 2)
		require.NotNil(t, cert.PrivateKey)
		require.Equal(t, f.leaf.Certificate.Raw, cert.Leaf.Raw)
	})

	t.Run("key from another certificate", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddPEM("chain.pem", f.chainPEM()))
		require.NoError(t, b.AddPEM("key.pem", f.otherKeyPEM(t)))
		creds, err := b.Complete()
		require.NoError(t, err)

		_, err = creds.TLSCertificate()
		require.ErrorContains(t, err, "does not match")
	})

	t.Run("RSA key against ECDSA certificate", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddPEM("chain.pem", f.chainPEM()))
		require.NoError(t, b.AddPEM("key.pem", f.rsaKeyPEM()))
		creds, err := b.Complete()
		require.NoError(t, err)

		_, err = creds.TLSCertificate()
		require.Error(t, err)
	})

	t.Run("empty chain", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddPEM("key.pem", f.leafKeyPEM(t)))
		creds, err := b.Complete()
		require.NoError(t, err)

		_, err = creds.TLSCertificate()
		require.ErrorContains(t, err, "chain is empty")
	})

	t.Run("corrupt key bytes", func(t *testing.T) {
		creds := &Credentials{
			chain: [][]byte{f.leaf.Certificate.Raw},
			key:   PrivateKey{Format: KeyFormatPKCS8, DER: []byte{0x30, 0x00}},
		}

		_, err := creds.TLSCertificate()
		require.ErrorContains(t, err, "failed to parse private key")
	})
}

func TestCredentials_ChainIsCopied(t *testing.T) {
	f := testFixture(t)

	b := NewBuilder()
	require.NoError(t, b.AddPEM("chain.pem", f.chainPEM()))
	require.NoError(t, b.AddPEM("key.pem", f.leafKeyPEM(t)))
	creds, err := b.Complete()
	require.NoError(t, err)

	chain := creds.Chain()
	chain[0] = nil

	require.Equal(t, f.leaf.Certificate.Raw, creds.Chain()[0])
}

func TestBuilder_CompleteDoesNotAlias(t *testing.T) {
	f := testFixture(t)

	b := NewBuilder()
	require.NoError(t, b.AddPEM("chain.pem", f.chainPEM()))
	require.NoError(t, b.AddPEM("key.pem", f.leafKeyPEM(t)))
	creds, err := b.Complete()
	require.NoError(t, err)

	// Further certificates added to the builder do not leak into earlier results.
	require.NoError(t, b.AddPEM("more.pem", f.chainPEM()))
	require.Len(t, creds.Chain(), 2)
}

func TestKeyFormat_String(t *testing.T) {
	require.Equal(t, "pkcs1", KeyFormatPKCS1.String())
	require.Equal(t, "pkcs8", KeyFormatPKCS8.String())
	require.Equal(t, "unknown", KeyFormat(0).String())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("a"))
	require.NotEmpty(t, a)
	require.Equal(t, a, Fingerprint([]byte("a")))
	require.NotEqual(t, a, Fingerprint([]byte("b")))
}
