package tlsconf

import (
	"crypto"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"slices"

	"github.com/mr-tron/base58"
)

// KeyFormat is the encoding of a supported private key.
type KeyFormat int

const (
	// KeyFormatPKCS1 is an "RSA PRIVATE KEY" block.
	KeyFormatPKCS1 KeyFormat = iota + 1
	// KeyFormatPKCS8 is a "PRIVATE KEY" block.
	KeyFormatPKCS8
)

func (f KeyFormat) String() string {
	switch f {
	case KeyFormatPKCS1:
		return "pkcs1"
	case KeyFormatPKCS8:
		return "pkcs8"
	default:
		return "unknown"
	}
}

// PrivateKey is a DER-encoded private key and its format.
type PrivateKey struct {
	Format KeyFormat
	DER    []byte
}

// Parse decodes the key into a crypto.Signer.
func (k PrivateKey) Parse() (crypto.Signer, error) {
	switch k.Format {
	case KeyFormatPKCS1:
		return x509.ParsePKCS1PrivateKey(k.DER)
	case KeyFormatPKCS8:
		key, err := x509.ParsePKCS8PrivateKey(k.DER)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("unsupported PKCS#8 key type %T", key)
		}
		return signer, nil
	default:
		return nil, fmt.Errorf("unknown private key format %d", k.Format)
	}
}

// Credentials is a certificate chain, leaf first, and exactly one private key.
// It is never modified after a Builder produces it.
type Credentials struct {
	chain [][]byte
	key   PrivateKey
}

// Chain returns the DER-encoded certificates in presentation order.
func (c *Credentials) Chain() [][]byte {
	return slices.Clone(c.chain)
}

// Key returns the private key.
func (c *Credentials) Key() PrivateKey {
	return c.key
}

// Leaf parses the first certificate of the chain.
func (c *Credentials) Leaf() (*x509.Certificate, error) {
	if len(c.chain) == 0 {
		return nil, errors.New("certificate chain is empty")
	}
	return x509.ParseCertificate(c.chain[0])
}

// TLSCertificate assembles a tls.Certificate, checking that the key parses
// and matches the leaf certificate.
func (c *Credentials) TLSCertificate() (tls.Certificate, error) {
	key, err := c.key.Parse()
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to parse private key: %w", err)
	}

	leaf, err := c.Leaf()
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to parse leaf certificate: %w", err)
	}

	pub, ok := key.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(leaf.PublicKey) {
		return tls.Certificate{}, errors.New("private key does not match leaf certificate")
	}

	return tls.Certificate{
		Certificate: c.Chain(),
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

// Fingerprint returns the Base58-encoded SHA-256 of a DER certificate.
func Fingerprint(der []byte) string {
	hash := sha256.Sum256(der)
	return base58.Encode(hash[:])
}
