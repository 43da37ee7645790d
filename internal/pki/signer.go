package pki

import (
	"crypto/x509"
)

// CASigner signs certificate templates to create certificates.
// FileSigner is the only implementation; it holds the CA key in memory.
type CASigner interface {
	// SignCertificate signs a certificate template and returns the DER-encoded certificate bytes.
	// The template must carry the subject public key in PublicKey.
	SignCertificate(template *x509.Certificate) ([]byte, error)

	// GetCACertificate returns the CA certificate.
	// This is used for building certificate chains and verification.
	GetCACertificate() (*x509.Certificate, error)
}
