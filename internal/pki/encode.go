package pki

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// File names written by WriteCredentialDir.
const (
	ChainFile = "chain.pem"
	KeyFile   = "key.pem"
)

// EncodeCertificatesPEM concatenates the certificates as CERTIFICATE blocks.
func EncodeCertificatesPEM(certs ...*x509.Certificate) []byte {
	var buf bytes.Buffer
	for _, c := range certs {
		// bytes.Buffer writes cannot fail
		_ = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})
	}
	return buf.Bytes()
}

// EncodePKCS8PEM encodes key as a PKCS#8 "PRIVATE KEY" block.
func EncodePKCS8PEM(key any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// WriteCredentialDir writes a credential directory: chain.pem holding the
// leaf followed by intermediates, and key.pem holding the leaf key.
func WriteCredentialDir(dir string, issued *Issued, intermediates ...*x509.Certificate) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	chain := append([]*x509.Certificate{issued.Certificate}, intermediates...)
	if err := os.WriteFile(filepath.Join(dir, ChainFile), EncodeCertificatesPEM(chain...), 0600); err != nil {
		return fmt.Errorf("failed to write certificate chain: %w", err)
	}

	keyPEM, err := EncodePKCS8PEM(issued.Key)
	if err != nil {
		return fmt.Errorf("failed to encode server key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, KeyFile), keyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write server key: %w", err)
	}

	return nil
}
