package tlsconf

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

// PEM block types recognised by the builder.
const (
	blockCertificate = "CERTIFICATE"
	blockRSAKey      = "RSA PRIVATE KEY"
	blockPKCS8Key    = "PRIVATE KEY"
	blockECKey       = "EC PRIVATE KEY"
)

// Builder accumulates a certificate chain and at most one private key from a
// sequence of PEM sources. It is not safe for concurrent use.
type Builder struct {
	chain [][]byte
	key   *PrivateKey
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddPEM decodes every PEM block in data. source names the origin of data in
// log events and errors. A second supported private key fails with
// ErrDuplicatePrivateKey.
func (b *Builder) AddPEM(source string, data []byte) error {
	for {
		block, rest := pem.Decode(data)
		if block == nil {
			return nil
		}
		data = rest

		if err := b.addBlock(source, block); err != nil {
			return err
		}
	}
}

func (b *Builder) addBlock(source string, block *pem.Block) error {
	switch block.Type {
	case blockCertificate:
		b.chain = append(b.chain, block.Bytes)

		if ev := log.Debug(); ev.Enabled() {
			ev = ev.Str("source", source).
				Int("position", len(b.chain)-1).
				Str("fingerprint", Fingerprint(block.Bytes))
			if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
				ev = ev.Str("subject", cert.Subject.String())
			}
			ev.Msg("Certificate loaded")
		}

	case blockRSAKey, blockPKCS8Key:
		if b.key != nil {
			return fmt.Errorf("%s: %w", source, ErrDuplicatePrivateKey)
		}

		format := KeyFormatPKCS8
		if block.Type == blockRSAKey {
			format = KeyFormatPKCS1
		}
		b.key = &PrivateKey{Format: format, DER: block.Bytes}

		log.Debug().Str("source", source).Stringer("format", format).Msg("Private key loaded")

	case blockECKey:
		log.Warn().
			Str("source", source).
			Msg("A SEC1-encoded private key was provided; these are not supported and will be ignored")
	}

	return nil
}

// Complete returns the accumulated credentials, or ErrNoPrivateKey when no
// supported key was added.
func (b *Builder) Complete() (*Credentials, error) {
	if b.key == nil {
		return nil, ErrNoPrivateKey
	}

	return &Credentials{
		chain: slices.Clone(b.chain),
		key:   *b.key,
	}, nil
}
