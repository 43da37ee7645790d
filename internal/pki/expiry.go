package pki

import (
	"crypto/x509"
	"time"
)

// CertValidation holds certificate validity results
type CertValidation struct {
	NotBefore     time.Time
	NotAfter      time.Time
	DaysRemaining int
	NotYetValid   bool
	Expired       bool
	ShouldRotate  bool
}

// ValidateCertificate reports the validity window of cert at now. ShouldRotate
// is set when the certificate is expired or expires within rotationThreshold.
func ValidateCertificate(cert *x509.Certificate, now time.Time, rotationThreshold time.Duration) CertValidation {
	remaining := cert.NotAfter.Sub(now)

	v := CertValidation{
		NotBefore:     cert.NotBefore,
		NotAfter:      cert.NotAfter,
		DaysRemaining: int(remaining.Hours() / 24),
		NotYetValid:   now.Before(cert.NotBefore),
		Expired:       now.After(cert.NotAfter),
	}
	v.ShouldRotate = v.Expired || remaining < rotationThreshold

	return v
}
