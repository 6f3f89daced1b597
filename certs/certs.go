// Package certs creates and loads the self-signed identities peers present to each other.
// A node's identity is an RSA certificate whose common name is the node UUID.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"cryptochat/errors"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	RSABits  = 2048
	Validity = 365 * 24 * time.Hour
)

// Generate creates a TLS certificate and RSA private key usable for both server and client auth
func Generate(keyBits int, name string, validFor time.Duration) (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject:      pkix.Name{CommonName: name},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(validFor),

		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create x509 certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to parse generated certificate: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
		Leaf:        leaf,
	}, nil
}

// DER returns the DER-encoded certificate and PKCS#1 private key.
// The key is nil when the certificate carries no private key.
func DER(cert tls.Certificate) ([]byte, []byte) {
	var keyDER []byte
	if priv, ok := cert.PrivateKey.(*rsa.PrivateKey); ok {
		keyDER = x509.MarshalPKCS1PrivateKey(priv)
	}
	return cert.Certificate[0], keyDER
}

// Load rebuilds a tls.Certificate from a DER certificate and optional private key
func Load(certDER, keyDER []byte) (tls.Certificate, error) {
	var priv *rsa.PrivateKey
	if keyDER != nil {
		var err error
		priv, err = x509.ParsePKCS1PrivateKey(keyDER)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to parse PKCS1 private key: %w", err)
		}
	}

	leaf, err := x509.ParseCertificate(certDER)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to parse X.509 certificate from DER: %w", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{certDER},
		Leaf:        leaf,
	}
	if priv != nil {
		cert.PrivateKey = priv
	}
	return cert, nil
}

// Fingerprint is the lowercase hex SHA-1 of the raw certificate
func Fingerprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// UUID extracts the node UUID from the certificate common name
func UUID(cert *x509.Certificate) (uuid.UUID, error) {
	id, err := uuid.Parse(cert.Subject.CommonName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", errors.ErrInvalidCertName, cert.Subject.CommonName)
	}
	return id, nil
}

// Matches checks the presented certificate against the one pinned for the same user
func Matches(presented, pinned *x509.Certificate) error {
	pool := x509.NewCertPool()
	pool.AddCert(pinned)
	if _, err := presented.Verify(x509.VerifyOptions{
		Roots:     pool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCertMismatch, err)
	}
	return nil
}
