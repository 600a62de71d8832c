// Package tlsroots builds client TLS trust for jobrunner-cli.
package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoCertsFound is returned when a PEM input holds no certificates.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")
)

// Pool is a set of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
	count    int
}

// NewPool creates a pool seeded with the system roots.
// If system roots are unavailable the pool starts empty.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddCertPEM adds every CERTIFICATE block in pemData. Other block types
// are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	added := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	p.count += added
	return nil
}

// AddCert adds a parsed certificate.
func (p *Pool) AddCert(cert *x509.Certificate) {
	p.certPool.AddCert(cert)
	p.count++
}

// AddCertDir adds the .pem, .crt and .cer files of dir. Files that fail
// to parse are returned together as one error after the rest are added.
func (p *Pool) AddCertDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
			if err := p.AddCertFile(filepath.Join(dir, entry.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Added returns how many certificates were added beyond the seed roots.
func (p *Pool) Added() int {
	return p.count
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// TLSConfig returns a client config trusting this pool.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// ClientConfig returns a client TLS config trusting the system roots plus
// caPath, which may be a PEM file or a directory. An empty caPath trusts
// the system roots only.
func ClientConfig(caPath string) (*tls.Config, error) {
	pool := NewPool()
	if caPath == "" {
		return pool.TLSConfig(), nil
	}

	info, err := os.Stat(caPath)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: %w", err)
	}
	if info.IsDir() {
		err = pool.AddCertDir(caPath)
	} else {
		err = pool.AddCertFile(caPath)
	}
	if err != nil {
		return nil, err
	}
	return pool.TLSConfig(), nil
}
