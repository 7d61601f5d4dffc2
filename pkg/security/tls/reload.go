package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Reloader holds the server certificate and reloads it when the files
// change on disk.
type Reloader struct {
	certFile string
	keyFile  string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time
	certMod  time.Time
	keyMod   time.Time
}

// NewReloader loads the certificate once and returns a reloader for it.
// The files are not watched until Start is called.
func NewReloader(certFile, keyFile string, interval time.Duration, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		interval: interval,
		logger:   logger.With("component", "tls"),
		now:      time.Now,
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	r.logLoaded()
	return r, nil
}

// Start checks the files every interval until ctx is done. An interval of
// zero or less disables reloading.
func (r *Reloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.check()
			}
		}
	}()
}

// check reloads when either file changed. Failures keep the current
// certificate.
func (r *Reloader) check() {
	changed, err := r.changed()
	if err != nil {
		r.logger.Warn("failed to stat certificate files", "error", err)
		return
	}
	if !changed {
		return
	}
	if err := r.reload(); err != nil {
		r.logger.Error("failed to reload certificate, keeping previous one",
			"cert_file", r.certFile,
			"error", err,
		)
		return
	}
	r.logger.Info("certificate reloaded", "cert_file", r.certFile)
	r.logLoaded()
}

func (r *Reloader) changed() (bool, error) {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return false, err
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return !certInfo.ModTime().Equal(r.certMod) || !keyInfo.ModTime().Equal(r.keyMod), nil
}

func (r *Reloader) reload() error {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("certificate file: %w", err)
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return fmt.Errorf("key file: %w", err)
	}

	cert, x, err := loadKeyPair(r.certFile, r.keyFile, r.now())
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = cert
	r.notAfter = x.NotAfter
	r.certMod = certInfo.ModTime()
	r.keyMod = keyInfo.ModTime()
	r.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// NotAfter returns the expiry of the current certificate.
func (r *Reloader) NotAfter() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notAfter
}

func (r *Reloader) logLoaded() {
	r.mu.RLock()
	cert := r.cert
	r.mu.RUnlock()

	x := cert.Leaf
	remaining := x.NotAfter.Sub(r.now())
	attrs := []any{
		"subject", x.Subject.CommonName,
		"issuer", x.Issuer.CommonName,
		"expires_at", x.NotAfter.Format(time.RFC3339),
		"expires_in_days", int(remaining.Hours() / 24),
	}
	if remaining < expiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
		return
	}
	r.logger.Info("certificate loaded", attrs...)
}
