package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mercator-hq/epicorbridge/pkg/epicor"
	"mercator-hq/epicorbridge/pkg/session"
)

// SessionSource exposes the stored session. *session.Manager implements it.
type SessionSource interface {
	Current() session.Session
}

// SessionCheck fails until a session has been obtained.
func SessionCheck(src SessionSource) CheckFunc {
	return func(context.Context) error {
		if src.Current().IsEmpty() {
			return errors.New("no integration session")
		}
		return nil
	}
}

// UpstreamCheck fails while the ERP client considers the host unreachable.
// The message is served unauthenticated on /ready, so it never carries
// LastError; the client logs each transport failure when it happens.
func UpstreamCheck(health func() epicor.Health) CheckFunc {
	return func(context.Context) error {
		h := health()
		if h.Reachable {
			return nil
		}
		return fmt.Errorf("epicor unreachable after %d failures", h.ConsecutiveFailures)
	}
}

// CatalogCheck fails when the catalog exposes no operations.
func CatalogCheck(count func() (queries, functions int)) CheckFunc {
	return func(context.Context) error {
		q, f := count()
		if q+f == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}
}

// CertificateCheck fails when the served certificate expires within
// margin.
func CertificateCheck(notAfter func() time.Time, margin time.Duration) CheckFunc {
	return func(context.Context) error {
		left := time.Until(notAfter())
		if left <= 0 {
			return errors.New("certificate has expired")
		}
		if left < margin {
			return fmt.Errorf("certificate expires in %s", left.Round(time.Hour))
		}
		return nil
	}
}
