package session

import (
	"context"
	"sync"
	"time"
)

// Renewer is a running background renewal task.
type Renewer struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartBackgroundRenewal runs RenewOrValidate immediately and then every
// interval until ctx is cancelled or Stop is called. Each iteration runs
// on a context detached from ctx, so cancellation never cuts a renewal
// short: the task stops scheduling and reports done once the in-flight
// iteration has settled.
func (m *Manager) StartBackgroundRenewal(ctx context.Context, interval time.Duration) *Renewer {
	ctx, cancel := context.WithCancel(ctx)
	r := &Renewer{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go m.runRenewer(ctx, interval, r.done)
	return r
}

// Stop cancels the task and waits for it to finish.
func (r *Renewer) Stop() {
	r.once.Do(r.cancel)
	<-r.done
}

// Done is closed when the task has exited.
func (r *Renewer) Done() <-chan struct{} {
	return r.done
}

func (m *Manager) runRenewer(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	m.logger.Info("starting background session renewal", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.renewOnce(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			m.logger.Info("background session renewal stopped")
			return
		case <-ticker.C:
		}
	}
}

func (m *Manager) renewOnce(ctx context.Context) {
	start := m.now()
	m.logger.Debug("running validate-or-login")

	if err := m.RenewOrValidate(ctx); err != nil {
		m.logger.Error("background session renewal failed",
			"error", err,
			"duration", m.now().Sub(start),
		)
		return
	}

	m.logger.Debug("background session renewal completed", "duration", m.now().Sub(start))
}
