package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"mercator-hq/epicorbridge/pkg/epicor"
)

// DefaultRenewalTimeout bounds one validate-or-login sequence when
// Options.RenewalTimeout is zero.
const DefaultRenewalTimeout = 30 * time.Second

// renewKey is the single singleflight key; there is one session per process.
const renewKey = "renew"

// Sender performs one downstream call. *epicor.Client implements it.
type Sender interface {
	Send(ctx context.Context, req *epicor.Request) (*epicor.Response, error)
}

// Recorder receives session lifecycle measurements. Implementations must
// be safe for concurrent use.
type Recorder interface {
	// RecordSessionCall records one validate, login or logout round trip.
	RecordSessionCall(op, outcome string, duration time.Duration)

	// RecordRenewal records one coalesced renewal as seen by a waiter.
	// shared is true when the waiter joined a renewal already in flight.
	RecordRenewal(outcome string, shared bool)

	// SetSessionActive reports whether a session is held.
	SetSessionActive(active bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordSessionCall(string, string, time.Duration) {}
func (nopRecorder) RecordRenewal(string, bool)                      {}
func (nopRecorder) SetSessionActive(bool)                           {}

// Options configures a Manager.
type Options struct {
	// RenewalTimeout bounds one validate-or-login sequence.
	RenewalTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Recorder defaults to a no-op recorder.
	Recorder Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager owns the shared session. It is the only writer of its Store.
//
// Every renewal (validate, then login when needed) is coalesced through a
// singleflight group so that concurrent callers share one round trip and
// one result. Renewal and logout additionally take an exclusive slot, so
// at most one session round trip is in flight process-wide.
type Manager struct {
	creds    *epicor.Credentials
	sender   Sender
	store    *Store
	logger   *slog.Logger
	recorder Recorder
	timeout  time.Duration
	now      func() time.Time

	group singleflight.Group
	slot  chan struct{}
}

// NewManager creates a Manager. store may be shared with readers that
// only call Get.
func NewManager(creds *epicor.Credentials, sender Sender, store *Store, opts Options) *Manager {
	if opts.RenewalTimeout <= 0 {
		opts.RenewalTimeout = DefaultRenewalTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		creds:    creds,
		sender:   sender,
		store:    store,
		logger:   opts.Logger.With("component", "session.manager"),
		recorder: opts.Recorder,
		timeout:  opts.RenewalTimeout,
		now:      opts.Now,
		slot:     make(chan struct{}, 1),
	}
}

// Current returns the session currently held, without any network call.
func (m *Manager) Current() Session {
	return m.store.Get()
}

// EnsureValid returns a session the ERP has just confirmed, logging in
// when the held session is missing or no longer valid.
//
// Callers that arrive while a renewal is in flight wait for that renewal
// and receive its result. If ctx ends first, EnsureValid returns ctx.Err()
// and the renewal carries on detached, bounded only by the renewal
// timeout.
//
// Errors are *SessionError when the ERP refused a login,
// *epicor.TransportError when it could not be reached, or
// *epicor.ParseError when its answer could not be read.
func (m *Manager) EnsureValid(ctx context.Context) (Session, error) {
	ch := m.group.DoChan(renewKey, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()
		return m.renew(rctx)
	})

	select {
	case res := <-ch:
		m.recorder.RecordRenewal(renewalOutcome(res.Err), res.Shared)
		if res.Err != nil {
			return Session{}, res.Err
		}
		return res.Val.(Session), nil
	case <-ctx.Done():
		m.recorder.RecordRenewal("abandoned", false)
		return Session{}, ctx.Err()
	}
}

// RenewOrValidate runs one validate-or-login sequence, coalesced with any
// renewal already in flight. The background renewer calls it on every tick.
func (m *Manager) RenewOrValidate(ctx context.Context) error {
	_, err := m.EnsureValid(ctx)
	return err
}

// Logout deletes the held session on the ERP and clears the store. It is
// a no-op when no session is held. Logout waits for any in-flight renewal
// to finish and a renewal started meanwhile waits for Logout.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	cur := m.store.Get()
	if cur.IsEmpty() {
		return nil
	}

	start := m.now()
	resp, err := m.sender.Send(ctx, epicor.NewLogoutRequest(m.creds, cur.Token))
	if err != nil {
		m.recorder.RecordSessionCall("logout", "error", m.now().Sub(start))
		return err
	}
	if resp.StatusCode != http.StatusOK {
		m.recorder.RecordSessionCall("logout", "rejected", m.now().Sub(start))
		return &SessionError{
			Reason:     ReasonLogoutRejected,
			StatusCode: resp.StatusCode,
			Message:    truncate(resp.Body),
		}
	}
	m.recorder.RecordSessionCall("logout", "success", m.now().Sub(start))

	if m.store.CompareAndSet(cur, Session{}) {
		m.recorder.SetSessionActive(false)
		m.logger.InfoContext(ctx, "session logged out", "obtained_at", cur.ObtainedAt)
	}
	return nil
}

// renew is the body of one coalesced renewal. ctx is already detached
// from the caller and carries the renewal timeout.
func (m *Manager) renew(ctx context.Context) (Session, error) {
	if err := m.acquire(ctx); err != nil {
		return Session{}, err
	}
	defer m.release()

	cur := m.store.Get()

	if !cur.IsEmpty() {
		valid, err := m.validate(ctx, cur)
		if err != nil {
			return Session{}, err
		}
		if valid {
			return cur, nil
		}
	}

	next, err := m.login(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "unable to login", "error", err)
		return Session{}, err
	}

	if !m.store.CompareAndSet(cur, next) {
		// Only renew and Logout write, and both hold the slot.
		m.logger.WarnContext(ctx, "session changed during renewal, keeping stored session")
		return m.store.Get(), nil
	}
	m.recorder.SetSessionActive(true)
	m.logger.InfoContext(ctx, "login successful", "obtained_at", next.ObtainedAt)

	return next, nil
}

func (m *Manager) validate(ctx context.Context, cur Session) (bool, error) {
	start := m.now()
	resp, err := m.sender.Send(ctx, epicor.NewValidateRequest(m.creds, cur.Token))
	if err != nil {
		m.recorder.RecordSessionCall("validate", "error", m.now().Sub(start))
		return false, err
	}

	if resp.StatusCode == http.StatusOK {
		m.recorder.RecordSessionCall("validate", "valid", m.now().Sub(start))
		m.logger.DebugContext(ctx, "session is valid")
		return true, nil
	}

	m.recorder.RecordSessionCall("validate", "invalid", m.now().Sub(start))
	m.logger.InfoContext(ctx, "session is invalid, logging in",
		"status", resp.StatusCode,
		"message", truncate(resp.Body),
	)
	return false, nil
}

func (m *Manager) login(ctx context.Context) (Session, error) {
	start := m.now()
	resp, err := m.sender.Send(ctx, epicor.NewLoginRequest(m.creds))
	if err != nil {
		m.recorder.RecordSessionCall("login", "error", m.now().Sub(start))
		return Session{}, err
	}

	if resp.StatusCode != http.StatusOK {
		m.recorder.RecordSessionCall("login", "rejected", m.now().Sub(start))
		return Session{}, &SessionError{
			Reason:     ReasonLoginRejected,
			StatusCode: resp.StatusCode,
			Message:    truncate(resp.Body),
		}
	}

	token, err := epicor.ParseLoginToken(resp.Body)
	if err != nil {
		m.recorder.RecordSessionCall("login", "rejected", m.now().Sub(start))
		return Session{}, &SessionError{
			Reason:     ReasonNoToken,
			StatusCode: resp.StatusCode,
			Message:    truncate(resp.Body),
			Cause:      err,
		}
	}
	m.recorder.RecordSessionCall("login", "success", m.now().Sub(start))

	return Session{
		Token:        token,
		LicenseClaim: m.creds.LicenseTypeID,
		ObtainedAt:   m.now(),
	}, nil
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.slot
}

func renewalOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var serr *SessionError
	if errors.As(err, &serr) {
		return "rejected"
	}
	return "error"
}
