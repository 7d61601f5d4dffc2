package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"mercator-hq/epicorbridge/internal/epicortest"
	"mercator-hq/epicorbridge/pkg/epicor"
)

type countingRecorder struct {
	mu       sync.Mutex
	calls    map[string]int
	renewals map[string]int
	shared   int
	active   bool
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{calls: make(map[string]int), renewals: make(map[string]int)}
}

func (r *countingRecorder) RecordSessionCall(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op+"/"+outcome]++
}

func (r *countingRecorder) RecordRenewal(outcome string, shared bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renewals[outcome]++
	if shared {
		r.shared++
	}
}

func (r *countingRecorder) SetSessionActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = active
}

func newTestManager(ms *epicortest.MockServer, store *Store, rec Recorder) *Manager {
	client := epicor.NewClient(epicor.ClientConfig{Timeout: 5 * time.Second}, epicortest.DiscardLogger())
	return NewManager(ms.Credentials(), client, store, Options{
		RenewalTimeout: 2 * time.Second,
		Logger:         epicortest.DiscardLogger(),
		Recorder:       rec,
	})
}

func seed(store *Store, token string) Session {
	s := Session{Token: token, LicenseClaim: epicortest.LicenseID, ObtainedAt: time.Now()}
	store.CompareAndSet(Session{}, s)
	return s
}

func TestEnsureValid_ConcurrentCallersShareOneLogin(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetDelay(epicortest.OpLogin, 100*time.Millisecond)

	rec := newCountingRecorder()
	m := newTestManager(ms, NewStore(), rec)

	const callers = 20
	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.EnsureValid(context.Background())
			tokens[i], errs[i] = s.Token, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if tokens[i] != tokens[0] {
			t.Errorf("caller %d got token %q, caller 0 got %q", i, tokens[i], tokens[0])
		}
	}
	if got := ms.Count(epicortest.OpLogin); got != 1 {
		t.Errorf("expected exactly one login, got %d", got)
	}
	if got := m.Current().Token; got != tokens[0] {
		t.Errorf("expected stored token %q, got %q", tokens[0], got)
	}
	if !rec.active {
		t.Error("expected session to be reported active")
	}
}

func TestEnsureValid_ValidSessionDoesNotLogin(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.IssueSession("tok-live")

	store := NewStore()
	held := seed(store, "tok-live")
	m := newTestManager(ms, store, nil)

	s, err := m.EnsureValid(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Equal(held) {
		t.Errorf("expected held session to be returned, got %+v", s)
	}
	if got := ms.Count(epicortest.OpLogin); got != 0 {
		t.Errorf("expected no login, got %d", got)
	}
	if got := ms.Count(epicortest.OpValidate); got != 1 {
		t.Errorf("expected one validate, got %d", got)
	}

	req, _ := ms.LastRequest(epicortest.OpValidate)
	if req.Header.Get("License") != `{"ClaimedLicense":"`+epicortest.LicenseID+`"}` {
		t.Errorf("unexpected validate License header %q", req.Header.Get("License"))
	}
}

func TestEnsureValid_EmptySessionSkipsValidate(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()

	m := newTestManager(ms, NewStore(), nil)
	if _, err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ms.Count(epicortest.OpValidate); got != 0 {
		t.Errorf("expected no validate for an empty session, got %d", got)
	}
	if got := ms.Count(epicortest.OpLogin); got != 1 {
		t.Errorf("expected one login, got %d", got)
	}
}

func TestEnsureValid_RejectedValidateLogsInExactlyOnce(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()

	store := NewStore()
	seed(store, "tok-expired")
	m := newTestManager(ms, store, nil)

	s, err := m.EnsureValid(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Token != "session-1" {
		t.Errorf("expected new token %q, got %q", "session-1", s.Token)
	}
	if got := ms.Count(epicortest.OpLogin); got != 1 {
		t.Errorf("expected exactly one login, got %d", got)
	}
	if s.LicenseClaim != epicortest.LicenseID {
		t.Errorf("expected license claim %q, got %q", epicortest.LicenseID, s.LicenseClaim)
	}
}

func TestEnsureValid_FailedLoginKeepsSession(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(epicortest.OpLogin, epicortest.MockErrorResponse(http.StatusInternalServerError, "license pool exhausted"))

	store := NewStore()
	held := seed(store, "tok-old")
	rec := newCountingRecorder()
	m := newTestManager(ms, store, rec)

	_, err := m.EnsureValid(context.Background())

	var serr *SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SessionError, got %T: %v", err, err)
	}
	if serr.Reason != ReasonLoginRejected {
		t.Errorf("expected reason %q, got %q", ReasonLoginRejected, serr.Reason)
	}
	if serr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", serr.StatusCode)
	}
	if got := store.Get(); !got.Equal(held) {
		t.Errorf("expected held session to survive failed login, got %+v", got)
	}
	if rec.renewals["rejected"] != 1 {
		t.Errorf("expected one rejected renewal, got %v", rec.renewals)
	}
}

func TestEnsureValid_LoginWithoutToken(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(epicortest.OpLogin, epicortest.MockResponse{StatusCode: http.StatusOK, Body: `{"returnObj":""}`})

	store := NewStore()
	m := newTestManager(ms, store, nil)

	_, err := m.EnsureValid(context.Background())

	var serr *SessionError
	if !errors.As(err, &serr) || serr.Reason != ReasonNoToken {
		t.Fatalf("expected no_token SessionError, got %v", err)
	}
	if !store.Get().IsEmpty() {
		t.Error("expected store to stay empty")
	}
}

func TestEnsureValid_TransportErrorIsNotSessionError(t *testing.T) {
	ms := epicortest.NewMockServer()
	creds := ms.Credentials()
	ms.Close()

	store := NewStore()
	held := seed(store, "tok-old")
	client := epicor.NewClient(epicor.ClientConfig{Timeout: time.Second}, epicortest.DiscardLogger())
	m := NewManager(creds, client, store, Options{Logger: epicortest.DiscardLogger()})

	_, err := m.EnsureValid(context.Background())

	var terr *epicor.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	var serr *SessionError
	if errors.As(err, &serr) {
		t.Error("transport failure must not be reported as a SessionError")
	}
	if got := store.Get(); !got.Equal(held) {
		t.Errorf("expected held session to be untouched, got %+v", got)
	}
}

func TestEnsureValid_CallerCancelLetsRenewalFinish(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetDelay(epicortest.OpLogin, 200*time.Millisecond)

	store := NewStore()
	m := newTestManager(ms, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.EnsureValid(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	epicortest.WaitForCondition(t, 2*time.Second, func() bool {
		return !store.Get().IsEmpty()
	}, "detached renewal did not store a session")

	if got := ms.Count(epicortest.OpLogin); got != 1 {
		t.Errorf("expected one login, got %d", got)
	}
}

func TestEnsureValid_RenewalTimeoutLeavesStoreUntouched(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetDelay(epicortest.OpLogin, time.Second)

	store := NewStore()
	held := seed(store, "tok-old")
	client := epicor.NewClient(epicor.ClientConfig{Timeout: 5 * time.Second}, epicortest.DiscardLogger())
	m := NewManager(ms.Credentials(), client, store, Options{
		RenewalTimeout: 50 * time.Millisecond,
		Logger:         epicortest.DiscardLogger(),
	})

	_, err := m.EnsureValid(context.Background())
	if !epicor.IsTimeout(err) {
		t.Fatalf("expected timeout transport error, got %v", err)
	}
	if got := store.Get(); !got.Equal(held) {
		t.Errorf("expected held session to be untouched, got %+v", got)
	}
}

func TestRenewOrValidate(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()

	m := newTestManager(ms, NewStore(), nil)
	if err := m.RenewOrValidate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RenewOrValidate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ms.Count(epicortest.OpLogin); got != 1 {
		t.Errorf("expected one login, got %d", got)
	}
	if got := ms.Count(epicortest.OpValidate); got != 1 {
		t.Errorf("expected one validate, got %d", got)
	}
}

func TestLogout(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()

	store := NewStore()
	m := newTestManager(ms, store, nil)

	s, err := m.EnsureValid(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !store.Get().IsEmpty() {
		t.Error("expected store to be empty after logout")
	}
	if ms.SessionValid(s.Token) {
		t.Error("expected session to be deleted on the server")
	}

	req, _ := ms.LastRequest(epicortest.OpLogout)
	if string(req.Body) != `{"sessionId":"`+s.Token+`"}` {
		t.Errorf("unexpected logout body %s", req.Body)
	}

	// Nothing held, nothing sent.
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if got := ms.Count(epicortest.OpLogout); got != 1 {
		t.Errorf("expected one logout call, got %d", got)
	}
}

func TestLogout_RejectedKeepsSession(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(epicortest.OpLogout, epicortest.MockErrorResponse(http.StatusBadRequest, "no such session"))

	store := NewStore()
	held := seed(store, "tok-old")
	m := newTestManager(ms, store, nil)

	err := m.Logout(context.Background())

	var serr *SessionError
	if !errors.As(err, &serr) || serr.Reason != ReasonLogoutRejected {
		t.Fatalf("expected logout_rejected SessionError, got %v", err)
	}
	if got := store.Get(); !got.Equal(held) {
		t.Errorf("expected held session to survive, got %+v", got)
	}
}

func TestLogout_WaitsForInFlightRenewal(t *testing.T) {
	ms := epicortest.NewMockServer()
	defer ms.Close()
	ms.SetDelay(epicortest.OpLogin, 150*time.Millisecond)

	store := NewStore()
	m := newTestManager(ms, store, nil)

	renewed := make(chan Session, 1)
	go func() {
		s, _ := m.EnsureValid(context.Background())
		renewed <- s
	}()

	epicortest.WaitForCondition(t, time.Second, func() bool {
		return ms.Count(epicortest.OpLogin) == 1
	}, "login never started")

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	s := <-renewed
	if s.IsEmpty() {
		t.Fatal("expected renewal to complete")
	}
	if ms.SessionValid(s.Token) {
		t.Error("expected logout to delete the session created by the renewal")
	}
	if !store.Get().IsEmpty() {
		t.Error("expected store to be empty after logout")
	}
}
