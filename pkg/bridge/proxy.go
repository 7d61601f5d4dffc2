package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/epicorbridge/pkg/epicor"
	"mercator-hq/epicorbridge/pkg/session"
)

// Messages returned for UpstreamError. Transport details stay in the logs.
const (
	MessageUpstreamUnavailable = "upstream service unavailable"
	MessageUpstreamTimeout     = "upstream service timed out"
	MessageUpstreamMalformed   = "upstream service returned an invalid response"
)

// Operation kinds reported to observers.
const (
	KindQuery    = "query"
	KindFunction = "function"
)

// SessionProvider yields a validated session. *session.Manager implements it.
type SessionProvider interface {
	EnsureValid(ctx context.Context) (session.Session, error)
}

// Operation identifies a proxied call for observers.
type Operation struct {
	// Kind is KindQuery or KindFunction.
	Kind string

	// Target is the BAQ id or "library/function".
	Target string
}

// Observer is notified once per proxied operation.
type Observer interface {
	ObserveResult(ctx context.Context, op Operation, res Result, duration time.Duration)
}

// Options configures a Proxy.
type Options struct {
	// StrictStatus maps statuses other than 200 and 400 to UpstreamError.
	StrictStatus bool

	// Observers are notified after every operation.
	Observers []Observer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Proxy forwards queries and function calls to the ERP under the shared
// session.
type Proxy struct {
	creds     *epicor.Credentials
	sessions  SessionProvider
	sender    session.Sender
	strict    bool
	observers []Observer
	logger    *slog.Logger
}

// NewProxy creates a Proxy.
func NewProxy(creds *epicor.Credentials, sessions SessionProvider, sender session.Sender, opts Options) *Proxy {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Proxy{
		creds:     creds,
		sessions:  sessions,
		sender:    sender,
		strict:    opts.StrictStatus,
		observers: opts.Observers,
		logger:    opts.Logger.With("component", "bridge.proxy"),
	}
}

// ExecuteQuery runs a BAQ. On 200 and 400 the "value" member of the
// response is returned; other statuses pass the whole body through unless
// StrictStatus is set.
func (p *Proxy) ExecuteQuery(ctx context.Context, q Query) Result {
	start := time.Now()
	op := Operation{Kind: KindQuery, Target: q.ID}

	res := p.execute(ctx, op, func(token string) *epicor.Request {
		return epicor.NewQueryRequest(p.creds, token, q.verb(), q.ID, EncodeParams(q.Params))
	}, true)

	p.notify(ctx, op, res, time.Since(start))
	return res
}

// InvokeFunction calls a function library entry with f.Body verbatim and
// returns the response body verbatim.
func (p *Proxy) InvokeFunction(ctx context.Context, f Function) Result {
	start := time.Now()
	op := Operation{Kind: KindFunction, Target: f.Library + "/" + f.FunctionID}

	res := p.execute(ctx, op, func(token string) *epicor.Request {
		return epicor.NewFunctionRequest(p.creds, token, f.Library, f.FunctionID, f.Body)
	}, false)

	p.notify(ctx, op, res, time.Since(start))
	return res
}

func (p *Proxy) execute(ctx context.Context, op Operation, build func(token string) *epicor.Request, unwrap bool) Result {
	s, err := p.sessions.EnsureValid(ctx)
	if err != nil {
		var serr *session.SessionError
		if errors.As(err, &serr) {
			p.logger.WarnContext(ctx, "no session available",
				"kind", op.Kind,
				"target", op.Target,
				"error", err,
			)
			return Result{Category: Unauthorized, Message: serr.Error(), UpstreamStatus: serr.StatusCode}
		}
		return p.upstreamFailure(ctx, op, err)
	}

	resp, err := p.sender.Send(ctx, build(s.Token))
	if err != nil {
		var perr *epicor.ParseError
		if errors.As(err, &perr) {
			return p.malformed(ctx, op, 0, err)
		}
		return p.upstreamFailure(ctx, op, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		payload, err := p.payload(resp.Body, unwrap)
		if err != nil {
			return p.malformed(ctx, op, resp.StatusCode, err)
		}
		return Result{Category: Success, Payload: payload, UpstreamStatus: resp.StatusCode}

	case http.StatusBadRequest:
		payload, err := p.payload(resp.Body, unwrap)
		if err != nil {
			payload = asJSON(resp.Body)
		}
		return Result{Category: ClientError, Payload: payload, UpstreamStatus: resp.StatusCode}

	default:
		if p.strict {
			p.logger.WarnContext(ctx, "unexpected upstream status",
				"kind", op.Kind,
				"target", op.Target,
				"status", resp.StatusCode,
			)
			return Result{Category: UpstreamError, Message: MessageUpstreamUnavailable, UpstreamStatus: resp.StatusCode}
		}
		return Result{Category: Success, Payload: asJSON(resp.Body), UpstreamStatus: resp.StatusCode}
	}
}

// payload extracts "value" for queries, or validates the body for functions.
func (p *Proxy) payload(body []byte, unwrap bool) (json.RawMessage, error) {
	if unwrap {
		return epicor.ExtractValue(body)
	}
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, &epicor.ParseError{Op: KindFunction, Cause: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func (p *Proxy) upstreamFailure(ctx context.Context, op Operation, err error) Result {
	timeout := epicor.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)

	p.logger.ErrorContext(ctx, "upstream call failed",
		"kind", op.Kind,
		"target", op.Target,
		"timeout", timeout,
		"error", err,
	)

	msg := MessageUpstreamUnavailable
	if timeout {
		msg = MessageUpstreamTimeout
	}
	return Result{Category: UpstreamError, Message: msg, Timeout: timeout}
}

func (p *Proxy) malformed(ctx context.Context, op Operation, status int, err error) Result {
	p.logger.ErrorContext(ctx, "malformed upstream response",
		"kind", op.Kind,
		"target", op.Target,
		"status", status,
		"error", err,
	)
	return Result{Category: UpstreamError, Message: MessageUpstreamMalformed, UpstreamStatus: status}
}

func (p *Proxy) notify(ctx context.Context, op Operation, res Result, d time.Duration) {
	for _, o := range p.observers {
		o.ObserveResult(ctx, op, res, d)
	}
}

// asJSON returns body when it is valid JSON, JSON null when empty, and
// the body as a JSON string otherwise.
func asJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	b, _ := json.Marshal(string(body))
	return b
}
