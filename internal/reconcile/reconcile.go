// Package reconcile drives one sync round trip between the local queue and
// ledger and the remote authority.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/metrics"
	"github.com/KumarDhananjaya/Spendly/internal/syncproto"
)

// DefaultTimeout bounds a round trip when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Outcome of a Run.
type Outcome string

const (
	Synced   Outcome = "synced"
	Skipped  Outcome = "skipped"
	InFlight Outcome = "in_flight"
	Failed   Outcome = "failed"
	TimedOut Outcome = "timed_out"
)

type Transport interface {
	Sync(ctx context.Context, token string, req syncproto.Request) (syncproto.Response, error)
}

type Connectivity interface {
	Reachable(ctx context.Context) bool
}

type TokenSource interface {
	Token() string
}

// Queue is the subset of syncqueue.Queue the reconciler needs.
type Queue interface {
	Pending() []syncproto.ChangeEvent
	Remove(ids []string) int
	Watermark() int64
	Advance(w int64)
}

// Applier merges returned server events into the local ledger.
type Applier interface {
	ApplyRemote(events []syncproto.ChangeEvent) int
}

// Result describes one Run. Err is set for Failed and TimedOut, and for
// Skipped when the server rejected the credential.
type Result struct {
	Outcome   Outcome
	Sent      int
	Received  int
	Applied   int
	Watermark int64
	Err       error
}

type Reconciler struct {
	transport Transport
	queue     Queue
	ledger    Applier
	conn      Connectivity
	tokens    TokenSource
	timeout   time.Duration
	log       *slog.Logger

	running atomic.Bool
}

type Option func(*Reconciler)

func WithConnectivity(c Connectivity) Option { return func(r *Reconciler) { r.conn = c } }

func WithTokens(t TokenSource) Option { return func(r *Reconciler) { r.tokens = t } }

func WithLogger(l *slog.Logger) Option { return func(r *Reconciler) { r.log = l } }

// WithTimeout bounds each round trip; non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(t Transport, q Queue, ledger Applier, opts ...Option) *Reconciler {
	r := &Reconciler{
		transport: t,
		queue:     q,
		ledger:    ledger,
		timeout:   DefaultTimeout,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one round trip. It never panics on transport errors; on any
// failure the queue and watermark are left untouched. A call made while
// another is running returns InFlight immediately.
func (r *Reconciler) Run(ctx context.Context) Result {
	if !r.running.CompareAndSwap(false, true) {
		return r.done(Result{Outcome: InFlight})
	}
	defer r.running.Store(false)

	token := ""
	if r.tokens != nil {
		token = r.tokens.Token()
	}
	if token == "" {
		r.log.Debug("sync skipped: no session token")
		return r.done(Result{Outcome: Skipped, Watermark: r.queue.Watermark()})
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.conn != nil && !r.conn.Reachable(ctx) {
		r.log.Debug("sync skipped: server unreachable")
		return r.done(Result{Outcome: Skipped, Watermark: r.queue.Watermark()})
	}

	pending := r.queue.Pending()
	if pending == nil {
		pending = []syncproto.ChangeEvent{}
	}
	watermark := r.queue.Watermark()

	resp, err := r.transport.Sync(ctx, token, syncproto.Request{Watermark: watermark, Changes: pending})
	if err != nil {
		res := Result{Sent: len(pending), Watermark: watermark, Err: err}
		switch {
		case errors.Is(err, syncproto.ErrUnauthorized):
			r.log.Info("sync skipped: credential rejected")
			res.Outcome = Skipped
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			r.log.Warn("sync timed out", "timeout", r.timeout, "error", err)
			res.Outcome = TimedOut
		default:
			r.log.Error("sync failed", "error", err)
			res.Outcome = Failed
		}
		return r.done(res)
	}

	applied := r.ledger.ApplyRemote(resp.Changes)

	ids := make([]string, len(pending))
	for i, ev := range pending {
		ids[i] = ev.ID
	}
	r.queue.Remove(ids)
	r.queue.Advance(resp.Watermark)

	r.log.Info("sync complete", "sent", len(pending), "received", len(resp.Changes),
		"applied", applied, "watermark", resp.Watermark)
	return r.done(Result{
		Outcome:   Synced,
		Sent:      len(pending),
		Received:  len(resp.Changes),
		Applied:   applied,
		Watermark: r.queue.Watermark(),
	})
}

// RunAsync starts Run in a goroutine and delivers its result on the
// returned channel.
func (r *Reconciler) RunAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- r.Run(ctx)
		close(ch)
	}()
	return ch
}

// Running reports whether a round trip is in progress.
func (r *Reconciler) Running() bool { return r.running.Load() }

func (r *Reconciler) done(res Result) Result {
	metrics.ReconcileRuns.WithLabelValues(string(res.Outcome)).Inc()
	return res
}
