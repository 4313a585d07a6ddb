package fiber

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fiber/pkg/host"
)

// DefaultBudget is the time slice a work loop callback may use before it
// yields.
const DefaultBudget = 5 * time.Millisecond

// CommitInfo describes one finished commit.
type CommitInfo struct {
	// Seq numbers commits from 1.
	Seq uint64

	// Component is the component the pass was rooted at, "" for the app.
	Component string

	Units      int
	Deletions  int
	Placements int
	Effects    int
	Cleanups   int
	Duration   time.Duration
}

// Option configures a Root.
type Option func(*Root)

// WithAdapter overrides the host adapter. By default the adapter is taken
// from the container node (see host.Owned).
func WithAdapter(a host.Adapter) Option {
	return func(r *Root) {
		r.adapter = a
	}
}

// WithYielder sets the continuation primitive. Default: a ManualYielder,
// reachable through Root.Yielder.
func WithYielder(y Yielder) Option {
	return func(r *Root) {
		r.yielder = y
	}
}

// WithClock sets the time source used for budget checks.
func WithClock(c Clock) Option {
	return func(r *Root) {
		r.clock = c
	}
}

// WithBudget sets the per-callback time budget.
func WithBudget(d time.Duration) Option {
	return func(r *Root) {
		if d > 0 {
			r.budget = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Root) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records scheduler metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Root) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for pass and commit spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Root) {
		r.tracer = t
	}
}

// WithDebug enables hook-order validation. Violations panic with F002
// instead of silently corrupting state.
func WithDebug(enabled bool) Option {
	return func(r *Root) {
		r.debug = enabled
	}
}

// WithCommitHook registers fn to be called after every commit.
func WithCommitHook(fn func(CommitInfo)) Option {
	return func(r *Root) {
		r.commitHooks = append(r.commitHooks, fn)
	}
}
