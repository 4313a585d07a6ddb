package fiber

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// rootTag is the host tag of the app-root fiber, which wraps the
// container node.
const rootTag element.HostTag = "#root"

const tracerName = "github.com/vango-dev/fiber"

// Stats are cumulative scheduler counters.
type Stats struct {
	Units   int // fibers rendered
	Passes  int // render passes started
	Commits int // commits applied
	Yields  int // callbacks that ran out of budget
	Dropped int // queued fibers skipped as superseded
}

// Root owns one fiber tree and its scheduler state: the unit-of-work
// pointer, the render queue, the deletions list and the pending root
// element. A root is single-threaded: every method except Dispatch must
// be called on the goroutine that runs the yielder's continuations.
type Root struct {
	adapter     host.Adapter
	yielder     Yielder
	clock       Clock
	budget      time.Duration
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	debug       bool
	commitHooks []func(CommitInfo)

	container host.Node
	current   *Fiber
	wipRoot   *Fiber
	next      *Fiber
	deletions []deletion

	// queue holds component fibers waiting for their own pass, FIFO and
	// de-duplicated by fiber identity.
	queue       []*Fiber
	queued      map[*Fiber]struct{}
	pendingRoot *element.Element

	scheduled bool
	closed    bool

	passCtx       context.Context
	passSpan      trace.Span
	passComponent string
	passUnits     int

	stats     Stats
	commitSeq uint64
}

// CreateRoot creates a root for container, schedules the first render of
// el and returns. The render runs when the yielder invokes the work loop.
//
// With the default ManualYielder nothing happens until the caller drives
// it, for example:
//
//	root, _ := fiber.CreateRoot(mem.Root(), app)
//	root.Flush()
func CreateRoot(container host.Node, el *element.Element, opts ...Option) (*Root, error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	if el == nil {
		return nil, ErrNilElement
	}

	r := &Root{
		clock:     SystemClock{},
		budget:    DefaultBudget,
		logger:    slog.Default(),
		container: container,
		queued:    make(map[*Fiber]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.adapter == nil {
		r.adapter = host.AdapterOf(container)
		if r.adapter == nil {
			return nil, ErrNoAdapter
		}
	}
	if r.yielder == nil {
		r.yielder = &ManualYielder{}
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}

	r.pendingRoot = el
	r.schedule()
	return r, nil
}

// Update schedules a re-render of the whole tree with a new root element.
// It runs after any pass in progress commits.
func (r *Root) Update(el *element.Element) error {
	if r.closed {
		return ErrRootClosed
	}
	if el == nil {
		return ErrNilElement
	}
	r.pendingRoot = el
	r.schedule()
	return nil
}

// Dispatch runs fn on the root's goroutine through the yielder. Use it to
// call state setters from other goroutines.
func (r *Root) Dispatch(fn func()) {
	r.yielder.Yield(fn)
}

// Flush performs all pending work synchronously, ignoring the budget.
func (r *Root) Flush() {
	if r.closed {
		return
	}
	r.run(func() bool { return false })
}

// Idle reports whether the root has no pass in progress and nothing
// queued.
func (r *Root) Idle() bool {
	return r.wipRoot == nil && r.next == nil && r.pendingRoot == nil && len(r.queue) == 0
}

// Current returns the committed app-root fiber, nil before the first commit.
func (r *Root) Current() *Fiber {
	return r.current
}

// Container returns the host container node.
func (r *Root) Container() host.Node {
	return r.container
}

// Yielder returns the root's continuation primitive.
func (r *Root) Yielder() Yielder {
	return r.yielder
}

// Stats returns the cumulative counters.
func (r *Root) Stats() Stats {
	return r.stats
}

// Unmount finishes pending work, deletes the whole tree (running every
// cleanup) and closes the root.
func (r *Root) Unmount() {
	if r.closed {
		return
	}
	r.Flush()
	if r.current != nil {
		var cleanups []Cleanup
		for c := r.current.Child; c != nil; {
			next := c.Sibling
			cleanups = r.commitDeletion(deletion{fiber: c, detach: true}, cleanups)
			c = next
		}
		r.current.Child = nil
		runCleanups(cleanups)
	}
	r.closed = true
	r.queue = nil
	r.queued = make(map[*Fiber]struct{})
	r.metrics.queue(0)
	r.logger.Debug("fiber: root unmounted")
}

// schedule registers the work loop with the yielder unless it already is.
func (r *Root) schedule() {
	if r.scheduled || r.closed {
		return
	}
	r.scheduled = true
	r.yielder.Yield(r.workLoop)
}

// workLoop is the yielder continuation: it works until the budget runs
// out or nothing is left, and re-registers itself while work remains.
func (r *Root) workLoop() {
	r.scheduled = false
	if r.closed {
		return
	}

	deadline := r.clock.Now().Add(r.budget)
	if r.run(func() bool { return !r.clock.Now().Before(deadline) }) {
		r.stats.Yields++
		r.metrics.yield()
	}
	if !r.Idle() {
		r.schedule()
	}
}

// run performs units of work, commits finished passes and starts queued
// ones until there is no work or expired returns true. The budget is
// only consulted between units. It reports whether it stopped early.
func (r *Root) run(expired func() bool) bool {
	for {
		for r.next != nil {
			r.next = r.performUnitOfWork(r.next)
			if r.next != nil && expired() {
				return true
			}
		}
		if r.wipRoot != nil {
			r.commitRoot()
		}
		if !r.startNext() {
			return false
		}
		if expired() {
			return true
		}
	}
}

// enqueue adds a component fiber to the render queue.
func (r *Root) enqueue(f *Fiber) {
	if r.closed || f == nil {
		return
	}
	if _, ok := r.queued[f]; ok {
		return
	}
	r.queued[f] = struct{}{}
	r.queue = append(r.queue, f)
	r.metrics.queue(len(r.queue))
	r.schedule()
}

// startNext begins the next pass: a pending root update first, then the
// oldest queued component that is still current.
func (r *Root) startNext() bool {
	if r.pendingRoot != nil {
		el := r.pendingRoot
		r.pendingRoot = nil
		r.beginRootPass(el)
		return true
	}

	for len(r.queue) > 0 {
		f := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		delete(r.queued, f)
		r.metrics.queue(len(r.queue))

		if f.Flags&Old != 0 || f.State.unmounted || f.State.Current != f {
			r.stats.Dropped++
			r.logger.Debug("fiber: dropping superseded render request", "fiber", f.String())
			continue
		}
		r.beginComponentPass(f)
		return true
	}
	return false
}

func (r *Root) beginRootPass(el *element.Element) {
	wip := &Fiber{
		Type:     rootTag,
		Props:    element.Props{},
		Children: []*element.Element{el},
		Node:     r.container,
		Old:      r.current,
	}
	if r.current == nil {
		wip.created = true
		wip.State = newInstance(r, wip)
	} else {
		wip.State = r.current.State
		wip.Version = r.current.Version + 1
		wip.State.Current = wip
	}
	r.beginPass(wip, "")
}

// beginComponentPass starts a pass rooted at a single component. The new
// version takes f's place in the tree at commit.
func (r *Root) beginComponentPass(f *Fiber) {
	wip := &Fiber{
		Type:     f.Type,
		Key:      f.Key,
		Props:    f.Props,
		Element:  f.Element,
		Children: f.Children,
		Parent:   f.Parent,
		Sibling:  f.Sibling,
		Old:      f,
		Node:     f.Node,
		State:    f.State,
		Version:  f.Version + 1,
	}
	wip.State.Current = wip
	r.beginPass(wip, f.String())
}

func (r *Root) beginPass(wip *Fiber, component string) {
	r.wipRoot = wip
	r.next = wip
	r.passComponent = component
	r.passUnits = 0
	r.stats.Passes++

	kind := "root"
	if component != "" {
		kind = "component"
	}
	r.metrics.pass(kind)
	r.passCtx, r.passSpan = r.tracer.Start(context.Background(), "fiber.pass",
		trace.WithAttributes(
			attribute.String("fiber.pass.kind", kind),
			attribute.String("fiber.component", component),
		))
	r.logger.Debug("fiber: pass started", "kind", kind, "component", component)
}
