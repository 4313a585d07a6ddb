package fiber

import (
	"context"
	"log/slog"
	"sync"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
)

// Yielder is the host's cooperative continuation primitive. The root
// hands it the rest of its work whenever the time budget runs out or new
// work arrives; the yielder must call task later, on the goroutine that
// owns the root.
type Yielder interface {
	Yield(task func())
}

// Clock is the time source consulted between units of work.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock is a deterministic Clock that advances by Step on every read.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewFakeClock returns a clock starting at the Unix epoch.
func NewFakeClock(step time.Duration) *FakeClock {
	return &FakeClock{now: time.Unix(0, 0), Step: step}
}

// Now implements Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ManualYielder queues continuations until the caller runs them. Tests
// and the CLI use it to drive a root deterministically on one goroutine.
type ManualYielder struct {
	mu    sync.Mutex
	tasks []func()
}

// Yield implements Yielder.
func (y *ManualYielder) Yield(task func()) {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.tasks = append(y.tasks, task)
}

// Pending returns the number of queued continuations.
func (y *ManualYielder) Pending() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return len(y.tasks)
}

// RunNext runs the oldest continuation. It returns false when none is
// queued.
func (y *ManualYielder) RunNext() bool {
	y.mu.Lock()
	if len(y.tasks) == 0 {
		y.mu.Unlock()
		return false
	}
	task := y.tasks[0]
	y.tasks = y.tasks[1:]
	y.mu.Unlock()

	task()
	return true
}

// RunUntilIdle runs continuations, including ones queued while running,
// until none remain. It returns how many ran.
func (y *ManualYielder) RunUntilIdle() int {
	n := 0
	for y.RunNext() {
		n++
	}
	return n
}

// EventLoopYielder runs continuations as zero-delay timers on an event
// loop, so rendering interleaves with the loop's other tasks the way an
// idle callback would.
type EventLoopYielder struct {
	loop   *eventloop.Loop
	logger *slog.Logger
	done   chan error
	cancel context.CancelFunc
}

// NewEventLoopYielder starts an event loop on its own goroutine. Close
// stops it.
func NewEventLoopYielder(logger *slog.Logger) (*EventLoopYielder, error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	y := &EventLoopYielder{
		loop:   loop,
		logger: logger,
		done:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		y.done <- loop.Run(ctx)
	}()
	return y, nil
}

// Yield implements Yielder.
func (y *EventLoopYielder) Yield(task func()) {
	if _, err := y.loop.ScheduleTimer(0, task); err != nil {
		y.logger.Error("fiber: event loop rejected continuation", "error", err)
	}
}

// Close shuts the loop down, letting already queued tasks finish.
func (y *EventLoopYielder) Close(ctx context.Context) error {
	err := y.loop.Shutdown(ctx)
	y.cancel()
	<-y.done
	return err
}
