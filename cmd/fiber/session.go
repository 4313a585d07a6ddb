package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/demo"
	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/internal/export"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/journal"
	"github.com/vango-dev/fiber/pkg/stream"
)

// session owns one demo root and everything wired to it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	mem      *host.Memory
	root     *fiber.Root
	hub      *stream.Hub
	journal  *journal.Journal
	registry *prometheus.Registry

	manual *fiber.ManualYielder
	loop   *fiber.EventLoopYielder

	mu     sync.Mutex
	script []demo.Step
	next   int
	log    []export.StepOps
}

// newSession mounts the first script step. driver overrides
// scheduler.driver when not empty.
func newSession(cfg *config.Config, logger *slog.Logger, driver string) (*session, error) {
	if driver == "" {
		driver = cfg.Scheduler.Driver
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		mem:      host.NewMemory(),
		registry: prometheus.NewRegistry(),
		script:   demo.Script(),
	}
	s.hub = stream.NewHub(stream.WithLogger(logger), stream.WithSnapshot(s.mem.HTML))

	var yielder fiber.Yielder
	switch driver {
	case config.DriverEventLoop:
		loop, err := fiber.NewEventLoopYielder(logger)
		if err != nil {
			return nil, errors.New("F020").Wrap(err)
		}
		s.loop, yielder = loop, loop
	default:
		s.manual = &fiber.ManualYielder{}
		yielder = s.manual
	}

	opts := []fiber.Option{
		fiber.WithAdapter(s.hub.Adapter(s.mem)),
		fiber.WithYielder(yielder),
		fiber.WithBudget(cfg.Budget()),
		fiber.WithLogger(logger),
		fiber.WithDebug(cfg.Scheduler.Debug),
		fiber.WithMetrics(fiber.NewMetrics(fiber.WithRegistry(s.registry))),
		fiber.WithCommitHook(s.hub.CommitHook()),
	}

	if s.manual == nil {
		// Only the manual driver keeps a per-step op log.
		opts = append(opts, fiber.WithCommitHook(func(fiber.CommitInfo) { s.mem.Reset() }))
	}

	if path := cfg.JournalPath(); path != "" {
		j, err := journal.Open(path)
		if err != nil {
			s.closeLoop()
			return nil, err
		}
		s.journal = j
		opts = append(opts, fiber.WithCommitHook(j.Hook(logger)))
	}

	first := s.script[0]
	root, err := fiber.CreateRoot(s.mem.Root(), demo.App(first.State), opts...)
	if err != nil {
		s.Close()
		return nil, errors.New("F020").Wrap(err)
	}
	s.root = root
	s.next = 1

	s.do(func() {})
	if s.manual != nil {
		s.record(first.Name)
	}
	return s, nil
}

// do runs fn on the root's goroutine. With the manual driver it also
// drains the yielder, so the work fn schedules is committed on return.
func (s *session) do(fn func()) {
	if s.manual == nil {
		s.root.Dispatch(fn)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Dispatch(fn)
	s.manual.RunUntilIdle()
}

// step applies the next script step, wrapping around after the last
// one. It reports the step name. With the event loop driver the step
// runs asynchronously and its error is only logged.
func (s *session) step() (string, error) {
	s.mu.Lock()
	st := s.script[s.next]
	s.next = (s.next + 1) % len(s.script)
	s.mu.Unlock()

	if s.manual == nil {
		s.root.Dispatch(func() {
			if err := st.Apply(s.root, s.mem); err != nil {
				s.logger.Error("step failed", "step", st.Name, "error", err)
			}
		})
		return st.Name, nil
	}

	var err error
	s.do(func() {
		err = st.Apply(s.root, s.mem)
	})
	s.record(st.Name)
	return st.Name, err
}

// record moves the ops committed since the last call into the step log.
func (s *session) record(name string) {
	ops := s.mem.Ops()
	s.mem.Reset()
	s.mu.Lock()
	s.log = append(s.log, export.StepOps{Step: name, Ops: ops})
	s.mu.Unlock()
}

// steps returns the per-step op log.
func (s *session) steps() []export.StepOps {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.StepOps(nil), s.log...)
}

// remaining reports how many steps are left before the script wraps.
func (s *session) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 {
		return 0
	}
	return len(s.script) - s.next
}

func (s *session) closeLoop() {
	if s.loop == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.loop.Close(ctx); err != nil {
		s.logger.Warn("event loop shutdown", "error", err)
	}
}

// Close unmounts the root and releases the hub, loop and journal.
func (s *session) Close() {
	if s.root != nil {
		s.do(s.root.Unmount)
	}
	s.hub.Close()
	s.closeLoop()
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("journal close", "error", err)
		}
	}
}
