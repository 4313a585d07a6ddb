package main

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr   string
		driver string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live host tree",
		Long: `Serve the demo application. Each POST to /step applies the next
scripted step; subscribers of /ws receive the committed ops.

Routes:
  GET  /          live page
  GET  /snapshot  current host tree HTML
  POST /step      apply the next script step
  GET  /journal   recent commits (when journal.path is set)
  GET  /ws        op stream
  GET  /metrics   Prometheus metrics
  GET  /healthz   liveness

Examples:
  fiber serve
  fiber serve --addr=:9000 --driver=manual`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if driver != "" {
				cfg.Scheduler.Driver = driver
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from fiber.json)")
	cmd.Flags().StringVar(&driver, "driver", "", "Scheduler driver: manual or eventloop")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cfg, os.Stderr)
	s, err := newSession(cfg, logger, "")
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	success(cmd.OutOrStdout(), "Serving on http://%s (driver %s)", cfg.Serve.Addr, cfg.Scheduler.Driver)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.New("F021").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	info(cmd.OutOrStdout(), "Shutting down...")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("F021").Wrap(err)
	}
	return nil
}

// router builds the HTTP routes of a session.
func (s *session) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handlePage)
	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/step", s.handleStep)
	r.Get("/journal", s.handleJournal)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/ws", s.hub)
	r.Handle(s.cfg.Serve.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>fiber</title></head>
<body>
<div id="mount">{{.HTML}}</div>
<form method="post" action="/step"><button>next step</button></form>
<pre id="ops"></pre>
<script>
const ops = document.getElementById("ops");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (e) => {
  const msg = JSON.parse(e.data);
  if (msg.type === "snapshot") document.getElementById("mount").innerHTML = msg.html;
  if (msg.type === "commit") {
    ops.textContent += "#" + msg.seq + " " + JSON.stringify(msg.ops) + "\n";
    fetch("/snapshot").then((r) => r.text()).then((h) => document.getElementById("mount").innerHTML = h);
  }
};
</script>
</body>
</html>
`))

func (s *session) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, struct{ HTML template.HTML }{template.HTML(s.mem.HTML())}); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *session) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.mem.WriteHTML(w); err != nil {
		s.logger.Error("write snapshot", "error", err)
	}
}

func (s *session) handleStep(w http.ResponseWriter, r *http.Request) {
	name, err := s.step()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	status := http.StatusOK
	if s.manual == nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{"step": name, "remaining": s.remaining()})
}

func (s *session) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	entries, err := s.journal.List(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs every request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
