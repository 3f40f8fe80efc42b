package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-luckydraw/infrastructure/metrics"
	"github.com/ahrav/go-luckydraw/infrastructure/observability"
	"github.com/ahrav/go-luckydraw/infrastructure/presentation"
	"github.com/ahrav/go-luckydraw/internal/application"
	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

// defaultReel receives the configured source's candidates at startup.
const defaultReel = "default"

func newServeCmd() *cobra.Command {
	var (
		addr      string
		presenter string
		watch     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reels to browsers over websockets",
		Long: `Starts an HTTP server hosting one reel per task.

A browser attaches to a reel at /reels/{task}/ws and animates every spin it
receives, replying {"type":"settled","spin":N} with the spin's number when
the reel stops. Draws are
triggered with POST /reels/{task}/draw and answer with the winner once the
browser has settled. Metrics are served at /metrics when enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch {
			case cmd.Flags().Changed("presenter"):
				cfg.Presenter.Type = presenter
			case cfg.Presenter.Type != application.PresenterInstant:
				cfg.Presenter.Type = application.PresenterWebSocket
			}
			if cmd.Flags().Changed("watch") {
				cfg.Source.Watch = watch
			}
			if err := validateConfig(&cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&presenter, "presenter", application.PresenterWebSocket, "presenter for every reel: websocket or instant")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the candidate file into the default reel when it changes")
	return cmd
}

func runServe(ctx context.Context, cfg application.EngineConfig, addr string) error {
	srv, err := newServer(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer srv.Close()

	candidates, err := loadCandidates(ctx, cfg.Source, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) > 0 || cfg.Source.Watch {
		reel, err := srv.registry.GetOrCreate(defaultReel)
		if err != nil {
			return err
		}
		reel.SetCandidates(candidates)

		if cfg.Source.Watch {
			watchCtx, cancelWatch := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				watchCandidates(watchCtx, cfg.Source, reel, logger)
			}()
			defer func() {
				cancelWatch()
				<-done
			}()
		}
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving reels", zap.String("addr", addr), zap.String("presenter", cfg.Presenter.Type))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// server exposes a Registry over HTTP.
type server struct {
	cfg      application.EngineConfig
	log      *zap.Logger
	registry *application.Registry
	upgrader websocket.Upgrader
	gatherer prometheus.Gatherer

	// sockets holds the websocket presenter behind each reel, so a browser
	// can attach to it.
	mu      sync.Mutex
	sockets map[string]*presentation.WebSocketPresenter
}

// newServer wires a registry whose reels use cfg.Presenter.Type. Metrics
// are registered on promReg when enabled.
func newServer(cfg application.EngineConfig, log *zap.Logger, promReg *prometheus.Registry) (*server, error) {
	s := &server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sockets: make(map[string]*presentation.WebSocketPresenter),
	}

	var collector ports.MetricsCollector
	if cfg.Metrics.Enabled {
		pm, err := metrics.NewPrometheusMetrics(promReg, cfg.Metrics.Namespace)
		if err != nil {
			return nil, err
		}
		collector = pm
		s.gatherer = promReg
	}

	// One chain for every reel, so the rate limit is deployment wide.
	middleware := presenterMiddleware(cfg.Presenter, collector, nil)

	registry, err := application.NewRegistry(application.ControllerConfig{
		Configuration: cfg.Draw,
		Logger:        log,
		Metrics:       collector,
	}, func(taskID string) (ports.Presenter, error) {
		switch cfg.Presenter.Type {
		case application.PresenterWebSocket:
			ws := presentation.NewWebSocketPresenter(taskID, log)
			s.mu.Lock()
			s.sockets[taskID] = ws
			s.mu.Unlock()
			return presentation.Chain(ws, middleware...), nil
		case application.PresenterInstant:
			return presentation.Chain(presentation.InstantPresenter{}, middleware...), nil
		default:
			return nil, fmt.Errorf("%w: presenter %q cannot be served", domain.ErrInvalidConfiguration, cfg.Presenter.Type)
		}
	})
	if err != nil {
		return nil, err
	}
	s.registry = registry.
		WithObservers(func(taskID string) ports.DrawObserver {
			return observability.NewOTelDrawObserver(nil, collector, taskID)
		}).
		WithRelease(s.releaseSocket)
	return s, nil
}

// releaseSocket drops the browser connection of a removed reel. The
// registry calls it under its lock, the same order the presenter factory
// takes s.mu in.
func (s *server) releaseSocket(taskID string) {
	s.mu.Lock()
	ws, ok := s.sockets[taskID]
	delete(s.sockets, taskID)
	s.mu.Unlock()
	if ok {
		ws.Detach()
	}
}

// Close closes every reel and drops browser connections.
func (s *server) Close() {
	s.registry.Close()
}

// Routes returns the HTTP handler for the server.
func (s *server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /reels", s.withLogging(s.listReels))
	mux.HandleFunc("GET /reels/{task}", s.withLogging(s.getReel))
	mux.HandleFunc("DELETE /reels/{task}", s.withLogging(s.deleteReel))
	mux.HandleFunc("PUT /reels/{task}/candidates", s.withLogging(s.putCandidates))
	mux.HandleFunc("POST /reels/{task}/draw", s.withLogging(s.draw))
	mux.HandleFunc("POST /reels/{task}/reset", s.withLogging(s.reset))
	mux.HandleFunc("GET /reels/{task}/ws", s.attach)
	mux.HandleFunc("POST /draws", s.withLogging(s.drawMany))

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// withLogging logs each request at Debug with its duration.
func (s *server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.log.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	}
}

// reelStatus is the JSON view of one reel.
type reelStatus struct {
	Task       string   `json:"task"`
	State      string   `json:"state"`
	Candidates []string `json:"candidates"`
	LastWinner string   `json:"last_winner,omitempty"`
	Attached   bool     `json:"attached"`
}

type candidatesRequest struct {
	Candidates []string `json:"candidates"`
}

type drawManyRequest struct {
	Reels          []string `json:"reels"`
	MaxConcurrency int      `json:"max_concurrency"`
}

type drawManyResponse struct {
	Results map[string]domain.DrawResult `json:"results"`
	Error   string                       `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *server) status(task string, c *application.DrawController) reelStatus {
	st := reelStatus{
		Task:       task,
		State:      c.State().String(),
		Candidates: c.Candidates(),
	}
	if w, ok := c.LastWinner(); ok {
		st.LastWinner = w
	}
	s.mu.Lock()
	if ws, ok := s.sockets[task]; ok {
		st.Attached = ws.Connected()
	}
	s.mu.Unlock()
	return st
}

func (s *server) listReels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"reels": s.registry.TaskIDs()})
}

func (s *server) getReel(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	c, ok := s.registry.Get(task)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("reel %q not found", task))
		return
	}
	writeJSON(w, http.StatusOK, s.status(task, c))
}

func (s *server) deleteReel(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	if !s.registry.Remove(task) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("reel %q not found", task))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) putCandidates(w http.ResponseWriter, r *http.Request) {
	var req candidatesRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task := r.PathValue("task")
	c, err := s.registry.GetOrCreate(task)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.SetCandidates(prepareCandidates(req.Candidates, s.cfg.Source, s.log))
	writeJSON(w, http.StatusOK, s.status(task, c))
}

func (s *server) draw(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	c, ok := s.registry.Get(task)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("reel %q not found", task))
		return
	}

	res, err := c.Draw(r.Context())
	if err != nil {
		writeError(w, drawErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	c, ok := s.registry.Get(task)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("reel %q not found", task))
		return
	}
	c.Reset()
	writeJSON(w, http.StatusOK, s.status(task, c))
}

func (s *server) drawMany(w http.ResponseWriter, r *http.Request) {
	var req drawManyRequest
	if err := parseJSONBody(r, &req); err != nil || len(req.Reels) == 0 {
		writeError(w, http.StatusBadRequest, "body must list at least one reel")
		return
	}

	results, err := s.registry.DrawMany(r.Context(), req.Reels, req.MaxConcurrency)
	resp := drawManyResponse{Results: results}
	if err != nil {
		resp.Error = err.Error()
		if len(results) == 0 {
			writeJSON(w, drawErrorStatus(err), resp)
			return
		}
		writeJSON(w, http.StatusMultiStatus, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) attach(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	if _, err := s.registry.GetOrCreate(task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	ws, ok := s.sockets[task]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusConflict, fmt.Sprintf("reel %q does not use a websocket presenter", task))
		return
	}
	ws.Handler(&s.upgrader)(w, r)
}

// drawErrorStatus maps a draw failure to an HTTP status.
func drawErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyPool):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConcurrentDraw), errors.Is(err, domain.ErrStaleDraw):
		return http.StatusConflict
	case errors.Is(err, domain.ErrControllerClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrPresentationTargetUnavailable), errors.Is(err, ports.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, application.ErrUnknownTask):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

func parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
