// Package application orchestrates draws: the controller state machine,
// the per-task registry, and engine configuration.
package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahrav/go-luckydraw/infrastructure/random"
	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

// Draw outcome labels reported through ports.MetricsCollector.
const (
	statusSuccess           = "success"
	statusEmptyPool         = "empty_pool"
	statusConcurrent        = "concurrent"
	statusClosed            = "closed"
	statusStale             = "stale"
	statusCanceled          = "canceled"
	statusPresentationError = "presentation_error"
)

// ControllerConfig wires a DrawController to its host.
type ControllerConfig struct {
	// Name labels this reel in logs and metrics. Defaults to "default".
	Name string

	// Presenter animates each draw. Required.
	Presenter ports.Presenter

	// Configuration is the initial draw policy. The zero value is replaced
	// by domain.DefaultDrawConfiguration().
	Configuration domain.DrawConfiguration

	// OnSpinStart runs after the controller enters Spinning.
	OnSpinStart func()
	// OnSpinEnd runs after a successful settlement, once the winner is
	// recorded and the controller is Idle again.
	OnSpinEnd func()
	// OnPoolChanged runs after SetCandidates and after a draw removes its
	// winner.
	OnPoolChanged func()
	// A panic in any hook is recovered and logged. Only a panicking
	// OnSpinStart fails the draw.

	// RNG drives the shuffle. Defaults to random.Crypto.
	RNG domain.RNG
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics is optional.
	Metrics ports.MetricsCollector
	// Observer is optional.
	Observer ports.DrawObserver
}

// DrawController runs draws against one candidate pool. Draws are strictly
// serialized: a Draw call made while another is spinning is rejected with
// domain.ErrConcurrentDraw rather than queued.
//
// The winner of a draw is always the last element of the sequence handed to
// the presenter. It is never inferred from how the pool changed, which would
// be ambiguous with duplicate labels and invisible with removal disabled.
//
// Every mutation that invalidates an in-flight draw (SetCandidates, Reset,
// Close) advances a generation counter. A settlement whose captured
// generation no longer matches is discarded without touching the pool or
// running callbacks.
type DrawController struct {
	name      string
	presenter ports.Presenter
	rng       domain.RNG
	logger    *zap.Logger
	metrics   ports.MetricsCollector
	observer  ports.DrawObserver

	onSpinStart   func()
	onSpinEnd     func()
	onPoolChanged func()

	// mu guards every field below it. It is never held across Present or
	// a host callback.
	mu         sync.Mutex
	state      domain.DrawState
	config     domain.DrawConfiguration
	pool       *domain.Pool
	generation uint64
	priorDraw  bool
	lastWinner string
	hasWinner  bool
}

// NewDrawController creates an Idle controller with an empty pool.
// NewDrawController returns an error if no presenter is supplied or the
// configuration is invalid.
func NewDrawController(cfg ControllerConfig) (*DrawController, error) {
	if cfg.Presenter == nil {
		return nil, fmt.Errorf("%w: presenter is required", domain.ErrInvalidConfiguration)
	}

	drawCfg := cfg.Configuration
	if drawCfg == (domain.DrawConfiguration{}) {
		drawCfg = domain.DefaultDrawConfiguration()
	}
	if err := drawCfg.Validate(); err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = "default"
	}
	rng := cfg.RNG
	if rng == nil {
		rng = random.Crypto{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DrawController{
		name:          name,
		presenter:     cfg.Presenter,
		rng:           rng,
		logger:        logger.With(zap.String("reel", name)),
		metrics:       cfg.Metrics,
		observer:      cfg.Observer,
		onSpinStart:   cfg.OnSpinStart,
		onSpinEnd:     cfg.OnSpinEnd,
		onPoolChanged: cfg.OnPoolChanged,
		state:         domain.StateIdle,
		config:        drawCfg,
		pool:          domain.NewPool(nil, drawCfg.KeepDuplicates),
	}, nil
}

// Name returns the reel name.
func (c *DrawController) Name() string { return c.name }

// State returns the current controller state.
func (c *DrawController) State() domain.DrawState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Configuration returns the current draw policy.
func (c *DrawController) Configuration() domain.DrawConfiguration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Candidates returns a copy of the current pool.
func (c *DrawController) Candidates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Items()
}

// LastWinner returns the winner of the most recent successful draw. The
// second result is false before the first draw and after SetCandidates or
// Reset.
func (c *DrawController) LastWinner() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastWinner, c.hasWinner
}

// SetCandidates replaces the pool, clears the last winner and the
// continuity bookkeeping, and fires OnPoolChanged. Calling it while a draw
// is spinning is allowed: the in-flight draw is invalidated and its
// settlement discarded, so it can never write into the new pool.
func (c *DrawController) SetCandidates(labels []string) {
	c.mu.Lock()
	if c.state == domain.StateClosed {
		c.mu.Unlock()
		return
	}
	c.pool.Replace(labels)
	c.generation++
	c.priorDraw = false
	c.lastWinner, c.hasWinner = "", false
	size := c.pool.Len()
	c.mu.Unlock()

	c.logger.Debug("candidates replaced", zap.Int("pool_size", size))
	c.recordPoolSize(size)
	_ = c.fire("OnPoolChanged", c.onPoolChanged)
}

// SetRemoveWinnerOnDraw changes the removal policy. A draw already spinning
// keeps the policy it started with.
func (c *DrawController) SetRemoveWinnerOnDraw(remove bool) {
	c.mu.Lock()
	c.config.RemoveWinnerOnDraw = remove
	c.mu.Unlock()
}

// Reconfigure replaces the draw policy. It is only accepted while Idle.
func (c *DrawController) Reconfigure(cfg domain.DrawConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case domain.StateSpinning:
		return domain.NewDrawError("", "Reconfigure", domain.ErrConcurrentDraw)
	case domain.StateClosed:
		return domain.NewDrawError("", "Reconfigure", domain.ErrControllerClosed)
	}
	c.config = cfg
	c.pool.SetKeepDuplicates(cfg.KeepDuplicates)
	return nil
}

// Reset invalidates any in-flight draw and clears the last winner and
// continuity bookkeeping. The pool is left as it is.
func (c *DrawController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.priorDraw = false
	c.lastWinner, c.hasWinner = "", false
}

// Close moves the controller to Closed. An in-flight draw settles as
// stale and further draws are rejected. Close is idempotent.
func (c *DrawController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.StateClosed {
		return
	}
	c.generation++
	c.state = domain.StateClosed
}

// drawTicket is everything captured when a draw leaves Idle.
type drawTicket struct {
	id         string
	generation uint64
	sequence   []string
	config     domain.DrawConfiguration
	poolSize   int
}

// Draw runs one full draw: it builds a sequence from the pool, hands it to
// the presenter, waits for settlement, and applies the removal policy.
//
// Draw returns domain.ErrConcurrentDraw if another draw is spinning,
// domain.ErrEmptyPool if there are no candidates, and
// domain.ErrControllerClosed after Close; none of these fire callbacks.
// A presenter failure is returned wrapped in a *domain.PresentationError
// and leaves the pool and last winner untouched, as does a panic in
// OnSpinStart. If the controller was
// invalidated while spinning, Draw returns domain.ErrStaleDraw.
// All errors are *domain.DrawError values.
func (c *DrawController) Draw(ctx context.Context) (domain.DrawResult, error) {
	ticket, err := c.begin()
	if err != nil {
		c.recordOutcome(statusForRejection(err), 0)
		c.logger.Debug("draw rejected", zap.Error(err))
		return domain.DrawResult{}, err
	}

	start := time.Now()
	if c.observer != nil {
		ctx = c.observer.DrawStarted(ctx, ticket.id, ticket.poolSize)
	}
	c.logger.Debug("spin started",
		zap.String("draw_id", ticket.id),
		zap.Int("pool_size", ticket.poolSize),
		zap.Int("sequence_length", len(ticket.sequence)),
	)
	if c.metrics != nil {
		c.metrics.RecordHistogram("sequence_length", float64(len(ticket.sequence)), c.labels())
	}
	// A panicking OnSpinStart fails the draw like a presenter error, so
	// the controller still returns to Idle.
	op, failure := "OnSpinStart", c.fire("OnSpinStart", c.onSpinStart)
	if failure == nil {
		op, failure = "Present", c.present(ctx, ticket.sequence)
	}

	result, err := c.settle(ticket, op, failure, time.Since(start))
	if c.observer != nil {
		if err != nil {
			c.observer.DrawFinished(ctx, ticket.id, nil, err)
		} else {
			c.observer.DrawFinished(ctx, ticket.id, &result, nil)
		}
	}
	if err != nil {
		status := statusPresentationError
		switch {
		case errors.Is(err, domain.ErrStaleDraw):
			status = statusStale
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = statusCanceled
		}
		c.recordOutcome(status, time.Since(start))
		c.logger.Warn("draw failed", zap.String("draw_id", ticket.id), zap.Error(err))
		return domain.DrawResult{}, err
	}

	c.recordOutcome(statusSuccess, result.Duration)
	c.recordPoolSize(result.PoolSize)
	c.logger.Debug("draw settled",
		zap.String("draw_id", result.ID),
		zap.String("winner", result.Winner),
		zap.Bool("removed", result.Removed),
		zap.Int("pool_size", result.PoolSize),
	)

	// The winner is already recorded; hook failures past this point are
	// logged and do not hide the result.
	if result.Removed {
		_ = c.fire("OnPoolChanged", c.onPoolChanged)
	}
	_ = c.fire("OnSpinEnd", c.onSpinEnd)
	return result, nil
}

// begin checks preconditions and moves the controller to Spinning.
func (c *DrawController) begin() (drawTicket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case domain.StateSpinning:
		return drawTicket{}, domain.NewDrawError("", "Draw", domain.ErrConcurrentDraw)
	case domain.StateClosed:
		return drawTicket{}, domain.NewDrawError("", "Draw", domain.ErrControllerClosed)
	}
	if c.pool.IsEmpty() {
		return drawTicket{}, domain.NewDrawError("", "Draw", domain.ErrEmptyPool)
	}

	seq, err := domain.BuildSequence(c.pool.Items(), domain.SequenceOptions{
		TargetLength:          c.config.PresentationLength,
		PriorDrawOccurred:     c.priorDraw,
		ReserveContinuitySlot: c.config.ReserveContinuitySlot,
	}, c.rng)
	if err != nil {
		return drawTicket{}, domain.NewDrawError("", "BuildSequence", err)
	}

	c.state = domain.StateSpinning
	return drawTicket{
		id:         uuid.NewString(),
		generation: c.generation,
		sequence:   seq,
		config:     c.config,
		poolSize:   c.pool.Len(),
	}, nil
}

// present calls the presenter with its own copy of the sequence so the
// adapter cannot alter the labels the winner is read from. Panics are
// converted into errors.
func (c *DrawController) present(ctx context.Context, seq []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewPresentationError(c.presenter.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	if err := c.presenter.Present(ctx, slices.Clone(seq)); err != nil {
		return domain.NewPresentationError(c.presenter.Name(), err)
	}
	return nil
}

// settle applies a finished presentation to the controller state. failure
// is the error raised by operation op, if any.
func (c *DrawController) settle(t drawTicket, op string, failure error, elapsed time.Duration) (domain.DrawResult, error) {
	winner, _ := domain.WinnerOf(t.sequence)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.StateSpinning {
		c.state = domain.StateIdle
	}
	if c.generation != t.generation {
		return domain.DrawResult{}, domain.NewDrawError(t.id, "Settle", domain.ErrStaleDraw)
	}
	if failure != nil {
		return domain.DrawResult{}, domain.NewDrawError(t.id, op, failure)
	}

	removed := false
	if t.config.RemoveWinnerOnDraw {
		removed = c.pool.RemoveFirstMatching(winner)
	}
	c.lastWinner, c.hasWinner = winner, true
	c.priorDraw = true

	return domain.DrawResult{
		ID:       t.id,
		Sequence: t.sequence,
		Winner:   winner,
		Removed:  removed,
		PoolSize: c.pool.Len(),
		Duration: elapsed,
	}, nil
}

func (c *DrawController) labels() map[string]string {
	return map[string]string{"reel": c.name}
}

func (c *DrawController) recordOutcome(status string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	labels := c.labels()
	labels["status"] = status
	c.metrics.RecordCounter("draws_total", 1, labels)
	if elapsed > 0 {
		c.metrics.RecordLatency("draw", elapsed, labels)
	}
}

func (c *DrawController) recordPoolSize(size int) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordGauge("pool_size", float64(size), c.labels())
}

func statusForRejection(err error) string {
	switch {
	case errors.Is(err, domain.ErrConcurrentDraw):
		return statusConcurrent
	case errors.Is(err, domain.ErrControllerClosed):
		return statusClosed
	case errors.Is(err, domain.ErrEmptyPool):
		return statusEmptyPool
	default:
		return statusPresentationError
	}
}

// fire runs a host hook, converting a panic into an error.
func (c *DrawController) fire(name string, hook func()) (err error) {
	if hook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s hook panicked: %v", name, r)
			c.logger.Error("host hook panicked", zap.String("hook", name), zap.Any("panic", r))
		}
	}()
	hook()
	return nil
}
