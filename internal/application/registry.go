package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

// ErrUnknownTask indicates that no reel is registered for a task ID.
var ErrUnknownTask = errors.New("unknown task")

// PresenterFactory builds the presenter for a newly created reel.
type PresenterFactory func(taskID string) (ports.Presenter, error)

// ObserverFactory builds the draw observer for a newly created reel.
type ObserverFactory func(taskID string) ports.DrawObserver

// ReleaseFunc frees whatever a PresenterFactory set up for a task.
type ReleaseFunc func(taskID string)

// Registry holds one DrawController per task. Controllers for different
// tasks are fully independent and may spin at the same time.
type Registry struct {
	// template supplies every setting except Name and Presenter.
	template ControllerConfig
	// newPresenter is called once per task on creation.
	newPresenter PresenterFactory
	newObserver  ObserverFactory
	release      ReleaseFunc
	logger       *zap.Logger

	// mu protects concurrent access to the controllers map.
	mu          sync.RWMutex
	controllers map[string]*DrawController
}

// NewRegistry creates an empty registry. template is copied into every
// controller the registry creates; its Presenter field is ignored in
// favour of newPresenter.
func NewRegistry(template ControllerConfig, newPresenter PresenterFactory) (*Registry, error) {
	if newPresenter == nil {
		return nil, fmt.Errorf("%w: presenter factory is required", domain.ErrInvalidConfiguration)
	}
	logger := template.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		template:     template,
		newPresenter: newPresenter,
		logger:       logger,
		controllers:  make(map[string]*DrawController),
	}, nil
}

// WithObservers makes every reel created from now on use an observer built
// by newObserver instead of the template's. It returns r for chaining.
func (r *Registry) WithObservers(newObserver ObserverFactory) *Registry {
	r.mu.Lock()
	r.newObserver = newObserver
	r.mu.Unlock()
	return r
}

// WithRelease registers release to run whenever a reel is removed or the
// registry is closed. It runs under the same lock as the presenter
// factory, so a reel recreated concurrently never has its fresh presenter
// released. It returns r for chaining.
func (r *Registry) WithRelease(release ReleaseFunc) *Registry {
	r.mu.Lock()
	r.release = release
	r.mu.Unlock()
	return r
}

// Get returns the controller for taskID, if one exists.
func (r *Registry) Get(taskID string) (*DrawController, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[taskID]
	return c, ok
}

// GetOrCreate returns the controller for taskID, creating it on first use.
func (r *Registry) GetOrCreate(taskID string) (*DrawController, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task ID cannot be empty", domain.ErrInvalidConfiguration)
	}
	if c, ok := r.Get(taskID); ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[taskID]; ok {
		return c, nil
	}

	presenter, err := r.newPresenter(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter for task %s: %w", taskID, err)
	}

	cfg := r.template
	cfg.Name = taskID
	cfg.Presenter = presenter
	if r.newObserver != nil {
		cfg.Observer = r.newObserver(taskID)
	}
	c, err := NewDrawController(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller for task %s: %w", taskID, err)
	}
	r.controllers[taskID] = c
	r.logger.Debug("reel created", zap.String("task_id", taskID))
	return c, nil
}

// Remove closes and forgets the controller for taskID. A draw still
// spinning on it settles as stale. Remove reports whether a controller
// was found.
func (r *Registry) Remove(taskID string) bool {
	r.mu.Lock()
	c, ok := r.controllers[taskID]
	delete(r.controllers, taskID)
	if ok && r.release != nil {
		r.release(taskID)
	}
	r.mu.Unlock()

	if ok {
		c.Close()
		r.logger.Debug("reel removed", zap.String("task_id", taskID))
	}
	return ok
}

// TaskIDs returns the registered task IDs in sorted order.
func (r *Registry) TaskIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every controller and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	controllers := r.controllers
	r.controllers = make(map[string]*DrawController)
	if r.release != nil {
		for id := range controllers {
			r.release(id)
		}
	}
	r.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}

// DrawMany draws once on each listed task concurrently, with at most
// maxConcurrency draws in flight (unlimited when maxConcurrency < 1).
// A failing reel does not stop the others: successful results are
// returned alongside a joined error describing every failure.
//
// Each task may be listed once. A repeated ID is rejected before any reel
// spins, since results are keyed by task.
func (r *Registry) DrawMany(ctx context.Context, taskIDs []string, maxConcurrency int) (map[string]domain.DrawResult, error) {
	seen := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate task %q", domain.ErrInvalidConfiguration, id)
		}
		seen[id] = struct{}{}
	}

	controllers := make([]*DrawController, len(taskIDs))
	for i, id := range taskIDs {
		c, ok := r.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownTask, id)
		}
		controllers[i] = c
	}

	results := make([]domain.DrawResult, len(taskIDs))
	errs := make([]error, len(taskIDs))

	var g errgroup.Group
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i, c := range controllers {
		g.Go(func() error {
			res, err := c.Draw(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("task %s: %w", taskIDs[i], err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]domain.DrawResult, len(taskIDs))
	for i, id := range taskIDs {
		if errs[i] == nil {
			out[id] = results[i]
		}
	}
	return out, errors.Join(errs...)
}
