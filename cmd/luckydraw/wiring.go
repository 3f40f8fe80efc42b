package main

import (
	"context"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/ahrav/go-luckydraw/infrastructure/presentation"
	"github.com/ahrav/go-luckydraw/infrastructure/source"
	"github.com/ahrav/go-luckydraw/internal/application"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
	watchDebounce  = 250 * time.Millisecond
)

// loadCandidates returns the initial candidate list. Explicit labels win
// over the configured source. The result is cleaned according to cfg.
func loadCandidates(ctx context.Context, cfg application.SourceConfig, explicit []string, log *zap.Logger) ([]string, error) {
	labels := explicit
	if len(labels) == 0 {
		var err error
		if labels, err = readSource(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return prepareCandidates(labels, cfg, log), nil
}

func readSource(ctx context.Context, cfg application.SourceConfig) ([]string, error) {
	switch cfg.Type {
	case application.SourceFile:
		return withRetry(source.NewFileSource(cfg.Path), cfg).Load(ctx)
	case application.SourceSQL:
		src, db, err := source.OpenSQLSource(ctx, cfg.Driver, cfg.DSN, cfg.Query)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return withRetry(src, cfg).Load(ctx)
	default:
		return nil, nil
	}
}

func withRetry(src ports.CandidateSource, cfg application.SourceConfig) ports.CandidateSource {
	return source.WithRetry(src, cfg.Retries, retryBaseDelay, retryMaxDelay)
}

// prepareCandidates folds duplicates when asked and warns about labels
// that look like typos of each other. The list is never reordered.
func prepareCandidates(labels []string, cfg application.SourceConfig, log *zap.Logger) []string {
	if cfg.FoldCase {
		before := len(labels)
		labels = source.FoldDuplicates(labels)
		if dropped := before - len(labels); dropped > 0 {
			log.Info("folded duplicate candidates", zap.Int("dropped", dropped))
		}
	}
	for _, nd := range source.NearDuplicates(labels, cfg.NearDuplicateDistance) {
		log.Warn("candidates look alike",
			zap.String("a", nd.A),
			zap.String("b", nd.B),
			zap.Int("distance", nd.Distance))
	}
	return labels
}

// watchCandidates replaces the reel's candidates whenever the source file
// changes. A spin in flight when the file changes settles as stale.
func watchCandidates(ctx context.Context, cfg application.SourceConfig, reel *application.DrawController, log *zap.Logger) {
	err := source.NewFileSource(cfg.Path).Watch(ctx, watchDebounce, func(labels []string) {
		labels = prepareCandidates(labels, cfg, log)
		reel.SetCandidates(labels)
		log.Info("candidates reloaded", zap.String("path", cfg.Path), zap.Int("pool_size", len(labels)))
	}, func(err error) {
		log.Warn("candidate reload failed", zap.Error(err))
	})
	if err != nil {
		log.Error("cannot watch candidates", zap.Error(err))
	}
}

// presenterMiddleware builds the chain every presenter is wrapped in,
// outermost first. metrics may be nil.
func presenterMiddleware(cfg application.PresenterConfig, metrics ports.MetricsCollector, tp trace.TracerProvider) []presentation.Middleware {
	mw := []presentation.Middleware{presentation.TracingMiddleware(tp)}
	if metrics != nil {
		mw = append(mw, presentation.MetricsMiddleware(metrics))
	}
	if cfg.RateLimit > 0 {
		mw = append(mw, presentation.RateLimitMiddleware(rate.Limit(cfg.RateLimit), cfg.Burst))
	}
	if cfg.Timeout > 0 {
		mw = append(mw, presentation.TimeoutMiddleware(cfg.Timeout))
	}
	return append(mw, presentation.RecoverMiddleware())
}

// localPresenter builds a presenter that renders to out. The websocket
// presenter needs a server and is built by serve instead.
func localPresenter(cfg application.PresenterConfig, out io.Writer) (ports.Presenter, error) {
	switch cfg.Type {
	case application.PresenterInstant:
		return presentation.InstantPresenter{}, nil
	case application.PresenterTerminal:
		p, err := presentation.NewTimedPresenter(presentation.NewTerminalSink(out), cfg.SpinDuration, cfg.FrameInterval)
		if err != nil {
			return nil, err
		}
		return p.WithName(application.PresenterTerminal), nil
	case application.PresenterTimed:
		// Only the settled label is printed, for output that is piped.
		sink := presentation.FrameSinkFunc(func(f presentation.Frame) error {
			if !f.Final {
				return nil
			}
			_, err := fmt.Fprintln(out, f.Label)
			return err
		})
		p, err := presentation.NewTimedPresenter(sink, cfg.SpinDuration, cfg.FrameInterval)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("presenter %q cannot render locally", cfg.Type)
	}
}
