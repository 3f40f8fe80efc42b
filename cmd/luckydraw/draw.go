package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-luckydraw/infrastructure/observability"
	"github.com/ahrav/go-luckydraw/infrastructure/presentation"
	"github.com/ahrav/go-luckydraw/internal/application"
	"github.com/ahrav/go-luckydraw/internal/domain"
)

type drawOptions struct {
	count     int
	file      string
	keep      bool
	presenter string
	spin      time.Duration
	length    int
	fold      bool
}

func newDrawCmd() *cobra.Command {
	opts := &drawOptions{}
	cmd := &cobra.Command{
		Use:   "draw [candidates...]",
		Short: "Spin the reel in the terminal and print the winners",
		Long: `Runs one or more draws against the candidate pool and prints each winner.

Candidates are taken from the arguments, else from --file, else from the
source in the configuration file. Winners are removed between draws
unless --keep is given; drawing stops early once the pool is empty.

Example:
  luckydraw draw Alice Bob Carol --count 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDraw(ctx, cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.count, "count", "n", 1, "number of winners to draw")
	f.StringVarP(&opts.file, "file", "f", "", "read candidates from this file, one per line")
	f.BoolVar(&opts.keep, "keep", false, "leave winners in the pool")
	f.StringVar(&opts.presenter, "presenter", "", "override the presenter: instant, timed, or terminal")
	f.DurationVar(&opts.spin, "spin", 0, "override the spin duration")
	f.IntVar(&opts.length, "length", 0, "override the number of labels shown per spin")
	f.BoolVar(&opts.fold, "fold", false, "merge candidates that differ only in case or accents")
	return cmd
}

// applyDrawFlags layers explicitly set flags over the loaded config.
func applyDrawFlags(cmd *cobra.Command, cfg *application.EngineConfig, opts *drawOptions) {
	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Source.Type = application.SourceFile
		cfg.Source.Path = opts.file
	}
	if flags.Changed("keep") {
		cfg.Draw.RemoveWinnerOnDraw = !opts.keep
	}
	if flags.Changed("presenter") {
		cfg.Presenter.Type = opts.presenter
	}
	if flags.Changed("spin") {
		cfg.Presenter.SpinDuration = opts.spin
		if cfg.Presenter.FrameInterval > opts.spin {
			cfg.Presenter.FrameInterval = opts.spin
		}
		if cfg.Presenter.Timeout > 0 && cfg.Presenter.Timeout < opts.spin {
			cfg.Presenter.Timeout = 2 * opts.spin
		}
	}
	if flags.Changed("length") {
		cfg.Draw.PresentationLength = opts.length
	}
	if flags.Changed("fold") {
		cfg.Source.FoldCase = opts.fold
	}
}

func runDraw(ctx context.Context, cmd *cobra.Command, opts *drawOptions, args []string) error {
	if opts.count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", opts.count)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDrawFlags(cmd, &cfg, opts)
	if err := validateConfig(&cfg); err != nil {
		return err
	}

	candidates, err := loadCandidates(ctx, cfg.Source, args, logger)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return errors.New("no candidates: pass them as arguments, with --file, or in the config source")
	}

	out := cmd.OutOrStdout()
	presenter, err := localPresenter(cfg.Presenter, out)
	if err != nil {
		return err
	}

	ctrl, err := application.NewDrawController(application.ControllerConfig{
		Name:          "cli",
		Presenter:     presentation.Chain(presenter, presenterMiddleware(cfg.Presenter, nil, nil)...),
		Configuration: cfg.Draw,
		Logger:        logger,
		Observer:      observability.NewOTelDrawObserver(nil, nil, "cli"),
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()
	ctrl.SetCandidates(candidates)

	return drawWinners(ctx, ctrl, opts.count, out)
}

// drawWinners runs up to count draws and prints each winner. Running out
// of candidates ends the run without an error.
func drawWinners(ctx context.Context, ctrl *application.DrawController, count int, out io.Writer) error {
	for i := 1; i <= count; i++ {
		res, err := ctrl.Draw(ctx)
		if errors.Is(err, domain.ErrEmptyPool) {
			fmt.Fprintf(out, "No candidates left after %d draw(s).\n", i-1)
			return nil
		}
		if err != nil {
			return fmt.Errorf("draw %d failed: %w", i, err)
		}

		logger.Debug("draw settled",
			zap.String("draw_id", res.ID),
			zap.String("winner", res.Winner),
			zap.Int("pool_size", res.PoolSize))
		fmt.Fprintf(out, "Winner #%d: %s (%d left)\n", i, res.Winner, res.PoolSize)
	}
	return nil
}
