package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ahrav/go-luckydraw/infrastructure/presentation"
	"github.com/ahrav/go-luckydraw/internal/application"
	"github.com/ahrav/go-luckydraw/internal/testutils"
)

func TestPrepareCandidates(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	cfg := application.SourceConfig{FoldCase: true, NearDuplicateDistance: 1}
	got := prepareCandidates([]string{"Alice", "ALICE", "Alicia", "Bob", "Rob"}, cfg, log)

	assert.Equal(t, []string{"Alice", "Alicia", "Bob", "Rob"}, got)
	assert.Equal(t, 1, logs.FilterMessage("folded duplicate candidates").Len())

	warnings := logs.FilterMessage("candidates look alike").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Bob", warnings[0].ContextMap()["a"])
	assert.Equal(t, "Rob", warnings[0].ContextMap()["b"])

	t.Run("leaves duplicates alone without folding", func(t *testing.T) {
		got := prepareCandidates([]string{"A", "a", "A"}, application.SourceConfig{}, zap.NewNop())
		assert.Equal(t, []string{"A", "a", "A"}, got)
	})
}

func TestLoadCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit labels win", func(t *testing.T) {
		cfg := application.SourceConfig{Type: application.SourceFile, Path: "/does/not/exist"}
		got, err := loadCandidates(ctx, cfg, []string{"X", "Y"}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, []string{"X", "Y"}, got)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.txt")
		require.NoError(t, os.WriteFile(path, []byte("# staff\nAlice\n\nBob\n"), 0o600))

		got, err := loadCandidates(ctx, application.SourceConfig{Type: application.SourceFile, Path: path}, nil, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, got)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := application.SourceConfig{
			Type:   application.SourceSQL,
			Driver: "sqlite",
			DSN:    ":memory:",
			Query:  "SELECT 'Alice' UNION ALL SELECT 'Bob'",
		}
		got, err := loadCandidates(ctx, cfg, nil, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadCandidates(ctx, application.SourceConfig{Type: application.SourceFile, Path: "/does/not/exist"}, nil, zap.NewNop())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no source", func(t *testing.T) {
		got, err := loadCandidates(ctx, application.SourceConfig{Type: application.SourceNone}, nil, zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLocalPresenter(t *testing.T) {
	cfg := application.DefaultEngineConfig().Presenter

	tests := []struct {
		typ      string
		wantName string
		wantErr  bool
	}{
		{typ: application.PresenterInstant, wantName: "instant"},
		{typ: application.PresenterTimed, wantName: "timed"},
		{typ: application.PresenterTerminal, wantName: "terminal"},
		{typ: application.PresenterWebSocket, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg.Type = tt.typ
			p, err := localPresenter(cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestLocalPresenter_TimedPrintsWinner(t *testing.T) {
	cfg := application.PresenterConfig{
		Type:          application.PresenterTimed,
		SpinDuration:  5 * time.Millisecond,
		FrameInterval: time.Millisecond,
	}
	var out bytes.Buffer
	p, err := localPresenter(cfg, &out)
	require.NoError(t, err)

	require.NoError(t, p.Present(context.Background(), []string{"A", "B", "C"}))
	assert.Equal(t, "C\n", out.String())
}

func TestPresenterMiddleware(t *testing.T) {
	cfg := application.DefaultEngineConfig().Presenter
	assert.Len(t, presenterMiddleware(cfg, nil, nil), 3, "tracing, timeout, recover")

	cfg.RateLimit, cfg.Burst = 5, 1
	cfg.Timeout = 0
	assert.Len(t, presenterMiddleware(cfg, nil, nil), 3, "tracing, rate limit, recover")

	wrapped := presentation.Chain(presentation.InstantPresenter{}, presenterMiddleware(cfg, nil, nil)...)
	assert.Equal(t, "instant", wrapped.Name())
}

func TestWatchCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alice\n"), 0o600))

	reel, err := application.NewDrawController(application.ControllerConfig{Presenter: testutils.NewMockPresenter()})
	require.NoError(t, err)
	reel.SetCandidates([]string{"Alice"})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watchCandidates(ctx, application.SourceConfig{Type: application.SourceFile, Path: path, FoldCase: true}, reel, zap.NewNop())
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("Alice\nBOB\nbob\n"), 0o600)
		return len(reel.Candidates()) == 2
	}, 3*time.Second, 100*time.Millisecond)
	assert.Equal(t, []string{"Alice", "BOB"}, reel.Candidates())
}
