package application

import (
	"time"

	"github.com/ahrav/go-luckydraw/internal/domain"
)

// Presenter kinds accepted in PresenterConfig.Type.
const (
	PresenterInstant   = "instant"
	PresenterTimed     = "timed"
	PresenterTerminal  = "terminal"
	PresenterWebSocket = "websocket"
)

// Candidate source kinds accepted in SourceConfig.Type.
const (
	SourceNone = "none"
	SourceFile = "file"
	SourceSQL  = "sql"
)

// EngineConfig is the complete configuration for a lucky-draw deployment
// and the root of the YAML document read by ConfigLoader.
type EngineConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning.
	Version string `yaml:"version" validate:"required,semver"`
	// Draw is the policy every reel starts with.
	Draw domain.DrawConfiguration `yaml:"draw"`
	// Presenter selects and tunes the presentation adapter.
	Presenter PresenterConfig `yaml:"presenter"`
	// Source optionally loads the initial candidate list.
	Source SourceConfig `yaml:"source"`
	// Metrics controls Prometheus export.
	Metrics MetricsConfig `yaml:"metrics"`
}

// PresenterConfig describes how spins are shown and paced.
type PresenterConfig struct {
	// Type picks the adapter implementation.
	Type string `yaml:"type" validate:"required,oneof=instant timed terminal websocket"`
	// SpinDuration is the total animation time for timed presenters.
	SpinDuration time.Duration `yaml:"spin_duration"`
	// FrameInterval is the delay between the first two frames. Later
	// frames slow down from here.
	FrameInterval time.Duration `yaml:"frame_interval"`
	// Timeout bounds a single presentation. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit caps spins per second across the deployment. Zero
	// disables it.
	RateLimit float64 `yaml:"rate_limit" validate:"min=0,max=1000"`
	// Burst is the token bucket size used with RateLimit.
	Burst int `yaml:"burst" validate:"min=0,max=1000"`
}

// SourceConfig describes where candidates come from at startup.
type SourceConfig struct {
	// Type picks the source implementation.
	Type string `yaml:"type" validate:"omitempty,oneof=none file sql"`
	// Path is the candidate file for the file source.
	Path string `yaml:"path"`
	// Driver is the database/sql driver name for the sql source.
	Driver string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
	// DSN is the data source name for the sql source.
	DSN string `yaml:"dsn"`
	// Query must select a single text column of labels.
	Query string `yaml:"query"`
	// Watch reloads a file source whenever it changes. Only serve uses it.
	Watch bool `yaml:"watch"`
	// Retries is how many times a failed load is retried with backoff.
	Retries int `yaml:"retries" validate:"min=0,max=10"`
	// FoldCase merges labels that differ only in case or Unicode form.
	FoldCase bool `yaml:"fold_case"`
	// NearDuplicateDistance logs pairs of labels within this edit
	// distance. Zero disables the check.
	NearDuplicateDistance int `yaml:"near_duplicate_distance" validate:"min=0,max=10"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	// Enabled turns on metric collection and the /metrics endpoint.
	Enabled bool `yaml:"enabled"`
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" validate:"omitempty,metricname"`
}

// DefaultEngineConfig returns the configuration used when no file is
// given. Loaded files are decoded on top of these values.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Version: "1.0.0",
		Draw:    domain.DefaultDrawConfiguration(),
		Presenter: PresenterConfig{
			Type:          PresenterTerminal,
			SpinDuration:  3 * time.Second,
			FrameInterval: 40 * time.Millisecond,
			Timeout:       30 * time.Second,
		},
		Source: SourceConfig{Type: SourceNone},
		Metrics: MetricsConfig{
			Namespace: "luckydraw",
		},
	}
}
