package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// ConfigLoader parses and validates EngineConfig documents. Identical
// documents are decoded once and served from a cache keyed by their
// SHA256 hash.
type ConfigLoader struct {
	validator *validator.Validate
	// cache stores validated configs indexed by SHA256 of the source bytes.
	cache   map[string]EngineConfig
	cacheMu sync.RWMutex
	// sf collapses concurrent loads of the same document.
	sf singleflight.Group
}

// NewConfigLoader creates a loader with the engine's custom validators
// registered.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterEngineValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{
		validator: v,
		cache:     make(map[string]EngineConfig),
	}, nil
}

// LoadFromFile reads and validates the config at path. A missing file is
// reported as ports.ErrConfigNotFound.
func (cl *ConfigLoader) LoadFromFile(path string) (EngineConfig, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EngineConfig{}, ports.NewConfigError(cleanPath, ports.ErrConfigNotFound)
		}
		return EngineConfig{}, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := cl.load(data)
	if err != nil {
		return EngineConfig{}, ports.NewConfigError(cleanPath, err)
	}
	return cfg, nil
}

// LoadFromReader reads all of r and validates it.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.load(data)
}

// Validate runs struct and semantic validation on cfg.
func (cl *ConfigLoader) Validate(cfg *EngineConfig) error {
	if err := cl.validator.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := validateSemantics(cfg); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

func (cl *ConfigLoader) load(data []byte) (EngineConfig, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		cl.cacheMu.RLock()
		cached, ok := cl.cache[hash]
		cl.cacheMu.RUnlock()
		if ok {
			return cached, nil
		}

		cfg, err := parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if err := cl.Validate(&cfg); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		cl.cacheMu.Lock()
		cl.cache[hash] = cfg
		cl.cacheMu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return EngineConfig{}, err
	}
	return v.(EngineConfig), nil
}

// parseYAML decodes data on top of DefaultEngineConfig. Unknown fields are
// rejected so typos are not silently ignored.
func parseYAML(data []byte) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return EngineConfig{}, fmt.Errorf("YAML decode failed: %w", err)
	}
	return cfg, nil
}
