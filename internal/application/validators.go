package application

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-luckydraw/internal/domain"
)

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RegisterEngineValidators registers the custom tags used by EngineConfig
// on v.
func RegisterEngineValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("metricname", validateMetricName); err != nil {
		return fmt.Errorf("failed to register metricname validator: %w", err)
	}
	return nil
}

// validateMetricName accepts names Prometheus allows as a namespace.
func validateMetricName(fl validator.FieldLevel) bool {
	return metricNamePattern.MatchString(fl.Field().String())
}

// validateSemantics checks rules that span fields and cannot be written as
// struct tags. Every violation is collected into one
// *domain.ValidationError.
func validateSemantics(cfg *EngineConfig) error {
	ve := domain.NewValidationError("EngineConfig")

	var drawErr *domain.ValidationError
	if err := cfg.Draw.Validate(); errors.As(err, &drawErr) {
		for _, msg := range drawErr.Errors {
			ve.AddError(msg)
		}
	} else if err != nil {
		ve.AddError(err.Error())
	}

	p := cfg.Presenter
	if p.Timeout < 0 {
		ve.AddError(fmt.Sprintf("presenter timeout cannot be negative, got %s", p.Timeout))
	}
	switch p.Type {
	case PresenterTimed, PresenterTerminal:
		switch {
		case p.SpinDuration <= 0:
			ve.AddError(fmt.Sprintf("presenter %s requires a positive spin_duration", p.Type))
		case p.FrameInterval <= 0:
			ve.AddError(fmt.Sprintf("presenter %s requires a positive frame_interval", p.Type))
		case p.FrameInterval > p.SpinDuration:
			ve.AddError(fmt.Sprintf("frame_interval %s exceeds spin_duration %s", p.FrameInterval, p.SpinDuration))
		}
		if p.Timeout > 0 && p.Timeout < p.SpinDuration {
			ve.AddError(fmt.Sprintf("timeout %s is shorter than spin_duration %s", p.Timeout, p.SpinDuration))
		}
	}
	if p.RateLimit > 0 && p.Burst < 1 {
		ve.AddError("rate_limit requires burst of at least 1")
	}

	s := cfg.Source
	switch s.Type {
	case SourceFile:
		if s.Path == "" {
			ve.AddError("file source requires a path")
		}
	case SourceSQL:
		if s.Driver == "" || s.DSN == "" || s.Query == "" {
			ve.AddError("sql source requires driver, dsn, and query")
		}
	}
	if s.Watch && s.Type != SourceFile {
		ve.AddError("source watch is only supported for file sources")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
