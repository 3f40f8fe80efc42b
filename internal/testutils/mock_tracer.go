package testutils

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

// RecordingTracerProvider hands out tracers whose spans keep every name,
// attribute, event, and status in memory.
type RecordingTracerProvider struct {
	embedded.TracerProvider

	mu    sync.Mutex
	spans []*RecordedSpan
}

// NewRecordingTracerProvider creates an empty provider.
func NewRecordingTracerProvider() *RecordingTracerProvider { return &RecordingTracerProvider{} }

// Tracer implements trace.TracerProvider.
func (p *RecordingTracerProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{provider: p}
}

// Spans returns the spans started so far.
func (p *RecordingTracerProvider) Spans() []*RecordedSpan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*RecordedSpan(nil), p.spans...)
}

type recordingTracer struct {
	embedded.Tracer
	provider *RecordingTracerProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &RecordedSpan{Name: name, Attributes: map[attribute.Key]attribute.Value{}}
	for _, kv := range cfg.Attributes() {
		s.Attributes[kv.Key] = kv.Value
	}

	t.provider.mu.Lock()
	t.provider.spans = append(t.provider.spans, s)
	t.provider.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

// RecordedSpan is a trace.Span that records what was done to it.
type RecordedSpan struct {
	noop.Span

	mu         sync.Mutex
	Name       string
	Attributes map[attribute.Key]attribute.Value
	Events     []string
	Errors     []error
	StatusCode codes.Code
	StatusDesc string
	EndCalled  bool
}

// End implements trace.Span.
func (s *RecordedSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	s.EndCalled = true
	s.mu.Unlock()
}

// AddEvent implements trace.Span.
func (s *RecordedSpan) AddEvent(name string, opts ...trace.EventOption) {
	cfg := trace.NewEventConfig(opts...)
	s.mu.Lock()
	s.Events = append(s.Events, name)
	for _, kv := range cfg.Attributes() {
		s.Attributes[kv.Key] = kv.Value
	}
	s.mu.Unlock()
}

// RecordError implements trace.Span.
func (s *RecordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.mu.Lock()
	s.Errors = append(s.Errors, err)
	s.mu.Unlock()
}

// SetStatus implements trace.Span.
func (s *RecordedSpan) SetStatus(code codes.Code, desc string) {
	s.mu.Lock()
	s.StatusCode, s.StatusDesc = code, desc
	s.mu.Unlock()
}

// SetAttributes implements trace.Span.
func (s *RecordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.mu.Lock()
	for _, a := range kv {
		s.Attributes[a.Key] = a.Value
	}
	s.mu.Unlock()
}

// IsRecording implements trace.Span.
func (s *RecordedSpan) IsRecording() bool { return true }

// HasEvent reports whether an event with name was added.
func (s *RecordedSpan) HasEvent(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Events {
		if e == name {
			return true
		}
	}
	return false
}
