package presentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// tracedPresenter wraps each presentation in a span.
type tracedPresenter struct {
	next   ports.Presenter
	tracer trace.Tracer
}

// TracingMiddleware opens a "presenter.present" span around every
// presentation. A nil provider uses the global one.
func TracingMiddleware(tp trace.TracerProvider) Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer("github.com/ahrav/go-luckydraw/presentation")

	return func(next ports.Presenter) ports.Presenter {
		return &tracedPresenter{next: next, tracer: tracer}
	}
}

func (t *tracedPresenter) Name() string { return t.next.Name() }

// Present runs the wrapped presenter inside a span.
func (t *tracedPresenter) Present(ctx context.Context, sequence []string) error {
	ctx, span := t.tracer.Start(ctx, "presenter.present",
		trace.WithAttributes(
			attribute.String("presenter.name", t.next.Name()),
			attribute.Int("presenter.sequence_length", len(sequence)),
		),
	)
	defer span.End()

	err := t.next.Present(ctx, sequence)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
