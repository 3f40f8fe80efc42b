// Package observability traces draws with OpenTelemetry.
package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.DrawObserver = (*OTelDrawObserver)(nil)

const tracerName = "github.com/ahrav/go-luckydraw/draw"

// OTelDrawObserver opens one span per draw, from spin start to settlement,
// and records pool depletion events on it. The span travels in the
// context, so a single observer can serve any number of reels.
type OTelDrawObserver struct {
	tracer  trace.Tracer
	metrics ports.MetricsCollector
	reel    string
}

// NewOTelDrawObserver creates an observer for the reel named reel. A nil
// provider falls back to the global one; metrics may be nil.
func NewOTelDrawObserver(tp trace.TracerProvider, metrics ports.MetricsCollector, reel string) *OTelDrawObserver {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &OTelDrawObserver{
		tracer:  tp.Tracer(tracerName),
		metrics: metrics,
		reel:    reel,
	}
}

// DrawStarted implements ports.DrawObserver.
func (o *OTelDrawObserver) DrawStarted(ctx context.Context, drawID string, poolSize int) context.Context {
	ctx, span := o.tracer.Start(ctx, "DrawController.Draw",
		trace.WithAttributes(
			attribute.String("draw.id", drawID),
			attribute.String("draw.reel", o.reel),
			attribute.Int("draw.pool_size", poolSize),
		),
	)
	span.AddEvent("spin.started")
	return ctx
}

// DrawFinished implements ports.DrawObserver. It ends the span opened by
// DrawStarted.
func (o *OTelDrawObserver) DrawFinished(ctx context.Context, drawID string, result *domain.DrawResult, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if err != nil {
		if errors.Is(err, domain.ErrStaleDraw) {
			span.AddEvent("spin.discarded", trace.WithAttributes(attribute.String("draw.id", drawID)))
			if o.metrics != nil {
				o.metrics.RecordCounter("stale_settlements_total", 1, map[string]string{"reel": o.reel})
			}
		} else {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("draw.winner", result.Winner),
		attribute.Int("draw.sequence_length", len(result.Sequence)),
		attribute.Bool("draw.removed", result.Removed),
		attribute.Int("draw.pool_size_after", result.PoolSize),
	)
	span.AddEvent("spin.settled")
	o.checkPoolDepletion(span, result)
	span.SetStatus(codes.Ok, "")
}

// checkPoolDepletion marks the span when a removal leaves the pool empty
// or down to its last candidate.
func (o *OTelDrawObserver) checkPoolDepletion(span trace.Span, result *domain.DrawResult) {
	if !result.Removed || result.PoolSize > 1 {
		return
	}

	event := "pool.last_candidate"
	if result.PoolSize == 0 {
		event = "pool.exhausted"
	}
	span.AddEvent(event, trace.WithAttributes(attribute.Int("draw.pool_size_after", result.PoolSize)))
	if o.metrics != nil {
		o.metrics.RecordCounter("pool_depletion_events_total", 1, map[string]string{"reel": o.reel, "event": event})
	}
}
