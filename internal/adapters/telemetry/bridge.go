package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/incr/internal/core/ports"
)

const statusAttr = "status"

// Bridge implements sdktrace.SpanProcessor and reports finished spans to the logger at Debug level.
// Failed spans are reported at Warn level with the status description.
type Bridge struct {
	logger ports.Logger
}

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// OnStart does nothing.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	args := []any{"duration", s.EndTime().Sub(s.StartTime()).Round(time.Millisecond).String()}
	for _, kv := range s.Attributes() {
		if kv.Key == statusAttr {
			args = append(args, "status", kv.Value.AsString())
		}
	}

	if s.Status().Code == codes.Error {
		b.logger.Warn(s.Name()+" failed", append(args, "error", s.Status().Description)...)
		return
	}
	b.logger.Debug(s.Name()+" finished", args...)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
