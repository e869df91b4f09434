package telemetry

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/sieve/internal/core/domain"
)

var _ sdktrace.SpanProcessor = (*MeasurementRecorder)(nil)

// MeasurementRecorder is a span processor that turns every ended span into a
// domain.Measurement.
type MeasurementRecorder struct {
	mu           sync.Mutex
	measurements []domain.Measurement
}

// NewMeasurementRecorder returns an empty MeasurementRecorder.
func NewMeasurementRecorder() *MeasurementRecorder {
	return &MeasurementRecorder{}
}

// OnStart does nothing.
func (r *MeasurementRecorder) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd records the span's duration, keyed by its name and measured URL.
func (r *MeasurementRecorder) OnEnd(s sdktrace.ReadOnlySpan) {
	var identifier string
	for _, attr := range s.Attributes() {
		if string(attr.Key) == domain.URLAttribute {
			identifier = attr.Value.Emit()
			break
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements = append(r.measurements, domain.Measurement{
		Kind:       s.Name(),
		Identifier: identifier,
		Elapsed:    s.EndTime().Sub(s.StartTime()),
	})
}

// Measurements returns a copy of everything recorded so far, in end order.
func (r *MeasurementRecorder) Measurements() []domain.Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Measurement, len(r.measurements))
	copy(out, r.measurements)
	return out
}

// Shutdown does nothing.
func (r *MeasurementRecorder) Shutdown(context.Context) error {
	return nil
}

// ForceFlush does nothing.
func (r *MeasurementRecorder) ForceFlush(context.Context) error {
	return nil
}
