package executor

import (
	"context"

	"github.com/openfroyo/typeintro/pkg/telemetry"
)

// Instrumented wraps an Executor with a span and command metrics per call.
type Instrumented struct {
	name  string
	inner Executor
	tel   *telemetry.Telemetry
}

// NewInstrumented wraps inner. name labels the executor in metrics and spans
// (e.g., "local", "ssh").
func NewInstrumented(name string, inner Executor, tel *telemetry.Telemetry) *Instrumented {
	if tel == nil {
		tel = telemetry.NewNopTelemetry()
	}
	return &Instrumented{
		name:  name,
		inner: inner,
		tel:   tel,
	}
}

// Execute runs command on the wrapped executor.
func (i *Instrumented) Execute(ctx context.Context, command string) (string, error) {
	ctx, span := i.tel.Tracer.StartCommandSpan(ctx, i.name, command)
	timer := telemetry.NewTimer()

	out, err := i.inner.Execute(ctx, command)

	i.tel.Metrics.RecordCommand(i.name, err, timer.Duration())
	telemetry.EndSpan(span, err)
	return out, err
}
