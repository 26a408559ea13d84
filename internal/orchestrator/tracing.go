package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/jackzampolin/syncread/internal/orchestrator")

// startPhase opens a span around one pipeline phase (extract, segment,
// transcribe, match), tagging it with the session and, where relevant,
// the chunk index so a trace backend can show per-chunk cost and
// latency without the orchestrator needing its own metrics plumbing.
func startPhase(ctx context.Context, sessionID, phase string, chunkIndex int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
		attribute.String("phase", phase),
	}
	if chunkIndex >= 0 {
		attrs = append(attrs, attribute.Int("chunk.index", chunkIndex))
	}
	return tracer.Start(ctx, "orchestrator."+phase, trace.WithAttributes(attrs...))
}
