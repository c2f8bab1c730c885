// Package tracing provides OpenTelemetry tracing integration.
//
// Each cycle opens a root span and one child span per stage (generate, publish,
// announce). The trace ID is stamped on cycle log lines so a single day's run can be
// followed across log output.
//
// Example usage:
//
//	import "bloop/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitTracer("bloop")
//	    defer shutdown(context.Background())
//	}
//
//	func generate(ctx context.Context) {
//	    ctx, span := tracing.StartSpan(ctx, "cycle.generate")
//	    defer span.End()
//	    // ... call the language model ...
//	}
package tracing
