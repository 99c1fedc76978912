// Package telemetry provides observability instrumentation for snapdrill:
// structured logging (zerolog), distributed tracing (OpenTelemetry), and
// Prometheus metrics.
//
// Initialize telemetry at startup and attach it to the context:
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//	ctx = tel.WithContext(ctx)
//
// The workflow coordinator records one root span per run with a child span
// per phase (poll, locate, cleanup), and counters for submissions, poll
// attempts, cleanups, and failures by kind. Both the Tracer and Metrics
// types are safe to use as nil pointers, which disables them.
package telemetry
