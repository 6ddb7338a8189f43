// Package trace is the logging sink of the error pipeline.
//
// Pipeline internals and responders emit Events to a Tracer. Events carry a
// Level and are dropped by tracers configured below it.
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer when logging is disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer of the last events, dumpable on demand
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: nothing is logged
//   - LevelError: reports and fail-fast decisions
//   - LevelWarning: adds responder failures
//   - LevelInfo: adds pipeline setup
//   - LevelDebug: everything, including processing spans
//
// # Spans
//
// Processing of one failure is wrapped in a span at debug level:
//
//	span := trace.Begin(t, "process")
//	defer span.End("")
package trace
