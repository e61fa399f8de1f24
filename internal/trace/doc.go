// Package trace records what the compiler is doing while it runs.
//
// Events are grouped by scope: the driver, one pass over a unit (check,
// lower), one match expression, and the individual specialization steps of
// the exhaustiveness analyzer. The level chooses how deep to go:
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Per match expression
//   - LevelDebug: Everything including analyzer steps
//
// Tracers are propagated via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "check", parentID)
//	defer span.End("")
//
// Every tracer created by New stamps its events with a run id so traces of
// concurrent invocations can be told apart.
package trace
