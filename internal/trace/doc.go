// Package trace records spans of a link run to diagnose slow or stuck links.
//
// Enable tracing from the command line:
//
//	asglink link --trace=- --trace-level=detail -o out.asg a.asg b.asg
//
// Tracers:
//
//   - Nop: no-op tracer used when tracing is off
//   - StreamTracer: writes every event immediately (file or stderr)
//   - RingTracer: keeps the last events in memory and writes them on Close
//
// Levels select the scopes that are emitted: phase covers the link run and
// its driver states, detail adds one span per input file with its merge and
// bind passes, debug adds node-level events.
//
// Tracers travel through the driver and the linker in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "bind")
//	defer span.End("")
//
// A heartbeat started with StartHeartbeat reports the unfinished spans, so a
// stuck link shows where it stopped.
package trace
