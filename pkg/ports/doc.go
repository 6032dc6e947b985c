/*
Package ports defines the driven ports (interfaces) of the stepper engine.

These interfaces decouple playback from the concrete algorithms and from the
places compiled traces are kept, so the controller works the same whether a trace
comes straight from a generator, from memory, from disk or from Redis.

# Key Interfaces

  - TraceGenerator: compiles algorithm parameters into a complete Trace.
  - TraceCache: memoizes compiled traces by a deterministic key.
  - Clock: schedules the timer that advances playback.
*/
package ports
