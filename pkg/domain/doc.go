/*
Package domain contains the core models of the stepper playback engine.

It defines what an algorithm run looks like once it has been compiled ahead of time,
and the state a player keeps while walking through it. This package is kept pure and
free of I/O, timers and persistence.

# Key Entities

  - Step: an immutable snapshot of algorithm state plus a human readable description.
  - Trace: the ordered, non-empty list of Steps produced by one generator run.
  - PlaybackState: cursor, playing flag and speed owned by a playback controller.
  - View: what a render layer receives every time the playback state changes.
  - PlaybackHooks: observability callbacks fired on every controller transition.
*/
package domain
