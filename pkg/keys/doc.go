// Package keys maps keyboard shortcuts to playback operations.
//
// Default bindings:
//
//	P / p   toggle play and pause
//	[       step back (only while paused)
//	]       step forward (only while paused)
//	R / r   reset
//
// Events are ignored while focus is on a text entry field and when Ctrl or
// Meta (Cmd) is held. A Router holds one Scope per visualizer; each event goes
// to the first scope whose active predicate reports true.
package keys
