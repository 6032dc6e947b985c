/*
Package session keeps the playback sessions of a long running process.

Each session is one visualizer instance: a playback controller over a trace
generated for a registered algorithm, identified by a random UUID. Sessions live
only in memory; closing one cancels its advance timer.
*/
package session
