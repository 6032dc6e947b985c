/*
Package observability turns playback events into logs and Prometheus metrics.

Both are exposed as domain.PlaybackHooks, so they plug into any controller or
session manager and can be combined with domain.Chain.
*/
package observability
