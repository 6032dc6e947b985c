/*
Package trace holds the helpers every trace generator is built from.

A generator records its algorithm's execution with a Builder, which deep-copies each
payload on Push so later mutations of the working data cannot reach a step that was
already recorded. Typed adapts a function taking a typed parameter struct into a
ports.TraceGenerator, decoding the generic domain.Params with mapstructure.
CachedGenerator memoizes compiled traces in a ports.TraceCache.
*/
package trace
