// Package share turns a small piece of visualizer state into a compact URL fragment
// and back.
//
// A fragment looks like
//
//	#[prefix-]key1=v1&key2=v2
//
// The key set is fixed per feature and declared with `share` struct tags on the
// state type. Fields are emitted in declaration order; undefined (nil) and empty
// fields are omitted. Decoding is lenient: unknown keys are ignored and a malformed
// value drops only its own field.
package share
