/*
Package stepper is a trace generation and playback engine for algorithm visualizers.

An algorithm run is compiled ahead of time into a Trace: an ordered, immutable list of
self-contained Steps. A Controller then plays the Trace back under user control, and the
current position can be captured in a compact share link and restored later.

# Concept

Generation and playback are separate. Generators are pure functions from parameters to
a Trace, so they are deterministic, cacheable and trivially testable. The Controller is
generic: it only knows about a cursor over a list of snapshots, a speed dial and a timer.
Render layers subscribe to View updates and draw whatever the Step payload describes.

# Key Features

  - Deterministic Traces: the same parameters always yield the same steps.
  - Zombie-free Timers: a cancelled advance can never move the cursor.
  - Shareable State: links such as #a=5,2,9&alg=bubble-sort&s=3&sp=40 restore the input, step and speed.
  - Scoped Shortcuts: P, [, ], R drive one visualizer, never while typing into a text field.

# Usage

	vis, err := stepper.New(ctx, "bubble-sort", domain.Params{"array": []int{5, 2, 9}},
		stepper.WithShareBase("https://example.com/sorting"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer vis.Close()

	vis.Subscribe(func(v domain.View) {
		fmt.Println(v.Cursor, v.CurrentStep.Description)
	})
	vis.Play()

# Architecture

  - pkg/domain: Step, Trace, PlaybackState, View and events.
  - pkg/trace: builders, typed generators and the caching decorator.
  - pkg/playback: the Controller.
  - pkg/share: the fragment codec, location and clipboard.
  - pkg/keys: the keyboard shortcut router and the raw terminal key source.
  - pkg/algorithms: reference generators (searches, bubble sort, min-heap).
  - pkg/adapters: trace caches (memory, file, redis), external process generators, HTTP and MCP surfaces.
*/
package stepper
