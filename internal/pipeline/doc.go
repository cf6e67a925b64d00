// Package pipeline drives detection batches through the wait-time machine.
//
// It is the composition root between the detection source, the state
// machine and the output sinks (annotated JSONL, storage, renderers). The
// pipeline does not own wait-time logic; it delegates to waittime.
package pipeline
