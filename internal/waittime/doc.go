// Package waittime owns the per-track wait-time state machine.
//
// Responsibilities: bounded position history per track, ROI and resting
// flags, streak bookkeeping with a minimum dwell gate, monotonic wait
// accumulation under irregular sampling, expiry of silent tracks, and the
// sorted mm:ss report.
// Key types: Machine, Track, Store, State, Report.
//
// The package is single-threaded by contract: a Machine is driven by one
// frame loop and never spawns goroutines. No SQL, video or HTTP code is
// allowed here; persistence and rendering consume Events and FrameResults.
package waittime
