// Package geom holds the stateless geometry used by the wait-time tracker:
// box centroids, ROI containment and windowed speed estimation over a
// position history.
//
// Coordinates are image pixels; timestamps are seconds on the stream clock.
// Nothing in this package allocates per call beyond what the caller passes in.
package geom
