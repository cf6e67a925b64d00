// Package detect reads per-frame detection batches produced by an external
// detector and tracker. Batches are JSON Lines; each line carries a frame
// index, an optional timestamp in seconds and a list of tracked boxes.
//
// Two layouts are accepted. The object layout:
//
//	{"frame":12,"t":0.40,"detections":[{"id":7,"box":[x1,y1,x2,y2],"class":"car"}]}
//
// and the columnar layout emitted by most tracker exports:
//
//	{"frame":12,"ids":[7],"boxes":[[x1,y1,x2,y2]],"classes":["car"]}
//
// A line that cannot be interpreted is reported as a *BatchError wrapping
// ErrMalformedBatch so callers can skip it and keep reading.
package detect
