// Package segments picks which parts of a video become clips. A
// generative model proposes ranges which are validated against the real
// video duration; when the model path fails in any way the selector
// degrades to deterministic evenly spaced windows.
package segments
