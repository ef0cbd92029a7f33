// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it to read a downloaded video's duration, codec, and
// frame dimensions before segment selection and rendering.
package ffprobe
