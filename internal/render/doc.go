// Package render cuts segments out of source videos and produces
// vertical 1080x1920 clips with burned-in captions, driving ffmpeg for
// all media work.
package render
