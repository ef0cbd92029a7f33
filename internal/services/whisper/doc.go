// Package whisper wraps the whisper speech-to-text CLI.
//
// Audio is first extracted with ffmpeg to a mono 16kHz WAV, then handed to
// the whisper binary with JSON output enabled so segment timestamps can be
// parsed back into the pipeline's transcript model.
package whisper
