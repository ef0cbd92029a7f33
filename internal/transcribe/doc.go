// Package transcribe turns downloaded videos into timed transcripts by
// extracting a mono audio track and running whisper over it.
package transcribe
