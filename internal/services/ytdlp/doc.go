// Package ytdlp wraps the yt-dlp command line downloader. It prefers a
// single combined audio+video format and falls back to downloading the
// streams separately and muxing them with ffmpeg.
package ytdlp
