// Package innertube downloads videos through YouTube's internal player
// API using an Android client identity, which exposes progressive
// (muxed audio+video) streams with directly fetchable URLs. It serves
// as the fallback when the yt-dlp path fails.
package innertube
