// Package acquire downloads source videos, preferring yt-dlp and
// falling back to the Innertube API, with bounded retries and
// exponential backoff between attempts.
package acquire
