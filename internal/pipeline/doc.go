// Package pipeline orchestrates the clip workflow: scan channel feeds,
// download new videos, transcribe, select segments, render vertical
// clips, and publish them. Items run strictly one at a time; every item
// reaches a terminal state with its assets cleaned up and its video ID
// recorded as processed.
package pipeline
