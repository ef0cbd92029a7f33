// Package metadata writes titles, descriptions, and hashtags for
// finished clips. The configured required hashtags are guaranteed to be
// present whether the copy comes from the model or the fallback.
package metadata
