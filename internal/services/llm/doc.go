// Package llm provides a minimal client for OpenAI-compatible chat
// completion endpoints.
//
// The client always requests JSON-mode output and retries transient HTTP
// failures with exponential backoff. DecodeJSON tolerates the usual model
// formatting quirks (code fences, prose wrapping) so callers can treat a
// malformed payload as an ordinary error instead of a crash.
package llm
