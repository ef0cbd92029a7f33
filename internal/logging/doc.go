// Package logging centralizes slog construction and the structured
// attribute vocabulary used across clipfeed.
//
// Components receive a *slog.Logger at construction and tag it with a
// component attribute. Per-item fields (video id, channel, stage) travel
// on the context and are attached with WithContext so every log line
// emitted while processing an item carries the same correlation fields.
package logging
