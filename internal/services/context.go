package services

import "context"

type contextKey string

const (
	videoIDKey contextKey = "video_id"
	channelKey contextKey = "channel"
	stageKey   contextKey = "stage"
	cycleIDKey contextKey = "cycle_id"
)

// WithVideoID stores the feed item identifier on the context.
func WithVideoID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, videoIDKey, id)
}

// VideoIDFromContext retrieves the feed item identifier from the context.
func VideoIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(videoIDKey).(string)
	return id, ok && id != ""
}

// WithChannel stores the channel display name on the context.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// ChannelFromContext retrieves the channel display name from the context.
func ChannelFromContext(ctx context.Context) (string, bool) {
	channel, ok := ctx.Value(channelKey).(string)
	return channel, ok && channel != ""
}

// WithStage stores the pipeline stage name on the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext retrieves the pipeline stage name from the context.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok && stage != ""
}

// WithCycleID stores the scan-cycle correlation id on the context.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext retrieves the scan-cycle correlation id from the context.
func CycleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cycleIDKey).(string)
	return id, ok && id != ""
}
