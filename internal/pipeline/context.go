package pipeline

import (
	"context"

	"clipfeed/internal/feed"
	"clipfeed/internal/services"
)

func withItemContext(ctx context.Context, item feed.Item) context.Context {
	ctx = services.WithVideoID(ctx, item.VideoID)
	return services.WithChannel(ctx, item.Channel)
}
