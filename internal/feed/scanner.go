package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"clipfeed/internal/logging"
)

// recencyWindow keeps only videos published within the last day, so an
// hourly scan never picks up a channel's back catalog.
const recencyWindow = 24 * time.Hour

// Item is one new video discovered in a channel feed.
type Item struct {
	Channel     string
	VideoID     string
	URL         string
	Title       string
	PublishedAt time.Time
}

// ProcessedChecker reports whether a video has already been handled.
type ProcessedChecker interface {
	Contains(ctx context.Context, videoID string) (bool, error)
}

// Parser fetches and parses one feed URL. *gofeed.Parser satisfies it.
type Parser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// Scanner polls a registry of channel feeds for fresh, unprocessed videos.
type Scanner struct {
	channels  map[string]string
	parser    Parser
	processed ProcessedChecker
	logger    *slog.Logger
	now       func() time.Time
}

// NewScanner builds a scanner over the given channel registry
// (display name to feed URL).
func NewScanner(channels map[string]string, processed ProcessedChecker, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		channels:  channels,
		parser:    gofeed.NewParser(),
		processed: processed,
		logger:    logger,
		now:       time.Now,
	}
}

// WithParser sets a custom feed parser (for testing).
func (s *Scanner) WithParser(parser Parser) {
	if parser != nil {
		s.parser = parser
	}
}

// WithClock sets a custom time source (for testing).
func (s *Scanner) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Scan fetches every channel feed and returns items published within the
// recency window that are not yet processed. A channel whose feed cannot
// be fetched or parsed is logged and skipped; the rest still scan.
// Channels are visited in name order and entries keep feed order, so the
// result is deterministic for a fixed set of feeds.
func (s *Scanner) Scan(ctx context.Context) ([]Item, error) {
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)

	var items []Item
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		channelItems, err := s.scanChannel(ctx, name, s.channels[name])
		if err != nil {
			s.logger.Error("channel scan failed",
				logging.String(logging.FieldChannel, name),
				logging.Error(err))
			continue
		}
		items = append(items, channelItems...)
	}
	return items, nil
}

func (s *Scanner) scanChannel(ctx context.Context, name, feedURL string) ([]Item, error) {
	parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cutoff := s.now().Add(-recencyWindow)
	var items []Item
	for _, entry := range parsed.Items {
		if entry == nil || entry.PublishedParsed == nil {
			continue
		}
		if entry.PublishedParsed.Before(cutoff) {
			continue
		}
		videoID := extractVideoID(entry)
		if videoID == "" {
			continue
		}
		seen, err := s.processed.Contains(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("check processed %s: %w", videoID, err)
		}
		if seen {
			continue
		}
		items = append(items, Item{
			Channel:     name,
			VideoID:     videoID,
			URL:         "https://www.youtube.com/watch?v=" + videoID,
			Title:       entry.Title,
			PublishedAt: *entry.PublishedParsed,
		})
	}
	s.logger.Info("channel scanned",
		logging.String(logging.FieldChannel, name),
		logging.Int("entries", len(parsed.Items)),
		logging.Int("new_items", len(items)))
	return items, nil
}

// extractVideoID pulls the video ID from a feed entry, trying the
// yt:videoId extension first, then the "yt:video:" GUID prefix, then
// the watch URL's v parameter.
func extractVideoID(entry *gofeed.Item) string {
	if ext, ok := entry.Extensions["yt"]["videoId"]; ok && len(ext) > 0 {
		if id := strings.TrimSpace(ext[0].Value); id != "" {
			return id
		}
	}
	if id, ok := strings.CutPrefix(entry.GUID, "yt:video:"); ok {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	if entry.Link != "" {
		if parsed, err := url.Parse(entry.Link); err == nil {
			if id := parsed.Query().Get("v"); id != "" {
				return id
			}
		}
	}
	return ""
}
