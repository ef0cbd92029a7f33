package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clipfeed/internal/feed"
	"clipfeed/internal/logging"
	"clipfeed/internal/segments"
	"clipfeed/internal/services/llm"
)

const metadataSystemPrompt = "You write social media copy for short vertical video clips. " +
	"Respond with JSON only."

const metadataPromptTemplate = `Create engaging TikTok metadata for this video clip:

Original Video Title: %s
Channel: %s
Segment: %s
Reason: %s

Generate:
1. Catchy TikTok title (max 100 characters)
2. Engaging description (max 300 characters)
3. Relevant hashtags (include %s and others related to crypto/finance)

Return as JSON with keys: title, description, hashtags
Make it engaging for Indonesian crypto/finance audience.`

// fallbackHashtags pad the deterministic metadata when the model is
// unavailable. The configured required hashtags are merged in on top.
var fallbackHashtags = []string{"#crypto", "#finance", "#indonesia"}

// Metadata is the publish-ready copy for one clip.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// Caption renders the upload caption: description followed by hashtags.
func (m Metadata) Caption() string {
	if len(m.Hashtags) == 0 {
		return m.Description
	}
	return m.Description + " " + strings.Join(m.Hashtags, " ")
}

// Completer requests a JSON completion. The llm client satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator produces clip metadata, model-first with a deterministic
// fallback. Either way the configured required hashtags always appear.
type Generator struct {
	completer        Completer
	requiredHashtags []string
	logger           *slog.Logger
}

// NewGenerator builds a generator. requiredHashtags come from the
// [clips] config section.
func NewGenerator(completer Completer, requiredHashtags []string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		completer:        completer,
		requiredHashtags: requiredHashtags,
		logger:           logger,
	}
}

// Generate returns metadata for the clip cut from item at seg. It never
// returns an error: model failures degrade to deterministic copy built
// from the segment itself.
func (g *Generator) Generate(ctx context.Context, item feed.Item, seg segments.Segment) Metadata {
	meta, err := g.fromModel(ctx, item, seg)
	if err != nil {
		g.logger.Warn("metadata generation via model failed, using fallback",
			logging.String(logging.FieldVideoID, item.VideoID),
			logging.Error(err))
		meta = g.fallback(item, seg)
	}
	meta.Hashtags = mergeRequired(meta.Hashtags, g.requiredHashtags)
	return meta
}

func (g *Generator) fromModel(ctx context.Context, item feed.Item, seg segments.Segment) (Metadata, error) {
	if g.completer == nil {
		return Metadata{}, fmt.Errorf("metadata: no completer configured")
	}
	prompt := fmt.Sprintf(metadataPromptTemplate,
		item.Title, item.Channel, seg.Title, seg.Reason,
		strings.Join(g.requiredHashtags, " "))
	content, err := g.completer.CompleteJSON(ctx, metadataSystemPrompt, prompt)
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := llm.DecodeJSON(content, &meta); err != nil {
		return Metadata{}, err
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = seg.Title
	}
	return meta, nil
}

func (g *Generator) fallback(item feed.Item, seg segments.Segment) Metadata {
	reason := seg.Reason
	if reason == "" {
		reason = "momen menarik"
	}
	return Metadata{
		Title:       seg.Title,
		Description: fmt.Sprintf("Clip dari %s - %s", item.Channel, reason),
		Hashtags:    append([]string(nil), fallbackHashtags...),
	}
}

// mergeRequired appends every required hashtag missing from tags,
// without duplicating ones the model already produced.
func mergeRequired(tags, required []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags)+len(required))
	for _, tag := range tags {
		tag = normalizeHashtag(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(tag)]; ok {
			continue
		}
		seen[strings.ToLower(tag)] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range required {
		tag = normalizeHashtag(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(tag)]; ok {
			continue
		}
		seen[strings.ToLower(tag)] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizeHashtag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}
