package segments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clipfeed/internal/logging"
	"clipfeed/internal/services/llm"
)

const (
	// MinSegmentSeconds is the shortest clip worth publishing.
	MinSegmentSeconds = 30

	// transcriptCharBudget bounds the transcript text included in the
	// prompt so long videos stay under the model's input limit.
	transcriptCharBudget = 4000

	// fallbackStride spaces the deterministic fallback windows.
	fallbackStride = 120
)

const systemPrompt = "You analyze video transcripts and pick the moments most likely " +
	"to perform as short-form vertical clips. Respond with JSON only."

const promptTemplate = `Analyze this video transcript and identify the most engaging segments for TikTok short-form content (%d seconds each).
Look for:
- Controversial or surprising statements
- Valuable tips or insights
- Emotional moments
- Clear explanations of complex topics
- Hooks that grab attention

Transcript: %s

Return a JSON list of segments with start_time, end_time, reason, and suggested_title.
Limit to maximum %d segments.`

// Candidate is one segment proposed by the model, before validation.
type Candidate struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Reason    string  `json:"reason"`
	Title     string  `json:"suggested_title"`
}

// Segment is a validated clip range within the source video.
type Segment struct {
	StartTime float64
	EndTime   float64
	Reason    string
	Title     string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Completer requests a JSON completion. The llm client satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Selector picks clip-worthy segments from a transcript, asking a
// generative model first and falling back to deterministic tiling.
type Selector struct {
	completer    Completer
	clipDuration float64
	maxClips     int
	logger       *slog.Logger
}

// NewSelector builds a selector. clipDuration and maxClips come from
// the [clips] config section.
func NewSelector(completer Completer, clipDuration, maxClips int, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Selector{
		completer:    completer,
		clipDuration: float64(clipDuration),
		maxClips:     maxClips,
		logger:       logger,
	}
}

// Select returns up to maxClips validated segments for a video of the
// given duration. It never returns an error: any failure in the model
// path degrades to evenly tiled windows, worst case an empty slice.
func (s *Selector) Select(ctx context.Context, transcriptText string, duration float64) []Segment {
	candidates, err := s.propose(ctx, transcriptText)
	if err != nil {
		s.logger.Warn("segment selection via model failed, using tiled fallback",
			logging.Error(err))
		return s.Fallback(duration)
	}
	validated := s.validate(candidates, duration)
	s.logger.Info("segments selected",
		logging.Int("proposed", len(candidates)),
		logging.Int("accepted", len(validated)))
	return validated
}

func (s *Selector) propose(ctx context.Context, transcriptText string) ([]Candidate, error) {
	if s.completer == nil {
		return nil, fmt.Errorf("segment selector: no completer configured")
	}
	prompt := fmt.Sprintf(promptTemplate,
		int(s.clipDuration), truncateTranscript(transcriptText), s.maxClips)
	content, err := s.completer.CompleteJSON(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	var candidates []Candidate
	if err := llm.DecodeJSON(content, &candidates); err != nil {
		// Some models wrap the list in an object.
		var wrapped struct {
			Segments []Candidate `json:"segments"`
		}
		if wrapErr := llm.DecodeJSON(content, &wrapped); wrapErr != nil || len(wrapped.Segments) == 0 {
			return nil, err
		}
		candidates = wrapped.Segments
	}
	return candidates, nil
}

// validate clamps candidates to the video bounds, drops ranges shorter
// than MinSegmentSeconds, and caps each at the configured clip duration
// by shrinking the end. Ranking order is preserved.
func (s *Selector) validate(candidates []Candidate, duration float64) []Segment {
	var accepted []Segment
	for _, c := range candidates {
		start := max(0, c.StartTime)
		end := min(duration, c.EndTime)
		if end-start < MinSegmentSeconds {
			continue
		}
		end = min(start+s.clipDuration, end)
		accepted = append(accepted, Segment{
			StartTime: start,
			EndTime:   end,
			Reason:    strings.TrimSpace(c.Reason),
			Title:     strings.TrimSpace(c.Title),
		})
		if len(accepted) == s.maxClips {
			break
		}
	}
	return accepted
}

// Fallback tiles fixed windows across the video: clip_duration seconds
// starting at 0, 120, 240, ... until maxClips windows exist or the next
// window would start at or past the end.
func (s *Selector) Fallback(duration float64) []Segment {
	var segs []Segment
	for start := 0.0; start < duration; start += fallbackStride {
		if len(segs) >= s.maxClips {
			break
		}
		segs = append(segs, Segment{
			StartTime: start,
			EndTime:   min(start+s.clipDuration, duration),
			Reason:    "Auto-generated segment",
			Title:     fmt.Sprintf("Clip %d", len(segs)+1),
		})
	}
	return segs
}

func truncateTranscript(text string) string {
	runes := []rune(text)
	if len(runes) <= transcriptCharBudget {
		return text
	}
	return string(runes[:transcriptCharBudget]) + "..."
}
