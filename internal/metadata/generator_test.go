package metadata

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"clipfeed/internal/feed"
	"clipfeed/internal/segments"
)

var required = []string{"#timothyronald", "#akademicrypto"}

type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) CompleteJSON(context.Context, string, string) (string, error) {
	return f.content, f.err
}

func testItem() feed.Item {
	return feed.Item{Channel: "Timothy Ronald", VideoID: "vid1", Title: "Market Update"}
}

func testSegment() segments.Segment {
	return segments.Segment{Title: "Altcoin Season", Reason: "surprising prediction"}
}

func TestGenerateUsesModelAndAppendsRequiredHashtags(t *testing.T) {
	completer := &fakeCompleter{content: `{
		"title": "Altcoin Season is HERE",
		"description": "You will not believe this prediction",
		"hashtags": ["#altcoin", "#bitcoin"]
	}`}
	gen := NewGenerator(completer, required, nil)

	meta := gen.Generate(context.Background(), testItem(), testSegment())
	if meta.Title != "Altcoin Season is HERE" {
		t.Errorf("unexpected title %q", meta.Title)
	}
	for _, tag := range append([]string{"#altcoin", "#bitcoin"}, required...) {
		if !slices.Contains(meta.Hashtags, tag) {
			t.Errorf("hashtags %v missing %s", meta.Hashtags, tag)
		}
	}
}

func TestGenerateDoesNotDuplicateRequiredHashtags(t *testing.T) {
	completer := &fakeCompleter{content: `{
		"title": "t",
		"description": "d",
		"hashtags": ["#timothyronald", "#Akademicrypto", "#extra"]
	}`}
	gen := NewGenerator(completer, required, nil)

	meta := gen.Generate(context.Background(), testItem(), testSegment())
	counts := map[string]int{}
	for _, tag := range meta.Hashtags {
		counts[strings.ToLower(tag)]++
	}
	for tag, n := range counts {
		if n > 1 {
			t.Errorf("hashtag %s appears %d times: %v", tag, n, meta.Hashtags)
		}
	}
}

func TestGenerateFallbackOnModelError(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{err: errors.New("quota exceeded")}, required, nil)

	meta := gen.Generate(context.Background(), testItem(), testSegment())
	if meta.Title != "Altcoin Season" {
		t.Errorf("fallback title should come from the segment, got %q", meta.Title)
	}
	if meta.Description != "Clip dari Timothy Ronald - surprising prediction" {
		t.Errorf("unexpected fallback description %q", meta.Description)
	}
	for _, tag := range required {
		if !slices.Contains(meta.Hashtags, tag) {
			t.Errorf("fallback hashtags %v missing %s", meta.Hashtags, tag)
		}
	}
}

func TestGenerateFallbackOnMalformedJSON(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{content: "sure, here is a title!"}, required, nil)

	meta := gen.Generate(context.Background(), testItem(), testSegment())
	if !strings.HasPrefix(meta.Description, "Clip dari ") {
		t.Errorf("expected fallback description, got %q", meta.Description)
	}
}

func TestGenerateNormalizesBareHashtags(t *testing.T) {
	completer := &fakeCompleter{content: `{
		"title": "t", "description": "d", "hashtags": ["crypto", "#finance"]
	}`}
	gen := NewGenerator(completer, required, nil)

	meta := gen.Generate(context.Background(), testItem(), testSegment())
	if !slices.Contains(meta.Hashtags, "#crypto") {
		t.Errorf("bare hashtag should gain a # prefix: %v", meta.Hashtags)
	}
}

func TestCaptionJoinsDescriptionAndHashtags(t *testing.T) {
	meta := Metadata{Description: "desc", Hashtags: []string{"#a", "#b"}}
	if got := meta.Caption(); got != "desc #a #b" {
		t.Errorf("Caption() = %q", got)
	}
	bare := Metadata{Description: "desc"}
	if got := bare.Caption(); got != "desc" {
		t.Errorf("Caption() without hashtags = %q", got)
	}
}
