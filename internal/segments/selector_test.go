package segments

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCompleter struct {
	content string
	err     error
	prompts []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.content, f.err
}

func TestSelectValidatesModelCandidates(t *testing.T) {
	completer := &fakeCompleter{content: `[
		{"start_time": -5, "end_time": 50, "reason": "hook", "suggested_title": "Opening"},
		{"start_time": 100, "end_time": 115, "reason": "too short", "suggested_title": "Nope"},
		{"start_time": 200, "end_time": 320, "reason": "insight", "suggested_title": "Deep dive"},
		{"start_time": 560, "end_time": 900, "reason": "ending", "suggested_title": "Outro"}
	]`}
	selector := NewSelector(completer, 60, 5, nil)

	segs := selector.Select(context.Background(), "transcript", 600)
	if len(segs) != 3 {
		t.Fatalf("expected 3 accepted segments, got %d: %+v", len(segs), segs)
	}
	// Negative start clamps to zero, length stays under clip duration.
	if segs[0].StartTime != 0 || segs[0].EndTime != 50 {
		t.Errorf("first segment = [%v,%v], want [0,50]", segs[0].StartTime, segs[0].EndTime)
	}
	// A 120s range shrinks from the end to the 60s clip duration.
	if segs[1].StartTime != 200 || segs[1].EndTime != 260 {
		t.Errorf("second segment = [%v,%v], want [200,260]", segs[1].StartTime, segs[1].EndTime)
	}
	// End past the video clamps to duration before capping.
	if segs[2].StartTime != 560 || segs[2].EndTime != 600 {
		t.Errorf("third segment = [%v,%v], want [560,600]", segs[2].StartTime, segs[2].EndTime)
	}
	if segs[1].Title != "Deep dive" || segs[1].Reason != "insight" {
		t.Errorf("candidate metadata lost: %+v", segs[1])
	}
}

func TestSelectTruncatesToMaxClips(t *testing.T) {
	completer := &fakeCompleter{content: `[
		{"start_time": 0, "end_time": 40},
		{"start_time": 50, "end_time": 90},
		{"start_time": 100, "end_time": 140},
		{"start_time": 150, "end_time": 190}
	]`}
	selector := NewSelector(completer, 60, 2, nil)

	segs := selector.Select(context.Background(), "transcript", 600)
	if len(segs) != 2 {
		t.Fatalf("expected maxClips segments, got %d", len(segs))
	}
	if segs[0].StartTime != 0 || segs[1].StartTime != 50 {
		t.Errorf("ranking order not preserved: %+v", segs)
	}
}

func TestSelectAcceptsWrappedObjectResponse(t *testing.T) {
	completer := &fakeCompleter{content: `{"segments": [
		{"start_time": 10, "end_time": 55, "reason": "r", "suggested_title": "t"}
	]}`}
	selector := NewSelector(completer, 60, 5, nil)

	segs := selector.Select(context.Background(), "transcript", 600)
	if len(segs) != 1 || segs[0].StartTime != 10 {
		t.Fatalf("wrapped response not handled: %+v", segs)
	}
}

func TestSelectFallsBackOnModelError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	selector := NewSelector(completer, 60, 5, nil)

	segs := selector.Select(context.Background(), "transcript", 500)
	want := []Segment{
		{StartTime: 0, EndTime: 60},
		{StartTime: 120, EndTime: 180},
		{StartTime: 240, EndTime: 300},
		{StartTime: 360, EndTime: 420},
		{StartTime: 480, EndTime: 500},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d tiled segments, got %d: %+v", len(want), len(segs), segs)
	}
	for i := range want {
		if segs[i].StartTime != want[i].StartTime || segs[i].EndTime != want[i].EndTime {
			t.Errorf("window %d = [%v,%v], want [%v,%v]", i,
				segs[i].StartTime, segs[i].EndTime, want[i].StartTime, want[i].EndTime)
		}
	}
}

func TestSelectFallsBackOnMalformedJSON(t *testing.T) {
	completer := &fakeCompleter{content: "I think the best parts are near the start."}
	selector := NewSelector(completer, 60, 3, nil)

	segs := selector.Select(context.Background(), "transcript", 400)
	if len(segs) != 3 {
		t.Fatalf("expected 3 tiled segments, got %d", len(segs))
	}
	if segs[2].StartTime != 240 || segs[2].EndTime != 300 {
		t.Errorf("third window = [%v,%v], want [240,300]", segs[2].StartTime, segs[2].EndTime)
	}
}

func TestFallbackShortVideoYieldsNothing(t *testing.T) {
	selector := NewSelector(nil, 60, 5, nil)
	if segs := selector.Fallback(0); len(segs) != 0 {
		t.Fatalf("zero duration should yield no windows, got %+v", segs)
	}
}

func TestSelectPromptRespectsCharacterBudget(t *testing.T) {
	completer := &fakeCompleter{content: `[]`}
	selector := NewSelector(completer, 60, 5, nil)

	long := strings.Repeat("a", transcriptCharBudget*2)
	selector.Select(context.Background(), long, 600)

	if len(completer.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(completer.prompts))
	}
	if count := strings.Count(completer.prompts[0], "a"); count > transcriptCharBudget+100 {
		t.Errorf("prompt carries %d transcript characters, budget is %d", count, transcriptCharBudget)
	}
}
