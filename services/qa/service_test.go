package qa

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"yt-sections/errors"
	"yt-sections/llm"
	"yt-sections/models"
)

type fakeRepo struct {
	mu     sync.Mutex
	videos map[string]*models.Video
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{videos: make(map[string]*models.Video)}
}

func (r *fakeRepo) Find(ctx context.Context, id string) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, errors.NotFound("fakeRepo.Find", nil, "Video not found")
	}
	clone := *v
	return &clone, nil
}

type fakeInvoker struct {
	calls    int
	lastReq  llm.Request
	response string
	err      error
}

func (f *fakeInvoker) Invoke(ctx context.Context, req llm.Request, out interface{}) error {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func sectionedVideo(id string) *models.Video {
	return &models.Video{
		ID:     id,
		Status: models.StatusCompleted,
		Transcription: &models.Transcription{
			Text: "first part words second part words",
			Words: []models.Word{
				{Text: "first", Start: 0, End: 1},
				{Text: "part", Start: 1, End: 2},
				{Text: "words", Start: 2, End: 3},
				{Text: "second", Start: 12, End: 13},
				{Text: "part", Start: 13, End: 14},
				{Text: "words", Start: 14, End: 15},
			},
		},
		Sections: []models.Section{
			{Title: "First", Start: "00:00:00", End: "00:00:10", Summary: []string{"opening"}},
			{Title: "Second", Start: "00:00:10", End: "00:00:20", Summary: []string{"middle"}},
		},
	}
}

func TestAnswerSelectsContainingSection(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = sectionedVideo("vid00000001")
	invoker := &fakeInvoker{response: `{"response": "It covers the second part."}`}

	svc := NewService(repo, invoker, Config{Model: "gemini-2.0-flash", Provider: "google"})

	answer, err := svc.Answer(context.Background(), "vid00000001", "What is discussed here?", "00:00:15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "It covers the second part." {
		t.Errorf("answer returned non-verbatim: %q", answer)
	}

	// The section message must carry only words from the second section.
	if len(invoker.lastReq.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(invoker.lastReq.Messages))
	}
	sectionMsg := invoker.lastReq.Messages[2].Content
	if !strings.Contains(sectionMsg, "second part words") {
		t.Errorf("section message missing section words: %q", sectionMsg)
	}
	if strings.Contains(sectionMsg, "first") {
		t.Errorf("section message leaked words from another section: %q", sectionMsg)
	}
	if invoker.lastReq.Messages[0].Role != "system" {
		t.Errorf("first message should be the system prompt, got role %q", invoker.lastReq.Messages[0].Role)
	}
}

func TestAnswerBoundaryPicksFirstMatch(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = sectionedVideo("vid00000001")
	invoker := &fakeInvoker{response: `{"response": "ok"}`}

	svc := NewService(repo, invoker, Config{})

	// 00:00:10 sits on the shared boundary. Containment is inclusive, so
	// the first section wins.
	if _, err := svc.Answer(context.Background(), "vid00000001", "q", "00:00:10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sectionMsg := invoker.lastReq.Messages[2].Content
	if !strings.Contains(sectionMsg, "first part words") {
		t.Errorf("boundary timestamp should select the first section, got %q", sectionMsg)
	}
}

func TestAnswerNoSectionAtTimestamp(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = sectionedVideo("vid00000001")
	invoker := &fakeInvoker{response: `{"response": "ok"}`}

	svc := NewService(repo, invoker, Config{})

	_, err := svc.Answer(context.Background(), "vid00000001", "q", "00:01:30")
	if !errors.IsKind(err, errors.KindNoSectionAtTimestamp) {
		t.Fatalf("expected no_section_at_timestamp, got %v", err)
	}
	if invoker.calls != 0 {
		t.Errorf("no LLM call expected, got %d", invoker.calls)
	}
}

func TestAnswerMalformedTimestamp(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeInvoker{}, Config{})

	_, err := svc.Answer(context.Background(), "vid00000001", "q", "1:2:3:4")
	if !errors.IsKind(err, errors.KindMalformedTimestamp) {
		t.Fatalf("expected malformed_timestamp, got %v", err)
	}
}

func TestAnswerMissingSections(t *testing.T) {
	repo := newFakeRepo()
	video := sectionedVideo("vid00000001")
	video.Sections = nil
	repo.videos["vid00000001"] = video

	svc := NewService(repo, &fakeInvoker{}, Config{})

	_, err := svc.Answer(context.Background(), "vid00000001", "q", "00:00:05")
	if !errors.IsKind(err, errors.KindSectionsNotFound) {
		t.Fatalf("expected sections_not_found, got %v", err)
	}
}

func TestAnswerMissingVideo(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeInvoker{}, Config{})

	_, err := svc.Answer(context.Background(), "vid00000001", "q", "00:00:05")
	if !errors.IsKind(err, errors.KindTranscriptionNotFound) {
		t.Fatalf("expected transcription_not_found, got %v", err)
	}
}

func TestAnswerLLMFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = sectionedVideo("vid00000001")
	invoker := &fakeInvoker{err: errors.LLMInvocation("llm", nil, "exhausted")}

	svc := NewService(repo, invoker, Config{})

	_, err := svc.Answer(context.Background(), "vid00000001", "q", "00:00:05")
	if !errors.IsKind(err, errors.KindLLMInvocation) {
		t.Fatalf("expected llm_invocation, got %v", err)
	}
}
