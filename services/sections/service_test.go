package sections

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

func (r *fakeRepo) Save(ctx context.Context, v *models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *v
	r.videos[v.ID] = &clone
	return nil
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

func (r *fakeRepo) SaveSections(ctx context.Context, id string, sections []models.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return errors.NotFound("fakeRepo.SaveSections", nil, "Video not found")
	}
	v.Sections = sections
	return nil
}

type fakeInvoker struct {
	calls    int32
	response string
	err      error
	delay    time.Duration
}

func (f *fakeInvoker) Invoke(ctx context.Context, req llm.Request, out interface{}) error {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func transcribedVideo(id string) *models.Video {
	return &models.Video{
		ID:     id,
		Status: models.StatusCompleted,
		Transcription: &models.Transcription{
			Text: "intro words main words closing words",
			Words: []models.Word{
				{Text: "intro", Start: 0, End: 2},
				{Text: "words", Start: 2, End: 5},
				{Text: "main", Start: 10, End: 11},
				{Text: "words", Start: 11, End: 12},
				{Text: "closing", Start: 20, End: 21},
				{Text: "words", Start: 21, End: 22},
			},
		},
	}
}

const twoSectionResponse = `{
  "sections": [
    {"title": "Intro", "start_index": 0, "end_index": 1, "summary": ["opening"]},
    {"title": "Closing", "start_index": 2, "end_index": 2, "summary": ["wrap up"]}
  ]
}`

func TestSynthesizeResolvesTimestamps(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = transcribedVideo("vid00000001")
	invoker := &fakeInvoker{response: twoSectionResponse}

	svc := NewService(repo, invoker, nil, Config{Model: "gemini-2.0-flash", Provider: "google", Temperature: 0.2})

	result, err := svc.Synthesize(context.Background(), "vid00000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(result))
	}
	// Windowing yields segments at 0-5s, 10-12s, and 20-22s, so the first
	// section spans segments 0 through 1.
	if result[0].Start != "00:00:00" || result[0].End != "00:00:12" {
		t.Errorf("unexpected first section times: %s - %s", result[0].Start, result[0].End)
	}
	if result[1].Start != "00:00:20" || result[1].End != "00:00:22" {
		t.Errorf("unexpected second section times: %s - %s", result[1].Start, result[1].End)
	}

	// Persisted for subsequent calls.
	stored, _ := repo.Find(context.Background(), "vid00000001")
	if len(stored.Sections) != 2 {
		t.Errorf("expected sections persisted, got %d", len(stored.Sections))
	}
}

func TestSynthesizeCacheHitSkipsLLM(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = transcribedVideo("vid00000001")
	invoker := &fakeInvoker{response: twoSectionResponse}

	svc := NewService(repo, invoker, nil, Config{Model: "gemini-2.0-flash", Provider: "google"})

	if _, err := svc.Synthesize(context.Background(), "vid00000001"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := svc.Synthesize(context.Background(), "vid00000001"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if got := atomic.LoadInt32(&invoker.calls); got != 1 {
		t.Errorf("expected exactly 1 LLM invocation across two calls, got %d", got)
	}
}

func TestSynthesizeConcurrentCallsShareOneInvocation(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = transcribedVideo("vid00000001")
	invoker := &fakeInvoker{response: twoSectionResponse, delay: 50 * time.Millisecond}

	svc := NewService(repo, invoker, nil, Config{Model: "gemini-2.0-flash", Provider: "google"})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Synthesize(context.Background(), "vid00000001"); err != nil {
				t.Errorf("synthesize failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&invoker.calls); got != 1 {
		t.Errorf("expected 1 LLM invocation under concurrency, got %d", got)
	}
}

func TestSynthesizeMissingTranscription(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeInvoker{}, nil, Config{})

	_, err := svc.Synthesize(context.Background(), "vid00000001")
	if !errors.IsKind(err, errors.KindTranscriptionNotFound) {
		t.Fatalf("expected transcription_not_found, got %v", err)
	}
}

func TestSynthesizeEmptyTranscript(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = &models.Video{
		ID:            "vid00000001",
		Status:        models.StatusCompleted,
		Transcription: &models.Transcription{Text: ""},
	}

	svc := NewService(repo, &fakeInvoker{}, nil, Config{})

	_, err := svc.Synthesize(context.Background(), "vid00000001")
	if !errors.IsKind(err, errors.KindTranscriptionNotFound) {
		t.Fatalf("expected transcription_not_found for wordless record, got %v", err)
	}
}

func TestSynthesizeOutOfRangeIndices(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = transcribedVideo("vid00000001")
	invoker := &fakeInvoker{response: `{
	  "sections": [{"title": "Bad", "start_index": 0, "end_index": 99, "summary": []}]
	}`}

	svc := NewService(repo, invoker, nil, Config{})

	_, err := svc.Synthesize(context.Background(), "vid00000001")
	if !errors.IsKind(err, errors.KindIndexOutOfRange) {
		t.Fatalf("expected index_out_of_range, got %v", err)
	}

	// Nothing may be persisted on failure.
	stored, _ := repo.Find(context.Background(), "vid00000001")
	if stored.Sections != nil {
		t.Error("no sections should be persisted when resolution fails")
	}
}

func TestSynthesizeLLMFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["vid00000001"] = transcribedVideo("vid00000001")
	invoker := &fakeInvoker{err: errors.LLMInvocation("llm", nil, "exhausted")}

	svc := NewService(repo, invoker, nil, Config{})

	_, err := svc.Synthesize(context.Background(), "vid00000001")
	if !errors.IsKind(err, errors.KindLLMInvocation) {
		t.Fatalf("expected llm_invocation, got %v", err)
	}
}
