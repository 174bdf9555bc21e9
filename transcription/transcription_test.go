package transcription

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"yt-sections/config"
	"yt-sections/errors"
)

const sampleResponse = `{
  "results": {
    "channels": [
      {
        "alternatives": [
          {
            "transcript": "the cat sat",
            "words": [
              {"word": "the", "start": 0, "end": 0.5},
              {"word": "cat", "start": 0.5, "end": 1.0},
              {"word": "sat", "start": 11, "end": 11.5}
            ]
          }
        ]
      }
    ]
  }
}`

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp4")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(baseURL string) *Client {
	c := NewClient(config.DeepgramConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "nova-3",
		Timeout: 5 * time.Second,
	})
	c.backoff = time.Millisecond
	return c
}

func TestTranscribeFile(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotModel = r.URL.Query().Get("model")
		fmt.Fprint(w, sampleResponse)
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).TranscribeFile(context.Background(), writeAudioFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "the cat sat" {
		t.Errorf("expected transcript text, got %q", result.Text)
	}
	if len(result.Words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(result.Words))
	}
	if result.Words[2].Start != 11 {
		t.Errorf("expected third word start 11, got %f", result.Words[2].Start)
	}
	if gotAuth != "Token test-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotModel != "nova-3" {
		t.Errorf("unexpected model param: %q", gotModel)
	}
}

func TestTranscribeFileMissingCredential(t *testing.T) {
	c := NewClient(config.DeepgramConfig{BaseURL: "http://localhost:0"})

	_, err := c.TranscribeFile(context.Background(), writeAudioFile(t))
	if !errors.IsKind(err, errors.KindMissingCredential) {
		t.Fatalf("expected missing_credential, got %v", err)
	}
}

func TestTranscribeFileRetriesProviderError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, sampleResponse)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).TranscribeFile(context.Background(), writeAudioFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected success on second attempt, got %d calls", calls)
	}
}

func TestTranscribeFileEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": {"channels": []}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).TranscribeFile(context.Background(), writeAudioFile(t))
	if err == nil {
		t.Fatal("expected error for empty results")
	}
}
