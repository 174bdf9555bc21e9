package video

import (
	"context"
	"time"

	"yt-sections/models"
)

type Service interface {
	// Process resolves a URL to a video id and starts (or returns) the
	// download-transcribe pipeline for it.
	Process(ctx context.Context, url string) (*models.Video, error)

	// Get retrieves a video record by its video id.
	Get(ctx context.Context, id string) (*models.Video, error)
}

// AudioDownloader acquires the audio track for a video id.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, videoID string) (string, error)
}

// Transcriber turns a local audio file into a transcription artifact.
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioPath string) (*models.Transcription, error)
}

// Mirror is the optional artifact mirror; mirror failures must never fail
// the pipeline.
type Mirror interface {
	MirrorTranscription(ctx context.Context, videoID string, t *models.Transcription) error
}

type Config struct {
	// ProcessTimeout bounds one full download+transcription run.
	ProcessTimeout time.Duration
}
