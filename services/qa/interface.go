package qa

import (
	"context"

	"yt-sections/models"
)

// Service answers questions about a specific moment in a transcribed video.
// The timestamp selects the section the question is scoped to.
type Service interface {
	Answer(ctx context.Context, videoID, question, timestamp string) (string, error)
}

// Repository is the read surface the resolver needs.
type Repository interface {
	Find(ctx context.Context, id string) (*models.Video, error)
}

// Config carries the model settings for answer generation.
type Config struct {
	Model       string
	Provider    string
	Temperature float64
}
