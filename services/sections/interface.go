package sections

import (
	"context"

	"yt-sections/models"
)

type Service interface {
	// Synthesize returns the section collection for a video, generating and
	// persisting it on first call and serving the stored copy afterwards.
	Synthesize(ctx context.Context, videoID string) ([]models.Section, error)
}

// Mirror is the optional artifact mirror; mirror failures must never fail
// synthesis.
type Mirror interface {
	MirrorSections(ctx context.Context, videoID string, sections []models.Section) error
}

type Config struct {
	Model       string
	Provider    string
	Temperature float64
}
