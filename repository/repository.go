package repository

import (
	"context"

	"yt-sections/models"
)

// VideoRepository is the persisted artifact store: one record per video id
// holding the write-once transcription and the cached-forever sections.
type VideoRepository interface {
	Save(ctx context.Context, video *models.Video) error
	Find(ctx context.Context, id string) (*models.Video, error)
	SaveSections(ctx context.Context, id string, sections []models.Section) error
}
