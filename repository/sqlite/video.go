package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"yt-sections/errors"
	"yt-sections/models"
)

const (
	upsertQuery = `
        INSERT INTO videos (
            id, url, title, status, transcript_text, words, sections,
            error, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            url = excluded.url,
            title = excluded.title,
            status = excluded.status,
            transcript_text = excluded.transcript_text,
            words = excluded.words,
            sections = excluded.sections,
            error = excluded.error,
            updated_at = excluded.updated_at
    `

	getQuery = `
        SELECT id, url, title, status, transcript_text, words, sections,
               error, created_at, updated_at
        FROM videos WHERE id = ?
    `

	updateSectionsQuery = `
        UPDATE videos SET sections = ?, updated_at = ? WHERE id = ?
    `
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) Save(ctx context.Context, video *models.Video) error {
	const op = "SQLiteRepository.Save"

	for i := 0; i < 3; i++ { // Simple retry logic for lock contention
		err := r.save(ctx, video)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "Failed to save video")
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, nil, "Failed after retries")
}

func (r *Repository) save(ctx context.Context, video *models.Video) error {
	var transcriptText, words interface{}
	if video.Transcription != nil {
		transcriptText = video.Transcription.Text
		encoded, err := json.Marshal(video.Transcription.Words)
		if err != nil {
			return err
		}
		words = string(encoded)
	}

	var sections interface{}
	if video.Sections != nil {
		encoded, err := json.Marshal(video.Sections)
		if err != nil {
			return err
		}
		sections = string(encoded)
	}

	_, err := r.db.ExecContext(ctx, upsertQuery,
		video.ID,
		video.URL,
		video.Title,
		string(video.Status),
		transcriptText,
		words,
		sections,
		video.Error,
		video.CreatedAt,
		video.UpdatedAt,
	)
	return err
}

func (r *Repository) Find(ctx context.Context, id string) (*models.Video, error) {
	const op = "SQLiteRepository.Find"

	video := &models.Video{}
	var (
		status         string
		title          sql.NullString
		transcriptText sql.NullString
		words          sql.NullString
		sections       sql.NullString
		errMsg         sql.NullString
	)

	err := r.db.QueryRowContext(ctx, getQuery, id).Scan(
		&video.ID,
		&video.URL,
		&title,
		&status,
		&transcriptText,
		&words,
		&sections,
		&errMsg,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Video not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query video")
	}

	video.Status = models.Status(status)
	video.Title = title.String
	video.Error = errMsg.String

	if words.Valid {
		var wordList []models.Word
		if err := json.Unmarshal([]byte(words.String), &wordList); err != nil {
			return nil, errors.Internal(op, err, "Failed to decode stored words")
		}
		video.Transcription = &models.Transcription{
			Text:  transcriptText.String,
			Words: wordList,
		}
	}

	if sections.Valid {
		if err := json.Unmarshal([]byte(sections.String), &video.Sections); err != nil {
			return nil, errors.Internal(op, err, "Failed to decode stored sections")
		}
	}

	return video, nil
}

// SaveSections writes the section collection for an existing record.
// Overwrite is idempotent.
func (r *Repository) SaveSections(ctx context.Context, id string, sections []models.Section) error {
	const op = "SQLiteRepository.SaveSections"

	encoded, err := json.Marshal(sections)
	if err != nil {
		return errors.Internal(op, err, "Failed to encode sections")
	}

	result, err := r.db.ExecContext(ctx, updateSectionsQuery, string(encoded), time.Now(), id)
	if err != nil {
		return errors.Internal(op, err, "Failed to save sections")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Internal(op, err, "Failed to check save result")
	}
	if affected == 0 {
		return errors.NotFound(op, nil, "Video not found")
	}

	return nil
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
