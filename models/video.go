package models

import (
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Word is a single time-stamped word from the transcription provider.
// Start and End are wall-clock seconds from the beginning of the video.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcription is the write-once artifact produced by the transcription
// provider: the full transcript text plus the word-level timing data.
type Transcription struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// Section is a semantically coherent span of the video as decided by the
// LLM. Start and End are HH:MM:SS strings resolved from segment indices.
type Section struct {
	Title   string   `json:"title"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Summary []string `json:"summary"`
}

// Video is the per-video record held by the repository. ID is the canonical
// 11-character YouTube video id.
type Video struct {
	ID            string         `json:"id"`
	URL           string         `json:"url"`
	Title         string         `json:"title,omitempty"`
	Status        Status         `json:"status"`
	Transcription *Transcription `json:"transcription,omitempty"`
	Sections      []Section      `json:"sections,omitempty"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (v *Video) IsProcessing() bool { return v.Status == StatusProcessing }
func (v *Video) IsCompleted() bool  { return v.Status == StatusCompleted }
func (v *Video) IsFailed() bool     { return v.Status == StatusFailed }

// HasTranscription reports whether the write-once transcription artifact
// exists on this record.
func (v *Video) HasTranscription() bool {
	return v.Transcription != nil && len(v.Transcription.Words) > 0
}

// IsStale checks if the record has been stuck in processing for too long.
func (v *Video) IsStale(timeout time.Duration) bool {
	if v.Status != StatusProcessing {
		return false
	}
	return time.Since(v.UpdatedAt) > timeout
}

// VideoResponse represents the API response for a video record.
type VideoResponse struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title,omitempty"`
	Status        Status    `json:"status"`
	Transcription string    `json:"transcription,omitempty"`
	Sections      []Section `json:"sections,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// NewVideoResponse creates a response from a video model.
func NewVideoResponse(v *Video) *VideoResponse {
	resp := &VideoResponse{
		ID:       v.ID,
		URL:      v.URL,
		Title:    v.Title,
		Status:   v.Status,
		Sections: v.Sections,
		Error:    v.Error,
	}
	if v.Transcription != nil {
		resp.Transcription = v.Transcription.Text
	}
	return resp
}
