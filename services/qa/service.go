package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"yt-sections/errors"
	"yt-sections/llm"
	"yt-sections/models"
	"yt-sections/transcript"
)

const systemPrompt = `You are answering a viewer's question about a specific moment in a video.
You are given the full transcript of the video, the transcript of the section
the question refers to, and the question itself. Ground your answer in the
section transcript first and use the full transcript only for surrounding
context. Answer concisely and do not speculate beyond what the transcript
supports.`

// answerSchema constrains the model to a single response field.
var answerSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "response": {"type": "string"}
  },
  "required": ["response"]
}`)

type llmAnswer struct {
	Response string `json:"response"`
}

type service struct {
	repo    Repository
	invoker llm.Invoker
	config  Config
	logger  *logrus.Logger
}

func NewService(repo Repository, invoker llm.Invoker, config Config) Service {
	return &service{
		repo:    repo,
		invoker: invoker,
		config:  config,
		logger:  logrus.StandardLogger(),
	}
}

func (s *service) Answer(ctx context.Context, videoID, question, timestamp string) (string, error) {
	const op = "QAService.Answer"

	target, err := transcript.ParseTimestamp(timestamp)
	if err != nil {
		return "", err
	}

	video, err := s.repo.Find(ctx, videoID)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", errors.TranscriptionNotFound(op, "Transcription not found. Please transcribe the video first.")
		}
		return "", err
	}
	if video.Sections == nil {
		return "", errors.SectionsNotFound(op, "Sections not found. Please generate sections first.")
	}
	if !video.HasTranscription() {
		return "", errors.TranscriptionNotFound(op, "Transcription not found. Please transcribe the video first.")
	}

	section, start, end, err := s.locateSection(video.Sections, target)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"video_id":  videoID,
		"timestamp": timestamp,
		"section":   section.Title,
	}).Info("Answering question")

	var answer llmAnswer
	req := llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Here is the full transcript of the video:\n\n" + video.Transcription.Text},
			{Role: "user", Content: "Here is the transcript of the section the question is about:\n\n" + sectionText(video.Transcription.Words, start, end)},
			{Role: "user", Content: fmt.Sprintf("Question (asked at %s): %s", timestamp, question)},
		},
		Model:    s.config.Model,
		Provider: s.config.Provider,
		Params:   llm.Params{Temperature: llm.Float64(s.config.Temperature)},
		Schema:   answerSchema,
	}
	if err := s.invoker.Invoke(ctx, req, &answer); err != nil {
		return "", err
	}

	return answer.Response, nil
}

// locateSection returns the first section whose inclusive time range contains
// the target, along with its parsed boundaries in seconds.
func (s *service) locateSection(sections []models.Section, target float64) (*models.Section, float64, float64, error) {
	const op = "QAService.locateSection"

	for i := range sections {
		start, err := transcript.ParseTimestamp(sections[i].Start)
		if err != nil {
			return nil, 0, 0, err
		}
		end, err := transcript.ParseTimestamp(sections[i].End)
		if err != nil {
			return nil, 0, 0, err
		}
		if target >= start && target <= end {
			return &sections[i], start, end, nil
		}
	}
	return nil, 0, 0, errors.NoSectionAtTimestamp(op, fmt.Sprintf("No section covers timestamp %s", transcript.FormatSeconds(target)))
}

// sectionText joins the words that begin inside the section's time range.
func sectionText(words []models.Word, start, end float64) string {
	var b strings.Builder
	for _, w := range words {
		if w.Start < start || w.Start > end {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	return b.String()
}
