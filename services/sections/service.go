package sections

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"yt-sections/errors"
	"yt-sections/llm"
	"yt-sections/models"
	"yt-sections/repository"
	"yt-sections/transcript"
)

const systemPrompt = `You are an expert video content analyzer. Your task is to analyze a video transcript and divide it into sections that summarise the flow of the conversation. The transcript is given as numbered segments, one per line, in the format "index: text". Each section you return must have a title, the inclusive start_index and end_index of the segments it covers, and a list of bulleted summary points. Avoid the case where consecutive sections are talking about the same thing. There is no restriction or limitation on how big each section should be. Keep it as long or as short as it needs to be.`

// sectionsSchema constrains the model output to the section list shape.
var sectionsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "start_index": {"type": "integer"},
          "end_index": {"type": "integer"},
          "summary": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["title", "start_index", "end_index", "summary"]
      }
    }
  },
  "required": ["sections"]
}`)

// llmSections is the validated response shape from the model. Indices point
// into the segment sequence and are resolved to timestamps afterwards.
type llmSections struct {
	Sections []struct {
		Title      string   `json:"title"`
		StartIndex int      `json:"start_index"`
		EndIndex   int      `json:"end_index"`
		Summary    []string `json:"summary"`
	} `json:"sections"`
}

type Repository = repository.VideoRepository

type service struct {
	repo    Repository
	invoker llm.Invoker
	mirror  Mirror
	config  Config
	logger  *logrus.Logger

	// locks serializes synthesis per video id so concurrent callers cannot
	// both miss the cache and spend duplicate LLM calls.
	locks sync.Map
}

func NewService(repo Repository, invoker llm.Invoker, mirror Mirror, config Config) Service {
	return &service{
		repo:    repo,
		invoker: invoker,
		mirror:  mirror,
		config:  config,
		logger:  logrus.StandardLogger(),
	}
}

func (s *service) lockFor(videoID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(videoID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *service) Synthesize(ctx context.Context, videoID string) ([]models.Section, error) {
	const op = "SectionService.Synthesize"
	logger := s.logger.WithField("video_id", videoID)

	lock := s.lockFor(videoID)
	lock.Lock()
	defer lock.Unlock()

	video, err := s.repo.Find(ctx, videoID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.TranscriptionNotFound(op,
				"Transcription not found. Please transcribe the video first.")
		}
		return nil, err
	}

	// Stored sections are served verbatim, with no re-validation against
	// the current transcript.
	if video.Sections != nil {
		logger.Info("Returning cached sections")
		return video.Sections, nil
	}

	if !video.HasTranscription() {
		return nil, errors.TranscriptionNotFound(op,
			"Transcription not found. Please transcribe the video first.")
	}

	segments, err := transcript.Window(video.Transcription.Words)
	if err != nil {
		return nil, err
	}

	logger.WithField("segments", len(segments)).Info("Requesting section synthesis")

	var response llmSections
	err = s.invoker.Invoke(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Here is the transcript of a video. Please analyze it and create sections:\n\n" + transcript.RenderForLLM(segments)},
		},
		Model:    s.config.Model,
		Provider: s.config.Provider,
		Params:   llm.Params{Temperature: llm.Float64(s.config.Temperature)},
		Schema:   sectionsSchema,
	}, &response)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveSections(response, segments)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveSections(ctx, videoID, resolved); err != nil {
		return nil, err
	}

	if s.mirror != nil {
		if err := s.mirror.MirrorSections(ctx, videoID, resolved); err != nil {
			logger.WithError(err).Warn("Failed to mirror sections")
		}
	}

	logger.WithField("sections", len(resolved)).Info("Sections synthesized")
	return resolved, nil
}

// resolveSections maps model-returned segment indices back to wall-clock
// timestamps. Indices are bounds-checked before any slice access.
func resolveSections(response llmSections, segments []transcript.Segment) ([]models.Section, error) {
	const op = "SectionService.resolveSections"

	resolved := make([]models.Section, 0, len(response.Sections))
	for _, sec := range response.Sections {
		if sec.StartIndex < 0 || sec.StartIndex >= len(segments) ||
			sec.EndIndex < 0 || sec.EndIndex >= len(segments) {
			return nil, errors.IndexOutOfRange(op, fmt.Sprintf(
				"Model returned segment indices [%d, %d] outside [0, %d)",
				sec.StartIndex, sec.EndIndex, len(segments)))
		}

		resolved = append(resolved, models.Section{
			Title:   sec.Title,
			Start:   transcript.FormatSeconds(segments[sec.StartIndex].Start),
			End:     transcript.FormatSeconds(segments[sec.EndIndex].End),
			Summary: sec.Summary,
		})
	}

	return resolved, nil
}
