package video

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"yt-sections/errors"
	"yt-sections/models"
	"yt-sections/repository"
	"yt-sections/validation"
	"yt-sections/youtube"
)

type Repository = repository.VideoRepository

type service struct {
	repo       Repository
	downloader AudioDownloader
	transcribe Transcriber
	validator  *validation.Validator
	mirror     Mirror
	config     Config
	logger     *logrus.Logger
}

func NewService(
	repo Repository,
	downloader AudioDownloader,
	transcriber Transcriber,
	validator *validation.Validator,
	mirror Mirror,
	config Config,
) Service {
	return &service{
		repo:       repo,
		downloader: downloader,
		transcribe: transcriber,
		validator:  validator,
		mirror:     mirror,
		config:     config,
		logger:     logrus.StandardLogger(),
	}
}

func (s *service) Process(ctx context.Context, url string) (*models.Video, error) {
	const op = "VideoService.Process"
	logger := s.logger.WithField("url", url)
	logger.Info("Processing request received")

	if err := s.validator.ValidateURL(url); err != nil {
		logger.WithError(err).Info("URL validation failed")
		return nil, err
	}

	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, err
	}

	video, err := s.repo.Find(ctx, videoID)
	if err == nil {
		if !shouldProcessExisting(video, s.config.ProcessTimeout) {
			return video, nil
		}
		return s.startProcessing(ctx, video)
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	video = &models.Video{
		ID:        videoID,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.startProcessing(ctx, video)
}

// shouldProcessExisting decides whether an existing record needs another
// pipeline run. Completed transcriptions are write-once and never redone.
func shouldProcessExisting(video *models.Video, timeout time.Duration) bool {
	switch video.Status {
	case models.StatusCompleted:
		return false
	case models.StatusProcessing:
		return video.IsStale(timeout)
	default:
		return true
	}
}

func (s *service) startProcessing(ctx context.Context, video *models.Video) (*models.Video, error) {
	const op = "VideoService.startProcessing"

	video.Status = models.StatusProcessing
	video.UpdatedAt = time.Now()
	video.Error = ""

	if err := s.repo.Save(ctx, video); err != nil {
		return nil, errors.Internal(op, err, "Failed to save video")
	}

	// Download and transcription are long external operations; they run off
	// the request path.
	go s.runPipeline(video)

	return video, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Video, error) {
	const op = "VideoService.Get"

	if id == "" {
		return nil, errors.InvalidInput(op, nil, "ID is required")
	}

	video, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, errors.NotFound(op, err, "Video not found")
	}

	return video, nil
}

func (s *service) runPipeline(video *models.Video) {
	logger := s.logger.WithField("video_id", video.ID)
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ProcessTimeout)
	defer cancel()

	logger.Info("Starting transcription pipeline")

	transcription, err := s.process(ctx, video.ID)
	if err != nil {
		logger.WithError(err).Error("Pipeline failed")
		video.Status = models.StatusFailed
		video.Error = err.Error()
	} else {
		logger.WithField("words", len(transcription.Words)).Info("Pipeline completed")
		video.Status = models.StatusCompleted
		video.Transcription = transcription
	}

	video.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, video); err != nil {
		logger.WithError(err).Error("Failed to save pipeline result")
		return
	}

	if video.IsCompleted() && s.mirror != nil {
		if err := s.mirror.MirrorTranscription(ctx, video.ID, video.Transcription); err != nil {
			logger.WithError(err).Warn("Failed to mirror transcription")
		}
	}
}

func (s *service) process(ctx context.Context, videoID string) (*models.Transcription, error) {
	audioPath, err := s.downloader.DownloadAudio(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return s.transcribe.TranscribeFile(ctx, audioPath)
}
