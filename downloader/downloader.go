// Package downloader acquires a video's audio track through yt-dlp, storing
// it under the per-video data directory for the transcription step.
package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	apperrors "yt-sections/errors"
)

type Config struct {
	// BinaryPath is the yt-dlp executable, resolved through PATH when bare.
	BinaryPath string
	// DataDir is the root under which per-video directories live.
	DataDir string
}

type Downloader struct {
	config Config
	logger *logrus.Logger

	// runFunc executes the external process; tests substitute it.
	runFunc func(ctx context.Context, args []string) ([]byte, error)
}

func New(cfg Config) *Downloader {
	d := &Downloader{
		config: cfg,
		logger: logrus.StandardLogger(),
	}
	d.runFunc = d.run
	return d
}

// DownloadAudio fetches the best audio stream for videoID into
// data/<videoID>/audio.<ext> and returns the resulting file path. An
// existing audio file short-circuits the download.
func (d *Downloader) DownloadAudio(ctx context.Context, videoID string) (string, error) {
	const op = "Downloader.DownloadAudio"
	logger := d.logger.WithField("video_id", videoID)

	videoDir := filepath.Join(d.config.DataDir, videoID)
	if err := os.MkdirAll(videoDir, 0755); err != nil {
		return "", apperrors.Internal(op, err, "Failed to create video directory")
	}

	if existing, err := findAudioFile(videoDir); err == nil {
		logger.WithField("path", existing).Info("Audio already downloaded")
		return existing, nil
	}

	args := []string{
		"--quiet",
		"--no-warnings",
		"-f", "bestaudio",
		"-o", filepath.Join(videoDir, "audio.%(ext)s"),
		"https://www.youtube.com/watch?v=" + videoID,
	}

	logger.Info("Downloading audio")
	output, err := d.runFunc(ctx, args)
	if err != nil {
		if isNoAudioError(output, err) {
			return "", apperrors.NoAudioStream(op, "No audio stream found for this video")
		}
		return "", apperrors.DownloadFailed(op, err, "Audio download failed")
	}

	path, err := findAudioFile(videoDir)
	if err != nil {
		return "", apperrors.DownloadFailed(op, err, "Download produced no audio file")
	}

	logger.WithField("path", path).Info("Audio downloaded")
	return path, nil
}

func (d *Downloader) run(ctx context.Context, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.config.BinaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		combined := append(stdout.Bytes(), stderr.Bytes()...)
		return combined, errors.Wrapf(err, "yt-dlp failed (stderr: %s)", stderr.String())
	}

	return stdout.Bytes(), nil
}

// findAudioFile locates the audio.* artifact in a video directory.
func findAudioFile(videoDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(videoDir, "audio.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no audio file in %s", videoDir)
	}
	return matches[0], nil
}

func isNoAudioError(output []byte, err error) bool {
	text := strings.ToLower(string(output) + err.Error())
	return strings.Contains(text, "requested format is not available") ||
		strings.Contains(text, "no audio")
}
