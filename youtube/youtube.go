// Package youtube resolves YouTube URLs into canonical 11-character video
// ids, which the rest of the system uses as storage keys.
package youtube

import (
	"net/url"
	"regexp"

	"yt-sections/errors"
)

// Patterns for the recognized URL shapes. Each captures the video id in
// group 1.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?(?:.*&)?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://youtu\.be/([a-zA-Z0-9_-]{11})`),
}

var idShape = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID parses a YouTube URL into its video id. It recognizes
// standard watch, embed, old-style /v/, shorts, and youtu.be URLs, and
// falls back to the v= query parameter before giving up.
func ExtractVideoID(rawURL string) (string, error) {
	const op = "youtube.ExtractVideoID"

	for _, pattern := range idPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}

	// Fallback: any youtube.com URL carrying a v= query parameter.
	parsed, err := url.Parse(rawURL)
	if err == nil && (parsed.Host == "youtube.com" || parsed.Host == "www.youtube.com") {
		if id := parsed.Query().Get("v"); idShape.MatchString(id) {
			return id, nil
		}
	}

	return "", errors.InvalidURL(op, nil, "Not a recognized YouTube URL")
}
