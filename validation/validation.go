package validation

import (
	"net/url"
	"strings"

	"yt-sections/config"
	"yt-sections/errors"
)

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateURL performs URL validation
func (v *Validator) ValidateURL(urlStr string) error {
	const op = "Validator.ValidateURL"

	if urlStr == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return errors.InvalidURL(op, err, "Invalid URL format")
	}

	// Protocol validation
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidURL(op, nil, "URL must use HTTP or HTTPS")
	}

	// Domain validation
	host := parsedURL.Hostname()
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return errors.InvalidURL(op, nil, "Only YouTube URLs are supported")
	}

	return nil
}

// ValidateQuestion checks the QA request fields.
func (v *Validator) ValidateQuestion(question string) error {
	const op = "Validator.ValidateQuestion"

	if strings.TrimSpace(question) == "" {
		return errors.InvalidInput(op, nil, "Question is required")
	}

	return nil
}
