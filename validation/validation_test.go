package validation

import (
	"testing"

	"yt-sections/errors"
)

func TestValidateURL(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"valid short URL", "https://youtu.be/dQw4w9WgXcQ", false},
		{"http allowed", "http://youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"empty", "", true},
		{"non-youtube host", "https://vimeo.com/12345", true},
		{"bad scheme", "ftp://youtube.com/watch?v=dQw4w9WgXcQ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.url)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	v := NewValidator(nil)

	if err := v.ValidateQuestion("what is discussed here?"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateQuestion("   "); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("expected invalid_input for blank question, got %v", err)
	}
}
