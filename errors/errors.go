package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the failure class so callers can branch on it without
// string matching.
type Kind string

const (
	KindInvalidURL            Kind = "invalid_url"
	KindEmptyTranscript       Kind = "empty_transcript"
	KindTranscriptionNotFound Kind = "transcription_not_found"
	KindSectionsNotFound      Kind = "sections_not_found"
	KindIndexOutOfRange       Kind = "index_out_of_range"
	KindMalformedTimestamp    Kind = "malformed_timestamp"
	KindNoSectionAtTimestamp  Kind = "no_section_at_timestamp"
	KindUnsupportedProvider   Kind = "unsupported_provider"
	KindMissingCredential     Kind = "missing_credential"
	KindLLMInvocation         Kind = "llm_invocation"
	KindDownloadFailed        Kind = "download_failed"
	KindNoAudioStream         Kind = "no_audio_stream"
	KindInvalidInput          Kind = "invalid_input"
	KindNotFound              Kind = "not_found"
	KindInternal              Kind = "internal"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two AppErrors by kind.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Kind == appErr.Kind
	}
	return false
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsNotFound reports whether err represents any missing-artifact condition.
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindNotFound, KindTranscriptionNotFound, KindSectionsNotFound:
			return true
		}
	}
	return false
}

func newError(code int, kind Kind, op string, err error, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return newError(http.StatusBadRequest, KindInvalidInput, op, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return newError(http.StatusNotFound, KindNotFound, op, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return newError(http.StatusInternalServerError, KindInternal, op, err, message)
}

func InvalidURL(op string, err error, message string) *AppError {
	return newError(http.StatusBadRequest, KindInvalidURL, op, err, message)
}

func EmptyTranscript(op string, message string) *AppError {
	return newError(http.StatusUnprocessableEntity, KindEmptyTranscript, op, nil, message)
}

func TranscriptionNotFound(op string, message string) *AppError {
	return newError(http.StatusNotFound, KindTranscriptionNotFound, op, nil, message)
}

func SectionsNotFound(op string, message string) *AppError {
	return newError(http.StatusNotFound, KindSectionsNotFound, op, nil, message)
}

func IndexOutOfRange(op string, message string) *AppError {
	return newError(http.StatusBadGateway, KindIndexOutOfRange, op, nil, message)
}

func MalformedTimestamp(op string, err error, message string) *AppError {
	return newError(http.StatusBadRequest, KindMalformedTimestamp, op, err, message)
}

func NoSectionAtTimestamp(op string, message string) *AppError {
	return newError(http.StatusNotFound, KindNoSectionAtTimestamp, op, nil, message)
}

func UnsupportedProvider(op string, message string) *AppError {
	return newError(http.StatusBadRequest, KindUnsupportedProvider, op, nil, message)
}

func MissingCredential(op string, message string) *AppError {
	return newError(http.StatusInternalServerError, KindMissingCredential, op, nil, message)
}

func LLMInvocation(op string, err error, message string) *AppError {
	return newError(http.StatusBadGateway, KindLLMInvocation, op, err, message)
}

func DownloadFailed(op string, err error, message string) *AppError {
	return newError(http.StatusBadGateway, KindDownloadFailed, op, err, message)
}

func NoAudioStream(op string, message string) *AppError {
	return newError(http.StatusUnprocessableEntity, KindNoAudioStream, op, nil, message)
}
