// Package transcript turns word-level transcription data into fixed-duration
// segments and handles the timestamp grammar shared by sections and QA.
package transcript

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"yt-sections/errors"
	"yt-sections/models"
)

// WindowSeconds is the fixed duration of a transcript segment.
const WindowSeconds = 10.0

// Segment is a run of consecutive words whose start times fall within one
// window. Segments are ephemeral: they are recomputed from words on every
// windowing call and never persisted.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Window groups words into WindowSeconds-long segments. A word belongs to
// the open segment when its start lies before segment start + window;
// otherwise it begins a new segment. The final open segment is always
// emitted. Words must be non-decreasing in start time; out-of-order input
// is sorted defensively before grouping.
func Window(words []models.Word) ([]Segment, error) {
	const op = "transcript.Window"

	if len(words) == 0 {
		return nil, errors.EmptyTranscript(op, "Transcript contains no words")
	}

	if !sort.SliceIsSorted(words, func(i, j int) bool {
		return words[i].Start < words[j].Start
	}) {
		sorted := make([]models.Word, len(words))
		copy(sorted, words)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Start < sorted[j].Start
		})
		words = sorted
	}

	var segments []Segment
	var sb strings.Builder

	current := Segment{Start: words[0].Start, End: words[0].End}
	sb.WriteString(words[0].Text)

	for _, word := range words[1:] {
		if word.Start < current.Start+WindowSeconds {
			sb.WriteByte(' ')
			sb.WriteString(word.Text)
			current.End = word.End
			continue
		}

		current.Text = sb.String()
		segments = append(segments, current)

		sb.Reset()
		sb.WriteString(word.Text)
		current = Segment{Start: word.Start, End: word.End}
	}

	current.Text = sb.String()
	segments = append(segments, current)

	return segments, nil
}

// RenderForLLM produces the indexed segment listing fed to the section
// synthesis prompt, one "{index}: {text}" line per segment.
func RenderForLLM(segments []Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d: %s", i, seg.Text)
	}
	return sb.String()
}

// ParseTimestamp converts "HH:MM:SS", "MM:SS", or bare-seconds strings into
// a float number of seconds. Fractional seconds are accepted.
func ParseTimestamp(s string) (float64, error) {
	const op = "transcript.ParseTimestamp"

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.MalformedTimestamp(op, nil, "Timestamp is empty")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, errors.MalformedTimestamp(op, nil, fmt.Sprintf("Invalid timestamp: %q", s))
	}

	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v < 0 {
			return 0, errors.MalformedTimestamp(op, err, fmt.Sprintf("Invalid timestamp: %q", s))
		}
		total = total*60 + v
	}

	return total, nil
}

// FormatSeconds renders seconds as "HH:MM:SS" using floor-based
// decomposition. Sub-second precision is discarded.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
