package text

import (
	"errors"
	"fmt"
	"strings"
)

// Window is one chunk of a normalized article text. Offsets are rune
// positions into the normalized text, so successive windows with overlap O
// share their last/first O runes.
type Window struct {
	Text     string
	Start    int
	End      int
	Sequence int
}

var ErrInvalidConfig = errors.New("chunker: invalid configuration")

// Normalize collapses whitespace runs (including newlines) into single
// spaces and trims the ends. Chunk boundaries are computed over the
// normalized form so that re-ingesting the same article always produces
// identical windows.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Chunk splits text into windows of `size` runes, advancing the start by
// size-overlap each step. The final window may be shorter (it runs to the
// end of the text) and is emitted as long as it contains a non-whitespace
// rune. A text no longer than `size` yields exactly one window.
//
// The output is a pure function of the inputs: no I/O, no randomness.
func Chunk(text string, size, overlap int) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", ErrInvalidConfig, overlap, size)
	}

	norm := Normalize(text)
	if norm == "" {
		return nil, fmt.Errorf("%w: text is empty after normalization", ErrInvalidConfig)
	}

	runes := []rune(norm)
	step := size - overlap

	var windows []Window
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		w := string(runes[start:end])
		if strings.TrimSpace(w) != "" {
			windows = append(windows, Window{
				Text:     w,
				Start:    start,
				End:      end,
				Sequence: len(windows),
			})
		}

		if end == len(runes) {
			break
		}
	}

	return windows, nil
}
