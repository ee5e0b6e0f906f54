package datacard

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidArgument is returned when Wrap or Render get an empty text,
// a non-positive line budget or a negative head count.
var ErrInvalidArgument = errors.New("invalid argument")

// Wrap splits text into segments of at most lineBudget characters, breaking
// at the last whitespace before the budget. The whitespace at a break stays
// at the front of the next segment, so joining the segments gives back text.
// A run without whitespace longer than the budget is cut at the budget.
func Wrap(text string, lineBudget int) ([]string, error) {
	if lineBudget <= 0 {
		return nil, fmt.Errorf("%w: line budget must be positive, got %d", ErrInvalidArgument, lineBudget)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidArgument)
	}

	rest := []rune(text)
	var segments []string

	for len(rest) > 0 {
		if len(rest) <= lineBudget {
			segments = append(segments, string(rest))
			break
		}

		// index 0 is never a break point, otherwise a segment that starts
		// with the previous separator would come out empty
		cut := lineBudget
		for i := lineBudget; i > 0; i-- {
			if unicode.IsSpace(rest[i]) {
				cut = i
				break
			}
		}

		segments = append(segments, string(rest[:cut]))
		rest = rest[cut:]
	}

	return segments, nil
}

// WrapString is Wrap with the segments joined by newlines.
func WrapString(text string, lineBudget int) (string, error) {
	segments, err := Wrap(text, lineBudget)
	if err != nil {
		return "", err
	}
	return strings.Join(segments, "\n"), nil
}
