package groundtruth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/biasprobe/internal/table"
)

var (
	// ErrMissingValue is returned for blank or null overs cells
	ErrMissingValue = errors.New("missing value")

	// ErrInvalidOversNotation matches any *InvalidOversNotationError
	ErrInvalidOversNotation = errors.New("invalid overs notation")
)

// InvalidOversNotationError reports an overs value that is not W.B with B in 0..5
type InvalidOversNotationError struct {
	Value  string
	Reason string
}

func (e *InvalidOversNotationError) Error() string {
	return fmt.Sprintf("invalid overs notation %q: %s", e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidOversNotation) match
func (e *InvalidOversNotationError) Is(target error) bool {
	return target == ErrInvalidOversNotation
}

// OversToBalls converts overs in W.B notation to a ball count.
// The part after the dot counts balls within an over, so "10.4" is 64 balls, not 10.4 overs.
// A value without a dot is whole overs.
func OversToBalls(s string) (int, error) {
	s = strings.TrimSpace(s)
	if table.IsNull(s) {
		return 0, ErrMissingValue
	}

	whole, part, dotted := strings.Cut(s, ".")
	if !dotted {
		f, ok := table.ParseNumber(s)
		if !ok {
			return 0, &InvalidOversNotationError{Value: s, Reason: "not a number"}
		}
		if f < 0 {
			return 0, &InvalidOversNotationError{Value: s, Reason: "negative overs"}
		}
		return int(f) * 6, nil
	}

	overs, err := strconv.Atoi(whole)
	if err != nil {
		return 0, &InvalidOversNotationError{Value: s, Reason: "whole overs must be an integer"}
	}
	balls, err := strconv.Atoi(part)
	if err != nil {
		return 0, &InvalidOversNotationError{Value: s, Reason: "balls must be an integer"}
	}
	if overs < 0 {
		return 0, &InvalidOversNotationError{Value: s, Reason: "negative overs"}
	}
	if balls < 0 || balls > 5 {
		return 0, &InvalidOversNotationError{Value: s, Reason: "balls within an over must be 0-5"}
	}
	return overs*6 + balls, nil
}

// BallsToOvers renders a ball count in W.B notation
func BallsToOvers(balls int) string {
	return fmt.Sprintf("%d.%d", balls/6, balls%6)
}
