package endpoint

import (
	"fmt"
	"strings"
)

// EndSelector chooses which point(s) of each streamline become endpoints.
type EndSelector int

const (
	// EndHead uses only the first point of each streamline.
	EndHead EndSelector = iota

	// EndTail uses only the last point of each streamline.
	EndTail

	// EndBoth uses both ends, yielding two endpoints per streamline.
	EndBoth
)

var endSelectorNames = map[EndSelector]string{
	EndHead: "head",
	EndTail: "tail",
	EndBoth: "both",
}

// ParseEndSelector converts a selector name into an EndSelector. Any value
// outside the closed set is rejected with an *InvalidArgumentError.
func ParseEndSelector(s string) (EndSelector, error) {
	for sel, name := range endSelectorNames {
		if s == name {
			return sel, nil
		}
	}
	return 0, &InvalidArgumentError{
		Name:     "streamline end",
		Value:    s,
		Accepted: []string{"head", "tail", "both"},
	}
}

func (e EndSelector) String() string {
	if name, ok := endSelectorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EndSelector(%d)", int(e))
}

func (e EndSelector) valid() bool {
	_, ok := endSelectorNames[e]
	return ok
}

// OutputMode selects between raw endpoint counts and per-hemisphere
// normalized densities.
type OutputMode int

const (
	// ModeCount tallies raw endpoint counts per vertex.
	ModeCount OutputMode = iota

	// ModePDF divides each hemisphere's counts by their total, so the
	// map sums to 1 over that hemisphere's retained endpoints.
	ModePDF
)

var outputModeNames = map[OutputMode]string{
	ModeCount: "count",
	ModePDF:   "pdf",
}

// ParseOutputMode converts a mode name into an OutputMode. Any value
// outside the closed set is rejected with an *InvalidArgumentError.
func ParseOutputMode(s string) (OutputMode, error) {
	for mode, name := range outputModeNames {
		if s == name {
			return mode, nil
		}
	}
	return 0, &InvalidArgumentError{
		Name:     "output mode",
		Value:    s,
		Accepted: []string{"count", "pdf"},
	}
}

func (m OutputMode) String() string {
	if name, ok := outputModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("OutputMode(%d)", int(m))
}

func (m OutputMode) valid() bool {
	_, ok := outputModeNames[m]
	return ok
}

// InvalidArgumentError reports an option value outside the closed set of
// accepted values. Validation raises it before any computation runs.
type InvalidArgumentError struct {
	Name     string
	Value    string
	Accepted []string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s must be one of '%s', got %q",
		e.Name, strings.Join(e.Accepted, "', '"), e.Value)
}
