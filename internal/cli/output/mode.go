// Package output renders leapyear progress and reports for terminals,
// markdown consumers and JSON-lines pipelines.
package output

import (
	"fmt"
	"strings"
)

// OutputMode selects how the renderer formats output.
type OutputMode string

// Output modes.
const (
	// ModeAuto picks text on a TTY and markdown otherwise.
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode converts a config string to an OutputMode. Unknown values fall back
// to ModeAuto.
func Mode(s string) OutputMode {
	m, err := ParseMode(s)
	if err != nil {
		return ModeAuto
	}
	return m
}

// ParseMode converts a config string to an OutputMode.
func ParseMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "text":
		return ModeText, nil
	case "markdown", "md":
		return ModeMarkdown, nil
	case "json":
		return ModeJSON, nil
	}
	return ModeAuto, fmt.Errorf("unknown output mode %q", s)
}

// resolve turns ModeAuto into a concrete mode.
func (m OutputMode) resolve(isTTY bool) OutputMode {
	if m != ModeAuto {
		return m
	}
	if isTTY {
		return ModeText
	}
	return ModeMarkdown
}
