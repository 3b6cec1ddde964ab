package report

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a violation.
type Severity uint8

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// MarshalText renders the severity the way both output encodings spell it.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts "error" or "warning" in any case.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "error":
		*s = SevError
	case "warning":
		*s = SevWarning
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}

// Violation is one rule failure at a source location.
type Violation struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
}

// String formats the violation without the file path, e.g.
// ":3:1 error [D400]: First line should end with a period".
func (v Violation) String() string {
	return fmt.Sprintf(":%d:%d %s [%s]: %s", v.Line, v.Column, v.Severity, v.Rule, v.Message)
}

// Format renders the line-oriented text form for a file.
func (v Violation) Format(path string) string {
	return path + v.String()
}

// FileResult holds the outcome of checking one file. Err is set when the
// file could not be read or parsed; Violations is empty in that case.
type FileResult struct {
	Path       string
	Violations []Violation
	Err        error
}
