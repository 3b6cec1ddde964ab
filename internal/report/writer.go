package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Writer renders the violations of one file.
type Writer interface {
	WriteFile(res FileResult) error
}

// NewWriter returns the writer for format. colorize only affects text output.
func NewWriter(format Format, out io.Writer, colorize bool) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(out, colorize), nil
	case FormatJSON:
		return &JSONWriter{out: out}, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

// TextWriter prints one "<path>:<line>:<column> <severity> [<rule>]: <message>"
// line per violation.
type TextWriter struct {
	out       io.Writer
	errColor  *color.Color
	warnColor *color.Color
	ruleColor *color.Color
}

// NewTextWriter creates a text writer. Colors are emitted only when colorize is set.
func NewTextWriter(out io.Writer, colorize bool) *TextWriter {
	w := &TextWriter{
		out:       out,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow, color.Bold),
		ruleColor: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{w.errColor, w.warnColor, w.ruleColor} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w
}

func (w *TextWriter) WriteFile(res FileResult) error {
	for _, v := range res.Violations {
		sev := w.warnColor.Sprint(v.Severity.String())
		if v.Severity >= SevError {
			sev = w.errColor.Sprint(v.Severity.String())
		}
		_, err := fmt.Fprintf(w.out, "%s:%d:%d %s [%s]: %s\n",
			res.Path, v.Line, v.Column, sev, w.ruleColor.Sprint(v.Rule), v.Message)
		if err != nil {
			return err
		}
	}
	return nil
}

// JSONWriter prints one pretty-printed object per file.
type JSONWriter struct {
	out io.Writer
}

type fileJSON struct {
	File       string      `json:"file"`
	Violations []Violation `json:"violations"`
}

func (w *JSONWriter) WriteFile(res FileResult) error {
	doc := fileJSON{File: res.Path, Violations: res.Violations}
	if doc.Violations == nil {
		doc.Violations = []Violation{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode violations for %s: %w", res.Path, err)
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
