package rules

import (
	"strings"

	"github.com/jayvdb/pep257-rs/internal/docstring"
	"github.com/jayvdb/pep257-rs/internal/report"
)

func structuralRules() []Rule {
	d201 := Rule{
		ID:          "D201",
		Name:        "blank-before-docstring",
		Severity:    report.SevError,
		Category:    CategoryStructural,
		Description: "The docstring must not start with blank lines.",
	}
	d201.Check = func(s Subject) []report.Violation {
		if s.Doc == nil || s.Doc.BlankBefore == 0 {
			return nil
		}
		msg := "No blank lines allowed before " + kindWord(s.Item) + " docstring"
		return []report.Violation{d201.violation(runStart(s.Doc), msg)}
	}

	d202 := Rule{
		ID:          "D202",
		Name:        "blank-after-docstring",
		Severity:    report.SevError,
		Category:    CategoryStructural,
		Description: "No blank lines between the docstring and the item, inside or outside the comment.",
	}
	d202.Check = func(s Subject) []report.Violation {
		if s.Doc == nil || s.Doc.BlankAfter == 0 {
			return nil
		}
		pos := docstring.Position{Line: s.Doc.EndLine, Column: s.Doc.Column}
		msg := "No blank lines allowed after " + kindWord(s.Item) + " docstring"
		return []report.Violation{d202.violation(pos, msg)}
	}

	d205 := Rule{
		ID:          "D205",
		Name:        "summary-description-separation",
		Severity:    report.SevError,
		Category:    CategoryStructural,
		Description: "A complete summary line must be followed by one blank line before the description.",
	}
	d205.Check = func(s Subject) []report.Violation {
		if s.Doc == nil || len(s.Doc.Lines) < 2 {
			return nil
		}
		if !endsSentence(s.Doc.Summary()) || strings.TrimSpace(s.Doc.Lines[1]) == "" {
			return nil
		}
		pos := docstring.Position{Line: s.Doc.Origin(1, 0).Line, Column: s.Doc.Column}
		return []report.Violation{d205.violation(pos, "1 blank line required between summary line and description")}
	}

	return []Rule{d201, d202, d205}
}

func runStart(d *docstring.Docstring) docstring.Position {
	return docstring.Position{Line: d.Line, Column: d.Column}
}

func endsSentence(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}
