package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jayvdb/pep257-rs/internal/extractor"
	"github.com/jayvdb/pep257-rs/internal/report"
)

var signatureStartRe = regexp.MustCompile(`^[a-z_]\w*\(`)

// docRule builds a rule that only runs when a docstring is present and
// reports at the start of the run.
func docRule(r Rule, fires func(s Subject) bool, message string) Rule {
	r.Check = func(s Subject) []report.Violation {
		if s.Doc == nil || !fires(s) {
			return nil
		}
		return []report.Violation{r.violation(runStart(s.Doc), message)}
	}
	return r
}

func contentRules() []Rule {
	return []Rule{
		docRule(Rule{
			ID:          "D400",
			Name:        "summary-period",
			Severity:    report.SevError,
			Category:    CategoryContent,
			Description: "The summary line ends with '.', '!' or '?'.",
		}, func(s Subject) bool {
			return !endsSentence(s.Doc.Summary())
		}, "First line should end with a period"),

		docRule(Rule{
			ID:          "D402",
			Name:        "summary-signature",
			Severity:    report.SevError,
			Category:    CategoryContent,
			Description: "The summary line of a function or method does not repeat its signature.",
		}, func(s Subject) bool {
			if s.Item.Kind != extractor.KindFunction && s.Item.Kind != extractor.KindMethod {
				return false
			}
			summary := s.Doc.Summary()
			return looksLikeSignature(summary) || repeatsSignature(summary, s.Item.Signature)
		}, "First line should not be the function's signature"),

		docRule(Rule{
			ID:          "D403",
			Name:        "summary-capitalized",
			Severity:    report.SevError,
			Category:    CategoryContent,
			Description: "The first letter of the summary line is uppercase.",
		}, func(s Subject) bool {
			for _, r := range s.Doc.Summary() {
				if unicode.IsLetter(r) {
					return !unicode.IsUpper(r)
				}
			}
			return false
		}, "First word of the first line should be properly capitalized"),

		docRule(Rule{
			ID:          "D301",
			Name:        "escaped-backslashes",
			Severity:    report.SevWarning,
			Category:    CategoryContent,
			Description: "Multi-line docstrings with doubled backslashes read better as raw strings.",
		}, func(s Subject) bool {
			return s.Doc.IsMultiline() && strings.Contains(s.Doc.Text(), `\\`)
		}, "Consider using raw strings for docstrings with backslashes"),

		docRule(Rule{
			ID:          "D302",
			Name:        "unicode-content",
			Severity:    report.SevWarning,
			Category:    CategoryContent,
			Description: "Multi-line docstrings containing non-ASCII characters.",
		}, func(s Subject) bool {
			if !s.Doc.IsMultiline() {
				return false
			}
			for _, r := range s.Doc.Text() {
				if r > unicode.MaxASCII {
					return true
				}
			}
			return false
		}, "Docstring contains Unicode characters"),

		docRule(Rule{
			ID:          "D401",
			Name:        "imperative-mood",
			Severity:    report.SevWarning,
			Category:    CategoryContent,
			Description: "The summary line starts with an imperative verb.",
		}, func(s Subject) bool {
			mood := s.Mood
			if mood == nil {
				mood = DefaultMood()
			}
			return !mood.IsImperative(s.Doc.Summary())
		}, "First line should be in imperative mood"),

		bracketRule(Rule{
			ID:          "R401",
			Name:        "link-text-backticks",
			Severity:    report.SevWarning,
			Category:    CategoryContent,
			Description: "Link text that names code is wrapped in backticks.",
		}, func(ref bracketRef) (string, bool) {
			if !looksLikeCode(ref.Text) {
				return "", false
			}
			x := strings.TrimSpace(ref.Text)
			return fmt.Sprintf("Markdown link text looks like code but lacks backticks: [%s] should be [`%s`]", x, x), true
		}),

		bracketRule(Rule{
			ID:          "R402",
			Name:        "common-type-link",
			Severity:    report.SevWarning,
			Category:    CategoryContent,
			Description: "Common std types are written as inline code, not links.",
		}, func(ref bracketRef) (string, bool) {
			if !isCommonType(ref.Text) {
				return "", false
			}
			x := strings.TrimSpace(ref.Text)
			target := ""
			if ref.HasTarget {
				target = "(...)"
			}
			return fmt.Sprintf("Use inline code for common Rust type: [%s]%s should be `%s`", x, target, x), true
		}),
	}
}

// bracketRule reports each bracket span accepted by match at its '['.
func bracketRule(r Rule, match func(ref bracketRef) (string, bool)) Rule {
	r.Check = func(s Subject) []report.Violation {
		if s.Doc == nil {
			return nil
		}
		var out []report.Violation
		for _, ref := range scanBrackets(s.Doc.Lines) {
			if strings.Contains(ref.Text, "`") {
				continue
			}
			msg, ok := match(ref)
			if !ok {
				continue
			}
			out = append(out, r.violation(s.Doc.Origin(ref.Line, ref.Offset), msg))
		}
		return out
	}
	return r
}

// repeatsSignature reports whether summary opens with the item's own
// declaration header, ignoring case, backticks and the `pub`/`fn` keywords.
func repeatsSignature(summary, signature string) bool {
	idx := strings.Index(signature, "fn ")
	if idx < 0 {
		return false
	}
	core := strings.Join(strings.Fields(signature[idx+len("fn "):]), " ")
	end := paramsEnd(core)
	if end < 0 {
		return false
	}
	core = core[:end+1]
	s := strings.ToLower(strings.Join(strings.Fields(strings.Trim(stripLinks(summary), "` ")), " "))
	s = strings.TrimPrefix(s, "pub ")
	s = strings.TrimPrefix(s, "fn ")
	return strings.HasPrefix(s, strings.ToLower(core))
}

// paramsEnd returns the index of the `)` closing the first parameter list.
func paramsEnd(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func looksLikeSignature(summary string) bool {
	s := strings.TrimSpace(stripLinks(summary))
	if strings.Contains(s, "(") && strings.Contains(s, ")") && strings.Contains(s, "->") {
		return true
	}
	return signatureStartRe.MatchString(s)
}
