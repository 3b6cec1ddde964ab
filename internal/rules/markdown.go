package rules

import (
	"strings"
	"unicode"
)

// bracketRef is one `[X]`, `[X](url)` or `[X][label]` span in a docstring.
type bracketRef struct {
	Text      string // display text X
	Line      int    // index into the docstring lines
	Offset    int    // byte offset of '[' in the line
	HasTarget bool   // followed by (url) or [label]
}

// scanBrackets finds bracket spans outside inline code and fenced code
// blocks. Inline code may wrap across lines. Labels of reference-style links are consumed, not reported.
func scanBrackets(lines []string) []bracketRef {
	var refs []bracketRef
	inFence := false
	inCode := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for j := 0; j < len(line); j++ {
			c := line[j]
			switch {
			case c == '`':
				inCode = !inCode
			case inCode:
			case c == '\\':
				j++
			case c == '[':
				end := strings.IndexByte(line[j+1:], ']')
				if end < 0 {
					j = len(line)
					continue
				}
				ref := bracketRef{Text: line[j+1 : j+1+end], Line: i, Offset: j}
				k := j + 1 + end + 1
				if k < len(line) {
					switch line[k] {
					case '(':
						if closing := strings.IndexByte(line[k:], ')'); closing >= 0 {
							ref.HasTarget = true
							k += closing + 1
						}
					case '[':
						if closing := strings.IndexByte(line[k+1:], ']'); closing >= 0 {
							ref.HasTarget = true
							k += closing + 2
						}
					}
				}
				refs = append(refs, ref)
				j = k - 1
			}
		}
	}
	return refs
}

// stripLinks removes markdown link constructs from s.
func stripLinks(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			b.WriteByte(s[i])
			continue
		}
		end := strings.IndexByte(s[i+1:], ']')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		k := i + 1 + end + 1
		if k < len(s) {
			switch s[k] {
			case '(':
				if closing := strings.IndexByte(s[k:], ')'); closing >= 0 {
					k += closing + 1
				}
			case '[':
				if closing := strings.IndexByte(s[k+1:], ']'); closing >= 0 {
					k += closing + 2
				}
			}
		}
		i = k - 1
	}
	return b.String()
}

// looksLikeCode reports a path (`a::b`) or a PascalCase identifier.
func looksLikeCode(text string) bool {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "::") {
		return true
	}
	runes := []rune(text)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	hasLower, hasUpper := false, false
	for _, r := range runes[1:] {
		if unicode.IsLower(r) {
			hasLower = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasLower && hasUpper
}

var commonTypes = map[string]struct{}{
	"Option": {}, "Result": {}, "Vec": {}, "Box": {}, "Rc": {},
	"Arc": {}, "Some": {}, "None": {}, "Ok": {}, "Err": {},
}

func isCommonType(text string) bool {
	_, ok := commonTypes[strings.TrimSpace(text)]
	return ok
}
