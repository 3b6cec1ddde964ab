package docstring

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// rawLine is one logical line before normalization.
type rawLine struct {
	text string
	line int // 1-based source line
	col  int // 1-based byte column where text begins
}

// unit is one source construct of a run: a single `///` line, one doc
// attribute, or a whole block comment.
type unit struct {
	lines     []rawLine
	first     int // 0-based index of the first source line
	last      int // 0-based index of the last source line
	markerCol int
}

var (
	outerAttrRe = regexp.MustCompile(`^(\s*)#\[\s*doc\s*=\s*`)
	innerAttrRe = regexp.MustCompile(`^(\s*)#!\[\s*doc\s*=\s*`)
	attrTailRe  = regexp.MustCompile(`^\s*\]\s*$`)
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func indentOf(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// lineDoc matches `///` (or `//!` when inner) and strips the marker plus at
// most one following space.
func lineDoc(s string, idx int, inner bool) (unit, bool) {
	indent := indentOf(s)
	t := s[indent:]
	marker := "///"
	if inner {
		marker = "//!"
	}
	if !strings.HasPrefix(t, marker) || (!inner && strings.HasPrefix(t, "////")) {
		return unit{}, false
	}
	rest := t[len(marker):]
	col := indent + len(marker) + 1
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
		col++
	}
	return unit{
		lines:     []rawLine{{text: rest, line: idx + 1, col: col}},
		first:     idx,
		last:      idx,
		markerCol: indent + 1,
	}, true
}

// isPlainComment reports a `//` comment that is not documentation.
func isPlainComment(s string) bool {
	t := strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(t, "//") {
		return false
	}
	_, outer := lineDoc(s, 0, false)
	_, inner := lineDoc(s, 0, true)
	return !outer && !inner
}

// attrDoc matches a single-line `#[doc = "..."]` (or `#![doc = "..."]`). An
// embedded newline in the value yields several logical lines.
func attrDoc(s string, idx int, inner bool) (unit, bool) {
	re := outerAttrRe
	if inner {
		re = innerAttrRe
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return unit{}, false
	}
	value, contentOff, n, ok := decodeStringLiteral(s[loc[1]:])
	if !ok || !attrTailRe.MatchString(s[loc[1]+n:]) {
		return unit{}, false
	}
	col := loc[1] + contentOff + 1
	var lines []rawLine
	for _, piece := range strings.Split(value, "\n") {
		c := col
		if strings.HasPrefix(piece, " ") {
			piece = piece[1:]
			c++
		}
		lines = append(lines, rawLine{text: piece, line: idx + 1, col: c})
	}
	return unit{lines: lines, first: idx, last: idx, markerCol: indentOf(s) + 1}, true
}

// isInnerAttr reports a `#![...]` attribute other than `#![doc = ..]`.
func isInnerAttr(s string) bool {
	return strings.HasPrefix(strings.TrimLeft(s, " \t"), "#![") && !innerAttrRe.MatchString(s)
}

// skipAttr returns the index of the line after the attribute opening on line
// i, which may span several lines.
func skipAttr(lines []string, i int) int {
	depth := 0
	for k := i; k < len(lines); k++ {
		for _, c := range lines[k] {
			switch c {
			case '[':
				depth++
			case ']':
				depth--
			}
		}
		if depth <= 0 {
			return k + 1
		}
	}
	return len(lines)
}

func blockOpener(t string, inner bool) bool {
	if inner {
		return strings.HasPrefix(t, "/*!")
	}
	return strings.HasPrefix(t, "/**") && !strings.HasPrefix(t, "/***") && !strings.HasPrefix(t, "/**/")
}

// blockDocUp matches a block doc comment whose closing delimiter ends line
// idx. The opener must be the one that comment actually closes, so a
// trailing `/* .. */` after code never reaches an earlier block.
func blockDocUp(lines []string, idx int, inner bool) (unit, bool) {
	if !strings.HasSuffix(strings.TrimRight(lines[idx], " \t"), "*/") {
		return unit{}, false
	}
	for j := idx; j >= 0; j-- {
		t := strings.TrimLeft(lines[j], " \t")
		if !strings.HasPrefix(t, "/*") {
			continue
		}
		k, ok := closeOf(lines, j)
		if k < idx {
			continue
		}
		if k > idx || !ok || !blockOpener(t, inner) {
			return unit{}, false
		}
		return extractBlock(lines, j, idx), true
	}
	return unit{}, false
}

// blockDocDown matches a block doc comment opening on line idx.
func blockDocDown(lines []string, idx int, inner bool) (unit, bool) {
	t := strings.TrimLeft(lines[idx], " \t")
	if !blockOpener(t, inner) {
		return unit{}, false
	}
	k, ok := closeOf(lines, idx)
	if !ok {
		return unit{}, false
	}
	return extractBlock(lines, idx, k), true
}

// closeOf follows the block comment opened by the first `/*` on line j,
// honouring nested comments, and returns the line holding its matching `*/`.
// ok is false when the comment never closes or code follows the close.
// An unclosed comment reports len(lines).
func closeOf(lines []string, j int) (int, bool) {
	depth := 0
	for k := j; k < len(lines); k++ {
		line := lines[k]
		i := 0
		if k == j {
			i = strings.Index(line, "/*")
		}
		for i+1 < len(line) {
			switch {
			case line[i] == '/' && line[i+1] == '*':
				depth++
				i += 2
			case line[i] == '*' && line[i+1] == '/':
				depth--
				i += 2
				if depth == 0 {
					return k, isBlank(line[i:])
				}
			default:
				i++
			}
		}
	}
	return len(lines), false
}

// extractBlock strips the delimiters and the per-line `*` decoration of the
// block comment spanning lines[j..k]. Delimiter-only lines are dropped.
func extractBlock(lines []string, j, k int) unit {
	u := unit{first: j, last: k, markerCol: indentOf(lines[j]) + 1}
	for li := j; li <= k; li++ {
		text := lines[li]
		start := 0
		if li == j {
			pos := strings.Index(text, "/*")
			start = pos + 3
			text = text[start:]
		}
		if li == k {
			if end := strings.LastIndex(text, "*/"); end >= 0 {
				text = text[:end]
			}
		}
		if li != j {
			t := strings.TrimLeft(text, " \t")
			start += len(text) - len(t)
			text = t
			if strings.HasPrefix(text, "*") {
				text = text[1:]
				start++
			}
		}
		if strings.HasPrefix(text, " ") {
			text = text[1:]
			start++
		}
		text = strings.TrimRight(text, " \t")
		if j != k && (li == j || li == k) && text == "" {
			continue
		}
		u.lines = append(u.lines, rawLine{text: text, line: li + 1, col: start + 1})
	}
	return u
}

// decodeStringLiteral decodes the Rust string literal at the start of s. It
// returns the value, the byte offset of the content inside the literal and
// the length of the whole literal.
func decodeStringLiteral(s string) (string, int, int, bool) {
	if strings.HasPrefix(s, "r") {
		hashes := 0
		for 1+hashes < len(s) && s[1+hashes] == '#' {
			hashes++
		}
		open := 1 + hashes
		if open >= len(s) || s[open] != '"' {
			return "", 0, 0, false
		}
		closing := "\"" + strings.Repeat("#", hashes)
		end := strings.Index(s[open+1:], closing)
		if end < 0 {
			return "", 0, 0, false
		}
		return s[open+1 : open+1+end], open + 1, open + 1 + end + len(closing), true
	}
	if !strings.HasPrefix(s, "\"") {
		return "", 0, 0, false
	}
	var b strings.Builder
	for i := 1; i < len(s); {
		c := s[i]
		switch c {
		case '"':
			return b.String(), 1, i + 1, true
		case '\\':
			if i+1 >= len(s) {
				return "", 0, 0, false
			}
			n := decodeEscape(s[i+1:], &b)
			i += 1 + n
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
		}
	}
	return "", 0, 0, false
}

// decodeEscape writes the escape starting after a backslash and returns how
// many bytes it consumed.
func decodeEscape(s string, b *strings.Builder) int {
	switch s[0] {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case '\\', '"', '\'':
		b.WriteByte(s[0])
	case 'x':
		if len(s) >= 3 {
			if v, err := strconv.ParseUint(s[1:3], 16, 8); err == nil {
				b.WriteRune(rune(v))
				return 3
			}
		}
		b.WriteString(`\x`)
	case 'u':
		if end := strings.IndexByte(s, '}'); strings.HasPrefix(s, "u{") && end > 2 {
			if v, err := strconv.ParseUint(s[2:end], 16, 32); err == nil {
				b.WriteRune(rune(v))
				return end + 1
			}
		}
		b.WriteString(`\u`)
	default:
		b.WriteByte('\\')
		b.WriteByte(s[0])
	}
	return 1
}
