// Package docstring harvests the documentation attached to Rust items.
//
// Three notations are recognised, each in an outer (item) and inner (file)
// flavour:
//
//	/// text            //! text
//	/** text */         /*! text */
//	#[doc = "text"]     #![doc = "text"]
//
// A docstring is one contiguous run of a single notation. Markers are
// stripped, common indentation is removed and blank logical lines at either
// end are counted and dropped, so the same text yields the same Lines in
// every notation. Origins keep the source position of every logical line so
// rules can point at text inside the comment.
package docstring

import "strings"

// Notation identifies the comment syntax a docstring was written in.
type Notation uint8

const (
	NotationLine Notation = iota + 1
	NotationBlock
	NotationAttribute
)

func (n Notation) String() string {
	switch n {
	case NotationLine:
		return "line"
	case NotationBlock:
		return "block"
	case NotationAttribute:
		return "attribute"
	}
	return "none"
}

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

// Docstring is the normalized documentation of one item.
type Docstring struct {
	Lines   []string
	Origins []Position

	BlankBefore int
	BlankAfter  int

	Notation Notation
	Inner    bool

	Line    int // first source line of the run
	Column  int // column of the first comment marker
	EndLine int // last source line of the run
}

// IsMultiline reports whether the docstring has more than one logical line.
func (d *Docstring) IsMultiline() bool {
	return len(d.Lines) > 1
}

// Summary returns the first logical line, trimmed.
func (d *Docstring) Summary() string {
	if len(d.Lines) == 0 {
		return ""
	}
	return strings.TrimSpace(d.Lines[0])
}

// Text joins the logical lines with newlines.
func (d *Docstring) Text() string {
	return strings.Join(d.Lines, "\n")
}

// Origin returns the source position of logical line i shifted by offset bytes.
func (d *Docstring) Origin(i, offset int) Position {
	if i < 0 || i >= len(d.Origins) {
		return Position{Line: d.Line, Column: d.Column}
	}
	p := d.Origins[i]
	p.Column += offset
	return p
}
