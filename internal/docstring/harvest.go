package docstring

import (
	"strings"

	"github.com/jayvdb/pep257-rs/internal/extractor"
)

type scanState uint8

const (
	stateScanning scanState = iota
	stateStopped
)

// Harvest returns the docstring attached to item, or nil when it has none.
// lines are the file's source lines. The run read is the one nearest the
// item: scanning starts just above the item's anchor line, skips blank lines
// and stops at the first line that does not continue the notation of the
// first unit found.
func Harvest(item extractor.Item, lines []string) *Docstring {
	if item.Synthetic {
		return HarvestInner(lines)
	}

	i := item.AnchorLine - 2
	if i >= len(lines) {
		i = len(lines) - 1
	}
	blankBelow := 0
	for i >= 0 && isBlank(lines[i]) {
		blankBelow++
		i--
	}

	var (
		units    []unit
		notation Notation
	)
	state := stateScanning
	for state == stateScanning {
		if i < 0 {
			state = stateStopped
			continue
		}
		u, n, ok := readUp(lines, i)
		if !ok || (notation != 0 && n != notation) {
			state = stateStopped
			continue
		}
		notation = n
		units = append(units, u)
		i = u.first - 1
	}
	if len(units) == 0 {
		return nil
	}
	for l, r := 0, len(units)-1; l < r; l, r = l+1, r-1 {
		units[l], units[r] = units[r], units[l]
	}
	d := build(units, notation, false, blankBelow)
	if d != nil {
		d.BlankBefore += detachedGap(lines, units[0].first)
	}
	return d
}

// detachedGap counts the blank source lines between the run starting at
// first and a doc comment further up. Such a split run counts as blank lines
// before the docstring; blank lines below ordinary code do not.
func detachedGap(lines []string, first int) int {
	j := first - 1
	gap := 0
	for j >= 0 && isBlank(lines[j]) {
		gap++
		j--
	}
	if gap == 0 || j < 0 {
		return 0
	}
	if _, _, ok := readUp(lines, j); !ok {
		return 0
	}
	return gap
}

// HarvestInner returns the inner documentation at the top of a file. A
// shebang line, plain `//` comments and non-doc inner attributes such as
// `#![allow(..)]` may precede it.
func HarvestInner(lines []string) *Docstring {
	i := 0
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") && !strings.HasPrefix(lines[0], "#![") {
		i = 1
	}
	for i < len(lines) {
		if isBlank(lines[i]) || isPlainComment(lines[i]) {
			i++
		} else if isInnerAttr(lines[i]) {
			i = skipAttr(lines, i)
		} else {
			break
		}
	}

	var (
		units    []unit
		notation Notation
	)
	state := stateScanning
	for state == stateScanning {
		if i >= len(lines) {
			state = stateStopped
			continue
		}
		u, n, ok := readDown(lines, i)
		if !ok || (notation != 0 && n != notation) {
			state = stateStopped
			continue
		}
		notation = n
		units = append(units, u)
		i = u.last + 1
	}
	if len(units) == 0 {
		return nil
	}
	return build(units, notation, true, 0)
}

// readUp reads the outer unit that ends on line i.
func readUp(lines []string, i int) (unit, Notation, bool) {
	if u, ok := lineDoc(lines[i], i, false); ok {
		return u, NotationLine, true
	}
	if u, ok := attrDoc(lines[i], i, false); ok {
		return u, NotationAttribute, true
	}
	if u, ok := blockDocUp(lines, i, false); ok {
		return u, NotationBlock, true
	}
	return unit{}, 0, false
}

// readDown reads the inner unit that starts on line i.
func readDown(lines []string, i int) (unit, Notation, bool) {
	if u, ok := lineDoc(lines[i], i, true); ok {
		return u, NotationLine, true
	}
	if u, ok := attrDoc(lines[i], i, true); ok {
		return u, NotationAttribute, true
	}
	if u, ok := blockDocDown(lines, i, true); ok {
		return u, NotationBlock, true
	}
	return unit{}, 0, false
}

// build normalizes the units of a run into a Docstring. A run holding only
// blank lines yields nil.
func build(units []unit, notation Notation, inner bool, blankBelow int) *Docstring {
	var raws []rawLine
	for _, u := range units {
		raws = append(raws, u.lines...)
	}
	for k := range raws {
		raws[k].text = strings.TrimRight(raws[k].text, " \t")
	}
	dedent(raws)

	lead := 0
	for lead < len(raws) && raws[lead].text == "" {
		lead++
	}
	if lead == len(raws) {
		return nil
	}
	trail := 0
	for raws[len(raws)-1-trail].text == "" {
		trail++
	}
	body := raws[lead : len(raws)-trail]

	d := &Docstring{
		Lines:       make([]string, len(body)),
		Origins:     make([]Position, len(body)),
		BlankBefore: lead,
		BlankAfter:  trail + blankBelow,
		Notation:    notation,
		Inner:       inner,
		Line:        units[0].first + 1,
		Column:      units[0].markerCol,
		EndLine:     units[len(units)-1].last + 1,
	}
	for k, r := range body {
		d.Lines[k] = r.text
		d.Origins[k] = Position{Line: r.line, Column: r.col}
	}
	return d
}

// dedent removes the indentation shared by all non-blank lines.
func dedent(raws []rawLine) {
	common := -1
	for _, r := range raws {
		if r.text == "" {
			continue
		}
		if n := indentOf(r.text); common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return
	}
	for k := range raws {
		if raws[k].text == "" {
			continue
		}
		raws[k].text = raws[k].text[common:]
		raws[k].col += common
	}
}
