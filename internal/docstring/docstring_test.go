package docstring

import (
	"testing"

	"github.com/jayvdb/pep257-rs/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemAt(anchor int) extractor.Item {
	return extractor.Item{Kind: extractor.KindFunction, Line: anchor, AnchorLine: anchor}
}

func TestHarvest_NotationsYieldSameLines(t *testing.T) {
	want := []string{"Add two numbers.", "", "Returns the sum."}

	t.Run("Line", func(t *testing.T) {
		lines := []string{
			"/// Add two numbers.",
			"///",
			"/// Returns the sum.",
			"pub fn add() {}",
		}
		doc := Harvest(itemAt(4), lines)
		require.NotNil(t, doc)
		assert.Equal(t, want, doc.Lines)
		assert.Equal(t, NotationLine, doc.Notation)
		assert.Equal(t, 1, doc.Line)
		assert.Equal(t, 1, doc.Column)
		assert.Equal(t, 3, doc.EndLine)
		assert.Equal(t, Position{Line: 1, Column: 5}, doc.Origins[0])
		assert.Equal(t, Position{Line: 3, Column: 5}, doc.Origins[2])
	})

	t.Run("Block", func(t *testing.T) {
		lines := []string{
			"/**",
			" * Add two numbers.",
			" *",
			" * Returns the sum.",
			" */",
			"pub fn add() {}",
		}
		doc := Harvest(itemAt(6), lines)
		require.NotNil(t, doc)
		assert.Equal(t, want, doc.Lines)
		assert.Equal(t, NotationBlock, doc.Notation)
		assert.Equal(t, 0, doc.BlankBefore)
		assert.Equal(t, 0, doc.BlankAfter)
		assert.Equal(t, 1, doc.Line)
		assert.Equal(t, 5, doc.EndLine)
		assert.Equal(t, Position{Line: 2, Column: 4}, doc.Origins[0])
	})

	t.Run("Attribute", func(t *testing.T) {
		lines := []string{
			`#[doc = "Add two numbers."]`,
			`#[doc = ""]`,
			`#[doc = " Returns the sum."]`,
			"pub fn add() {}",
		}
		doc := Harvest(itemAt(4), lines)
		require.NotNil(t, doc)
		assert.Equal(t, want, doc.Lines)
		assert.Equal(t, NotationAttribute, doc.Notation)
		assert.Equal(t, Position{Line: 1, Column: 10}, doc.Origins[0])
	})
}

func TestHarvest_BlankCounts(t *testing.T) {
	t.Run("Blank source line below run", func(t *testing.T) {
		doc := Harvest(itemAt(3), []string{"/// Doc.", "", "fn f() {}"})
		require.NotNil(t, doc)
		assert.Equal(t, []string{"Doc."}, doc.Lines)
		assert.Equal(t, 1, doc.BlankAfter)
		assert.Equal(t, 0, doc.BlankBefore)
	})

	t.Run("Trailing blank doc line", func(t *testing.T) {
		doc := Harvest(itemAt(3), []string{"/// Doc.", "///", "fn f() {}"})
		require.NotNil(t, doc)
		assert.Equal(t, 1, doc.BlankAfter)
	})

	t.Run("Leading blank doc line", func(t *testing.T) {
		doc := Harvest(itemAt(3), []string{"///", "/// Doc.", "fn f() {}"})
		require.NotNil(t, doc)
		assert.Equal(t, []string{"Doc."}, doc.Lines)
		assert.Equal(t, 1, doc.BlankBefore)
		assert.Equal(t, Position{Line: 2, Column: 5}, doc.Origins[0])
	})

	t.Run("Leading blank block line", func(t *testing.T) {
		lines := []string{"/**", " *", " * Doc.", " */", "fn f() {}"}
		doc := Harvest(itemAt(5), lines)
		require.NotNil(t, doc)
		assert.Equal(t, 1, doc.BlankBefore)
		assert.Equal(t, 0, doc.BlankAfter)
	})
}

func TestHarvest_NoDocstring(t *testing.T) {
	cases := map[string][]string{
		"nothing above":     {"fn f() {}"},
		"plain comment":     {"// not a doc", "fn f() {}"},
		"four slashes":      {"//// banner", "fn f() {}"},
		"banner block":      {"/*** banner ***/", "fn f() {}"},
		"only blank lines":  {"///", "///", "fn f() {}"},
		"separated by code": {"/// Doc.", "let x = 1;", "fn f() {}"},
		"inner doc":         {"//! Crate docs.", "fn f() {}"},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, Harvest(itemAt(len(lines)), lines))
		})
	}
}

func TestHarvest_NearestRunOnly(t *testing.T) {
	lines := []string{
		"/// Other.",
		`#[doc = "Attr doc."]`,
		"fn f() {}",
	}
	doc := Harvest(itemAt(3), lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Attr doc."}, doc.Lines)
	assert.Equal(t, 2, doc.Line)
}

func TestHarvest_TrailingBlockAfterCode(t *testing.T) {
	lines := []string{
		"/** Doc a. */",
		"pub fn a() {}",
		"const X: i32 = 1; /* trailing */",
		"pub fn b() {}",
	}
	assert.Nil(t, Harvest(itemAt(4), lines))

	doc := Harvest(itemAt(2), lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Doc a."}, doc.Lines)
}

func TestHarvest_NestedBlockComment(t *testing.T) {
	lines := []string{
		"/**",
		" * Skip /* nested */ text.",
		" */",
		"fn f() {}",
	}
	doc := Harvest(itemAt(4), lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Skip /* nested */ text."}, doc.Lines)

	// The nested comment keeps the outer one open across the code line.
	spanning := []string{"/** Open /* inner */", "fn f() {} */", "fn g() {}"}
	doc = Harvest(itemAt(3), spanning)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Open /* inner */", "fn f() {}"}, doc.Lines)
}

func TestHarvest_DetachedRun(t *testing.T) {
	lines := []string{
		"/// Detached.",
		"",
		"/// Doc.",
		"pub fn f() {}",
	}
	doc := Harvest(itemAt(4), lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Doc."}, doc.Lines)
	assert.Equal(t, 1, doc.BlankBefore)
	assert.Equal(t, 3, doc.Line)

	spaced := []string{
		"/// Doc a.",
		"pub fn a() {}",
		"",
		"",
		"/// Doc b.",
		"pub fn b() {}",
	}
	doc = Harvest(itemAt(6), spaced)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.BlankBefore)
}

func TestHarvest_SkipsNonDocAttributes(t *testing.T) {
	lines := []string{
		"/// A point.",
		"#[derive(Debug)]",
		"pub struct Point;",
	}
	item := extractor.Item{Kind: extractor.KindStructuredType, Line: 3, AnchorLine: 2}
	doc := Harvest(item, lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"A point."}, doc.Lines)
}

func TestHarvest_IndentedItem(t *testing.T) {
	lines := []string{
		"impl S {",
		"    /// Make it.",
		"    fn make() {}",
		"}",
	}
	doc := Harvest(itemAt(3), lines)
	require.NotNil(t, doc)
	assert.Equal(t, 5, doc.Column)
	assert.Equal(t, Position{Line: 2, Column: 9}, doc.Origins[0])
}

func TestHarvest_CommonIndentRemoved(t *testing.T) {
	lines := []string{"///  Summary.", "///  More.", "fn f() {}"}
	doc := Harvest(itemAt(3), lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Summary.", "More."}, doc.Lines)
	assert.Equal(t, Position{Line: 1, Column: 6}, doc.Origins[0])
}

func TestHarvest_JoinedBlocks(t *testing.T) {
	lines := []string{"/** First. */", "/** Second. */", "fn f() {}"}
	doc := Harvest(itemAt(3), lines)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"First.", "Second."}, doc.Lines)
	assert.Equal(t, 1, doc.Line)
	assert.Equal(t, 2, doc.EndLine)
}

func TestHarvest_AttributeLiterals(t *testing.T) {
	doc := Harvest(itemAt(2), []string{`#[doc = "Line one.\nLine two."]`, "fn f() {}"})
	require.NotNil(t, doc)
	assert.Equal(t, []string{"Line one.", "Line two."}, doc.Lines)
	assert.True(t, doc.IsMultiline())

	doc = Harvest(itemAt(2), []string{`#[doc = r#"Raw "quoted"."#]`, "fn f() {}"})
	require.NotNil(t, doc)
	assert.Equal(t, []string{`Raw "quoted".`}, doc.Lines)
	assert.False(t, doc.IsMultiline())
}

func TestHarvestInner(t *testing.T) {
	t.Run("Line", func(t *testing.T) {
		lines := []string{
			"// Copyright notice",
			"//! Crate docs.",
			"//!",
			"//! More.",
			"",
			"fn main() {}",
		}
		doc := HarvestInner(lines)
		require.NotNil(t, doc)
		assert.Equal(t, []string{"Crate docs.", "", "More."}, doc.Lines)
		assert.True(t, doc.Inner)
		assert.Equal(t, 0, doc.BlankAfter)
		assert.Equal(t, 2, doc.Line)
	})

	t.Run("Block", func(t *testing.T) {
		doc := HarvestInner([]string{"/*! Crate docs. */", "fn main() {}"})
		require.NotNil(t, doc)
		assert.Equal(t, []string{"Crate docs."}, doc.Lines)
		assert.Equal(t, Position{Line: 1, Column: 5}, doc.Origins[0])
	})

	t.Run("Attribute after shebang", func(t *testing.T) {
		doc := HarvestInner([]string{"#!/usr/bin/env run-cargo-script", `#![doc = "Crate docs."]`})
		require.NotNil(t, doc)
		assert.Equal(t, NotationAttribute, doc.Notation)
		assert.Equal(t, []string{"Crate docs."}, doc.Lines)
	})

	t.Run("After inner attributes", func(t *testing.T) {
		doc := HarvestInner([]string{"#![allow(dead_code)]", "//! Crate docs.", "", "pub fn f() {}"})
		require.NotNil(t, doc)
		assert.Equal(t, []string{"Crate docs."}, doc.Lines)
		assert.Equal(t, 2, doc.Line)

		doc = HarvestInner([]string{
			"#![cfg_attr(",
			"    docsrs,",
			"    feature(doc_cfg)",
			")]",
			"#![deny(missing_docs)]",
			"/*! Crate docs. */",
		})
		require.NotNil(t, doc)
		assert.Equal(t, 6, doc.Line)
	})

	t.Run("Missing", func(t *testing.T) {
		assert.Nil(t, HarvestInner([]string{"/// Outer doc.", "fn main() {}"}))
		assert.Nil(t, HarvestInner([]string{"#![allow(dead_code)]", "", "pub fn f() {}"}))
		assert.Nil(t, HarvestInner(nil))
	})

	t.Run("Synthetic item", func(t *testing.T) {
		item := extractor.Item{Kind: extractor.KindPackageRoot, Synthetic: true, AnchorLine: 1}
		doc := Harvest(item, []string{"//! Crate docs."})
		require.NotNil(t, doc)
		assert.True(t, doc.Inner)
	})
}

func TestDecodeStringLiteral(t *testing.T) {
	value, off, n, ok := decodeStringLiteral(`"a\tb\\c\"d"]`)
	require.True(t, ok)
	assert.Equal(t, "a\tb\\c\"d", value)
	assert.Equal(t, 1, off)
	assert.Equal(t, 12, n)

	value, _, _, ok = decodeStringLiteral(`"\u{e9}"`)
	require.True(t, ok)
	assert.Equal(t, "é", value)

	_, _, _, ok = decodeStringLiteral(`"unterminated`)
	assert.False(t, ok)
}
