package rules

import (
	"github.com/jayvdb/pep257-rs/internal/docstring"
	"github.com/jayvdb/pep257-rs/internal/extractor"
	"github.com/jayvdb/pep257-rs/internal/report"
)

// missingRule reports public items of the matched kinds that have no docstring.
func missingRule(id, name, desc string, match func(extractor.Item) bool) Rule {
	r := Rule{
		ID:          id,
		Name:        name,
		Severity:    report.SevError,
		Category:    CategoryMissing,
		Description: desc,
	}
	r.Check = func(s Subject) []report.Violation {
		if s.Doc != nil || s.Item.Visibility != extractor.Public || !match(s.Item) {
			return nil
		}
		pos := docstring.Position{Line: s.Item.Line, Column: s.Item.Column}
		return []report.Violation{r.violation(pos, "Missing docstring in public "+kindWord(s.Item))}
	}
	return r
}

func kindIs(kinds ...extractor.Kind) func(extractor.Item) bool {
	return func(item extractor.Item) bool {
		for _, k := range kinds {
			if item.Kind == k {
				return true
			}
		}
		return false
	}
}

func missingRules() []Rule {
	return []Rule{
		missingRule("D100", "missing-module-docstring",
			"Public modules with a body, and module files, need a docstring.",
			func(item extractor.Item) bool {
				// `mod foo;` is documented in its own file.
				return item.Kind == extractor.KindModule && item.HasBody
			}),
		missingRule("D101", "missing-type-docstring",
			"Public structs, enums, traits and unions need a docstring.",
			kindIs(extractor.KindStructuredType, extractor.KindEnumeration, extractor.KindTraitLike, extractor.KindUnion)),
		missingRule("D102", "missing-method-docstring",
			"Public methods need a docstring.",
			kindIs(extractor.KindMethod)),
		missingRule("D103", "missing-function-docstring",
			"Public functions need a docstring.",
			kindIs(extractor.KindFunction)),
		missingRule("D104", "missing-package-docstring",
			"Crate roots need an inner docstring.",
			kindIs(extractor.KindPackageRoot)),
		missingRule("D106", "missing-nested-type-docstring",
			"Public types declared inside functions, impls or traits need a docstring.",
			kindIs(extractor.KindNestedStructuredType)),
		missingRule("R101", "missing-type-alias-docstring",
			"Public type aliases need a docstring.",
			kindIs(extractor.KindTypeAlias)),
		missingRule("R102", "missing-constant-docstring",
			"Public consts and statics need a docstring.",
			kindIs(extractor.KindConstantOrStatic)),
		missingRule("R103", "missing-macro-docstring",
			"Exported macros need a docstring.",
			kindIs(extractor.KindMacro)),
	}
}
