// Package rules holds the docstring rule catalog and the engine that applies
// it to harvested items.
package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jayvdb/pep257-rs/internal/docstring"
	"github.com/jayvdb/pep257-rs/internal/extractor"
	"github.com/jayvdb/pep257-rs/internal/report"
)

// Category groups rules for presentation order.
type Category uint8

const (
	CategoryMissing Category = iota
	CategoryStructural
	CategoryContent
)

func (c Category) String() string {
	switch c {
	case CategoryMissing:
		return "missing"
	case CategoryStructural:
		return "structural"
	case CategoryContent:
		return "content"
	}
	return "unknown"
}

// Subject is what a rule inspects: one item and its docstring, which is nil
// when the item has none.
type Subject struct {
	Item extractor.Item
	Doc  *docstring.Docstring
	Mood *Mood
}

// Rule is a pure check over a Subject.
type Rule struct {
	ID          string
	Name        string
	Severity    report.Severity
	Category    Category
	Description string
	Check       func(s Subject) []report.Violation
}

func (r Rule) violation(pos docstring.Position, message string) report.Violation {
	return report.Violation{
		Rule:     r.ID,
		Message:  message,
		Line:     pos.Line,
		Column:   pos.Column,
		Severity: r.Severity,
	}
}

// Registry is an ordered, immutable rule set.
type Registry struct {
	rules []Rule
	byID  map[string]int
}

// NewRegistry builds a registry, rejecting duplicate ids.
func NewRegistry(rules ...Rule) (*Registry, error) {
	reg := &Registry{rules: make([]Rule, 0, len(rules)), byID: make(map[string]int, len(rules))}
	for _, r := range rules {
		if _, dup := reg.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %s", r.ID)
		}
		reg.byID[r.ID] = len(reg.rules)
		reg.rules = append(reg.rules, r)
	}
	return reg, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in catalog: missing, structural and content
// rules, in that order.
func Default() *Registry {
	defaultOnce.Do(func() {
		var all []Rule
		all = append(all, missingRules()...)
		all = append(all, structuralRules()...)
		all = append(all, contentRules()...)
		reg, err := NewRegistry(all...)
		if err != nil {
			panic(err)
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Rules returns a copy of the rules in presentation order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Lookup finds a rule by id.
func (r *Registry) Lookup(id string) (Rule, bool) {
	i, ok := r.byID[strings.ToUpper(id)]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// Filter returns a new registry keeping the rules matched by selectIDs (all
// when empty) minus those matched by ignoreIDs. An entry matches a rule when
// it is the rule id or a prefix of it, so "D4" covers the D400 series.
func (r *Registry) Filter(selectIDs, ignoreIDs []string) (*Registry, error) {
	if err := r.checkPatterns(selectIDs); err != nil {
		return nil, err
	}
	if err := r.checkPatterns(ignoreIDs); err != nil {
		return nil, err
	}
	var kept []Rule
	for _, rule := range r.rules {
		if len(selectIDs) > 0 && !matchesAny(rule.ID, selectIDs) {
			continue
		}
		if matchesAny(rule.ID, ignoreIDs) {
			continue
		}
		kept = append(kept, rule)
	}
	return NewRegistry(kept...)
}

func (r *Registry) checkPatterns(patterns []string) error {
	for _, p := range patterns {
		found := false
		for _, rule := range r.rules {
			if matchesAny(rule.ID, []string{p}) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown rule %q", p)
		}
	}
	return nil
}

func matchesAny(id string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// Engine evaluates a registry against items.
type Engine struct {
	registry *Registry
	mood     *Mood
}

// NewEngine creates an engine. Nil arguments select the defaults.
func NewEngine(reg *Registry, mood *Mood) *Engine {
	if reg == nil {
		reg = Default()
	}
	if mood == nil {
		mood = DefaultMood()
	}
	return &Engine{registry: reg, mood: mood}
}

// Registry returns the rules the engine applies.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate runs every rule against one item. Violations come back in
// registry order; callers sort them with report.Aggregate.
func (e *Engine) Evaluate(item extractor.Item, doc *docstring.Docstring) []report.Violation {
	s := Subject{Item: item, Doc: doc, Mood: e.mood}
	var out []report.Violation
	for _, r := range e.registry.rules {
		out = append(out, r.Check(s)...)
	}
	return out
}

// kindWord is how messages name an item kind.
func kindWord(item extractor.Item) string {
	switch item.Kind {
	case extractor.KindStructuredType, extractor.KindEnumeration, extractor.KindTraitLike, extractor.KindUnion:
		return item.Keyword
	case extractor.KindNestedStructuredType:
		return "nested " + item.Keyword
	case extractor.KindConstantOrStatic:
		return item.Keyword
	}
	return item.Kind.String()
}
