package rules

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Vocabulary is the word table behind the imperative mood heuristic.
type Vocabulary struct {
	Discourse     []string `yaml:"discourse"`
	NonImperative []string `yaml:"non_imperative"`
	Imperative    []string `yaml:"imperative"`
	Exceptions    []string `yaml:"exceptions"`
}

// ParseVocabulary decodes a YAML vocabulary.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return v, nil
}

// Mood classifies summary lines as imperative or not.
type Mood struct {
	discourse     map[string]struct{}
	nonImperative map[string]struct{}
	imperative    map[string]struct{}
	exceptions    map[string]struct{}
}

// NewMood builds a classifier from v.
func NewMood(v Vocabulary) *Mood {
	return &Mood{
		discourse:     wordSet(v.Discourse),
		nonImperative: wordSet(v.NonImperative),
		imperative:    wordSet(v.Imperative),
		exceptions:    wordSet(v.Exceptions),
	}
}

var (
	defaultMoodOnce sync.Once
	defaultMood     *Mood
)

// DefaultMood returns the classifier for the embedded vocabulary.
func DefaultMood() *Mood {
	defaultMoodOnce.Do(func() {
		v, err := ParseVocabulary(vocabularyYAML)
		if err != nil {
			panic(err)
		}
		defaultMood = NewMood(v)
	})
	return defaultMood
}

// Extend returns a copy of m with extra words added to the imperative and
// non-imperative lists.
func (m *Mood) Extend(imperative, nonImperative []string) *Mood {
	out := &Mood{
		discourse:     m.discourse,
		nonImperative: cloneSet(m.nonImperative),
		imperative:    cloneSet(m.imperative),
		exceptions:    m.exceptions,
	}
	for _, w := range imperative {
		out.imperative[normalizeWord(w)] = struct{}{}
	}
	for _, w := range nonImperative {
		out.nonImperative[normalizeWord(w)] = struct{}{}
	}
	return out
}

// IsImperative reports whether the first word of summary reads as an
// imperative verb. Lines without a word are accepted.
func (m *Mood) IsImperative(summary string) bool {
	fields := strings.Fields(summary)
	if len(fields) == 0 {
		return true
	}
	word := normalizeWord(fields[0])
	if word == "" {
		return true
	}
	if _, ok := m.discourse[word]; ok {
		return false
	}
	if _, ok := m.nonImperative[word]; ok {
		return false
	}
	if _, ok := m.imperative[word]; ok {
		return true
	}
	if _, ok := m.exceptions[word]; ok {
		return true
	}
	return !isThirdPerson(word)
}

// isThirdPerson matches the "-s" inflection, ignoring -ss, -us and -is.
func isThirdPerson(word string) bool {
	if len(word) <= 3 || !strings.HasSuffix(word, "s") {
		return false
	}
	for _, suffix := range []string{"ss", "us", "is"} {
		if strings.HasSuffix(word, suffix) {
			return false
		}
	}
	return true
}

func normalizeWord(w string) string {
	return strings.Map(func(r rune) rune {
		if !unicode.IsLetter(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, w)
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[normalizeWord(w)] = struct{}{}
	}
	return set
}

func cloneSet(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
