package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrParse is returned when the syntax tree of a file contains errors.
var ErrParse = errors.New("syntax error")

// Extractor orchestrates parsing and classification using a language-specific extractor.
type Extractor struct {
	langExtractor LanguageExtractor
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "rust":
		langExt = &RustExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt}, nil
}

// ExtractFromFile reads and classifies a single source file.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string, role FileRole) (*File, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.ExtractFromSource(ctx, path, sourceCode, role)
}

// ExtractFromSource parses sourceCode and returns its checkable items in
// source order. A synthetic file item is prepended when role asks for one.
func (e *Extractor) ExtractFromSource(ctx context.Context, path string, sourceCode []byte, role FileRole) (*File, error) {
	// Parsers are not safe for concurrent use, so each call gets its own.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPoint(root)
		return nil, fmt.Errorf("failed to parse file %s: %w at %d:%d", path, ErrParse, line, col)
	}

	var items []Item
	if role != RoleNone {
		items = append(items, e.langExtractor.FileItem(path, role, sourceCode))
	}
	items = append(items, e.langExtractor.Classify(root, sourceCode)...)

	return &File{
		Path:   path,
		Source: sourceCode,
		Lines:  SplitLines(sourceCode),
		Items:  items,
	}, nil
}

// SplitLines splits source text into lines without their terminators.
func SplitLines(sourceCode []byte) []string {
	text := string(sourceCode)
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func firstErrorPoint(n *sitter.Node) (int, int) {
	if n.IsError() || n.IsMissing() {
		p := n.StartPoint()
		return int(p.Row) + 1, int(p.Column) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			return firstErrorPoint(child)
		}
	}
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}
