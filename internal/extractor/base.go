package extractor

import sitter "github.com/smacker/go-tree-sitter"

// LanguageExtractor defines the interface that each language classifier must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	// Classify walks the tree in source order and returns the checkable items.
	Classify(root *sitter.Node, sourceCode []byte) []Item
	// FileItem returns the synthetic item representing the file itself.
	FileItem(path string, role FileRole, sourceCode []byte) Item
}
