package extractor

// Kind classifies a checkable declaration.
type Kind uint8

const (
	KindFunction Kind = iota
	KindMethod
	KindStructuredType
	KindEnumeration
	KindTraitLike
	KindUnion
	KindModule
	KindPackageRoot
	KindNestedStructuredType
	KindTypeAlias
	KindConstantOrStatic
	KindMacro
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindStructuredType:
		return "struct"
	case KindEnumeration:
		return "enum"
	case KindTraitLike:
		return "trait"
	case KindUnion:
		return "union"
	case KindModule:
		return "module"
	case KindPackageRoot:
		return "package"
	case KindNestedStructuredType:
		return "nested type"
	case KindTypeAlias:
		return "type alias"
	case KindConstantOrStatic:
		return "constant"
	case KindMacro:
		return "macro"
	}
	return "unknown"
}

// Visibility is Public only for a bare `pub` marker.
type Visibility uint8

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "private"
}

// Item is a checkable declaration found in one file.
type Item struct {
	Kind       Kind       `json:"kind"`
	Visibility Visibility `json:"visibility"`
	Name       string     `json:"name"`
	Keyword    string     `json:"keyword"` // declaring keyword: fn, struct, enum, const, static, mod, ...

	Line       int `json:"line"`   // 1-based line of the item node
	Column     int `json:"column"` // 1-based column of the item node
	EndLine    int `json:"end_line"`
	AnchorLine int `json:"anchor_line"` // first line of attached non-doc attributes, or Line

	IsNested  bool   `json:"is_nested"`
	HasBody   bool   `json:"has_body"`  // modules: inline `mod x { .. }`
	Synthetic bool   `json:"synthetic"` // file-level package/module item
	Signature string `json:"signature,omitempty"`
}

// FileRole tells the classifier whether the file itself is a module boundary.
type FileRole uint8

const (
	RoleNone FileRole = iota
	RolePackageRoot
	RoleModule
)

// File is the classified view of one source file.
type File struct {
	Path   string
	Source []byte
	Lines  []string
	Items  []Item
}
