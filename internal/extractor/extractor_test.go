package extractor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemView struct {
	Name       string
	Kind       Kind
	Visibility Visibility
	Line       int
}

func TestExtractor_ExtractFromFile(t *testing.T) {
	ext, err := NewExtractor("rust")
	require.NoError(t, err)

	file, err := ext.ExtractFromFile(context.Background(), filepath.Join("testdata", "sample.rs"), RoleNone)
	require.NoError(t, err)
	assert.Len(t, file.Lines, 66)

	byName := make(map[string]Item)
	var got []itemView
	for _, item := range file.Items {
		byName[item.Name] = item
		got = append(got, itemView{item.Name, item.Kind, item.Visibility, item.Line})
	}

	t.Run("Source order", func(t *testing.T) {
		assert.Equal(t, []itemView{
			{"add", KindFunction, Public, 6},
			{"Scratch", KindNestedStructuredType, Private, 8},
			{"hidden", KindFunction, Private, 12},
			{"Point", KindStructuredType, Public, 17},
			{"norm", KindMethod, Public, 22},
			{"Counter", KindStructuredType, Public, 27},
			{"next", KindMethod, Private, 32},
			{"Shape", KindTraitLike, Public, 37},
			{"area", KindFunction, Private, 38},
			{"Color", KindEnumeration, Public, 41},
			{"Bits", KindUnion, Public, 45},
			{"outline", KindModule, Public, 49},
			{"inline", KindModule, Public, 51},
			{"LIMIT", KindConstantOrStatic, Public, 52},
			{"COUNT", KindConstantOrStatic, Public, 55},
			{"Alias", KindTypeAlias, Public, 57},
			{"shout", KindMacro, Public, 60},
			{"quiet", KindMacro, Private, 64},
		}, got)
	})

	t.Run("Anchor skips plain attributes", func(t *testing.T) {
		assert.Equal(t, 15, byName["Point"].AnchorLine)
		assert.Equal(t, 6, byName["add"].AnchorLine)
		assert.Equal(t, 59, byName["shout"].AnchorLine)
	})

	t.Run("Nesting", func(t *testing.T) {
		assert.True(t, byName["Scratch"].IsNested)
		assert.Equal(t, 5, byName["Scratch"].Column)
		assert.False(t, byName["Point"].IsNested)
	})

	t.Run("Modules", func(t *testing.T) {
		assert.False(t, byName["outline"].HasBody)
		assert.True(t, byName["inline"].HasBody)
		assert.Equal(t, 53, byName["inline"].EndLine)
	})

	t.Run("Keywords", func(t *testing.T) {
		assert.Equal(t, "const", byName["LIMIT"].Keyword)
		assert.Equal(t, "static", byName["COUNT"].Keyword)
		assert.Equal(t, "union", byName["Bits"].Keyword)
		assert.Equal(t, "macro_rules", byName["shout"].Keyword)
	})

	t.Run("Signatures", func(t *testing.T) {
		assert.Equal(t, "pub fn add(a: i32, b: i32) -> i32", byName["add"].Signature)
		assert.Equal(t, "fn area(&self) -> f64", byName["area"].Signature)
	})

	t.Run("Associated types are not aliases", func(t *testing.T) {
		_, ok := byName["Item"]
		assert.False(t, ok)
	})
}

func TestExtractor_FileItem(t *testing.T) {
	ext, err := NewExtractor("rust")
	require.NoError(t, err)
	src := []byte("/// Add.\npub fn add() {}\n")

	tests := []struct {
		path string
		role FileRole
		kind Kind
		name string
	}{
		{"src/lib.rs", RolePackageRoot, KindPackageRoot, "crate"},
		{"src/net/mod.rs", RoleModule, KindModule, "net"},
		{"src/util.rs", RoleModule, KindModule, "util"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			file, err := ext.ExtractFromSource(context.Background(), tt.path, src, tt.role)
			require.NoError(t, err)
			require.Len(t, file.Items, 2)
			fi := file.Items[0]
			assert.True(t, fi.Synthetic)
			assert.Equal(t, tt.kind, fi.Kind)
			assert.Equal(t, tt.name, fi.Name)
			assert.Equal(t, Public, fi.Visibility)
			assert.Equal(t, 2, fi.EndLine)
			assert.Equal(t, "add", file.Items[1].Name)
		})
	}

	file, err := ext.ExtractFromSource(context.Background(), "src/util.rs", src, RoleNone)
	require.NoError(t, err)
	assert.Len(t, file.Items, 1)
}

func TestExtractor_ParseError(t *testing.T) {
	ext, err := NewExtractor("rust")
	require.NoError(t, err)
	_, err = ext.ExtractFromSource(context.Background(), "broken.rs", []byte("pub fn broken( {\n"), RoleNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "broken.rs")
}

func TestNewExtractor_Unsupported(t *testing.T) {
	_, err := NewExtractor("go")
	assert.Error(t, err)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(nil))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines([]byte("a\r\n\nb\n")))
	assert.Equal(t, []string{"a"}, SplitLines([]byte("a")))
}
