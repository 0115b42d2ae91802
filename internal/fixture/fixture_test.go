package fixture

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportedOnlyFromTests(t *testing.T) {
	root := filepath.Join("..", "..")
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range file.Imports {
			importPath, err := strconv.Unquote(spec.Path.Value)
			require.NoError(t, err)
			assert.NotEqual(t, "filelens/internal/fixture", importPath, path)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestGrayTIFFCarriesExtraTags(t *testing.T) {
	data := GrayTIFF(ASCII(0x013B, "Jane Doe"))
	require.True(t, len(data) > 8)
	assert.Equal(t, []byte("II*\x00"), data[:4])
	assert.Contains(t, string(data), "Jane Doe")
}
