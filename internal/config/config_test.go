package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftss/riftss/internal/config"
	"github.com/riftss/riftss/internal/printer"
)

func TestLoadMissingFileReturnsBase(t *testing.T) {
	base := config.DefaultOptions()
	out, err := config.Load(filepath.Join(t.TempDir(), "riftss.toml"), base)
	require.NoError(t, err)
	assert.Equal(t, base.Style, out.Style)
	assert.Equal(t, base.Precision, out.Precision)
	assert.Empty(t, out.LoadPaths)
}

func TestLoadAppliesFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riftss.toml")
	contents := `
load_paths = ["vendor", "shared"]
style = "compressed"
precision = 3
source_comments = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	out, err := config.Load(path, config.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, printer.Compressed, out.Style)
	assert.Equal(t, 3, out.Precision)
	assert.True(t, out.SourceComments)
	require.Len(t, out.LoadPaths, 2)
	assert.Equal(t, "vendor", out.LoadPaths[0])
}
