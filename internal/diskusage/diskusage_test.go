package diskusage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeSumsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), make([]byte, 100), 0o644))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.ts"), make([]byte, 50), 0o644))

	total, err := Size(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}

func TestSizeEmptyDirectory(t *testing.T) {
	total, err := Size(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestSizeMissingDirectory(t *testing.T) {
	_, err := Size(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestHumanSizeFormatsBytes(t *testing.T) {
	assert.Equal(t, "1MB", HumanSize(1_000_000))
}
