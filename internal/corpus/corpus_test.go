package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "10.txt"), "ten")
	writeFile(t, filepath.Join(dir, "2.txt"), "two")
	writeFile(t, filepath.Join(dir, "empty.txt"), "")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))
	writeFile(t, filepath.Join(dir, "sub.txt", "3.txt"), "nested")

	docs, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []indexer.Document{
		{ID: "10", Text: "ten"},
		{ID: "2", Text: "two"},
		{ID: "empty", Text: ""},
	}, docs)
}

func TestLoadDir_Empty(t *testing.T) {
	docs, err := LoadDir(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, docs)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}

func TestLoadDir_RejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.txt"), "ok \xff\xfe")

	_, err := LoadDir(dir)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
