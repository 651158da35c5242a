package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, fsys.MkdirAll(dir, 0o755))

	name := filepath.Join(dir, "log.xml")
	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, "<SPAT/>")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "<SPAT/>", string(data))

	r, err := fsys.Open(name)
	require.NoError(t, err)
	defer r.Close()
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<SPAT/>", string(data))

	_, err = fsys.ReadFile(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()
	m.WriteFile("logs/a.xml", []byte("<MapData/>"))

	data, err := m.ReadFile("logs/./a.xml")
	require.NoError(t, err)
	assert.Equal(t, "<MapData/>", string(data))

	data[0] = 'X'
	again, _ := m.ReadFile("logs/a.xml")
	assert.Equal(t, "<MapData/>", string(again), "ReadFile returns a copy")

	r, err := m.Open("logs/a.xml")
	require.NoError(t, err)
	got, _ := io.ReadAll(r)
	assert.Equal(t, "<MapData/>", string(got))

	_, err = m.Open("logs/b.xml")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystemCreate(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("reports/run1", 0o755))
	assert.True(t, m.Exists("reports"))
	assert.True(t, m.Exists("reports/run1"))

	w, err := m.Create("reports/run1/summary.json")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`{"frames":`))
	_, _ = w.Write([]byte(`3}`))

	data, _ := m.ReadFile("reports/run1/summary.json")
	assert.Empty(t, data, "contents are published on Close")

	require.NoError(t, w.Close())
	data, _ = m.ReadFile("reports/run1/summary.json")
	assert.Equal(t, `{"frames":3}`, string(data))
	assert.True(t, m.Exists("reports/run1/summary.json"))
	assert.False(t, m.Exists("reports/run2"))
}
