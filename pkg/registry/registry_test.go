package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/paths"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func TestDisk_FilenameList(t *testing.T) {
	first := filepath.Join(t.TempDir(), "checkpoints")
	second := filepath.Join(t.TempDir(), "checkpoints")

	touch(t, first, "SDXL/model_a.safetensors")
	touch(t, first, "notes.txt")
	touch(t, first, "broken.safetensors.partial")
	touch(t, second, "SDXL/model_a.safetensors")
	touch(t, second, "flux_v2.ckpt")

	ignore, err := paths.CompileIgnore([]string{`\.partial$`})
	require.NoError(t, err)

	d := NewDisk(map[string][]string{
		"checkpoints": {first, second, filepath.Join(t.TempDir(), "missing")},
	}, []string{".safetensors", ".ckpt"}, ignore)

	names := d.FilenameList("checkpoints")
	assert.Equal(t, []string{
		filepath.Join("SDXL", "model_a.safetensors"),
		"flux_v2.ckpt",
	}, names)

	assert.Empty(t, d.FilenameList("embeddings"))
}

func TestDisk_FullPath(t *testing.T) {
	first := filepath.Join(t.TempDir(), "checkpoints")
	second := filepath.Join(t.TempDir(), "checkpoints")
	touch(t, first, "a.ckpt")
	touch(t, second, "a.ckpt")
	touch(t, second, "b.ckpt")

	d := NewDisk(map[string][]string{"checkpoints": {first, second}}, nil, nil)

	p, ok := d.FullPath("checkpoints", "a.ckpt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "a.ckpt"), p)

	p, ok = d.FullPath("checkpoints", "b.ckpt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "b.ckpt"), p)

	_, ok = d.FullPath("checkpoints", "missing.ckpt")
	assert.False(t, ok)

	_, ok = d.FullPath("checkpoints", "../escape.ckpt")
	assert.False(t, ok)

	_, ok = d.FullPath("unknown", "a.ckpt")
	assert.False(t, ok)
}

func TestDisk_FolderPaths(t *testing.T) {
	base := t.TempDir()
	d := NewDisk(map[string][]string{"embeddings": {base}}, nil, nil)

	got := d.FolderPaths("embeddings")
	assert.Equal(t, []string{base}, got)

	got[0] = "mutated"
	assert.Equal(t, []string{base}, d.FolderPaths("embeddings"))
	assert.Empty(t, d.FolderPaths("checkpoints"))
}
