package refs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Layout(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".git")
	mgr := NewManager(root)

	assert.False(t, mgr.IsInitialized())
	_, err := mgr.GetHead()
	assert.ErrorIs(t, err, ErrNoHead)

	created, err := mgr.Init()
	require.NoError(t, err)
	assert.True(t, created)

	for _, dir := range []string{"objects", "refs", "refs/heads"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	data, err := os.ReadFile(filepath.Join(root, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main\n", string(data))

	head, err := mgr.GetHead()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", head)
}

func TestInit_Reinitialize(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.Init()
	require.NoError(t, err)
	require.NoError(t, mgr.SetHead("dev"))

	created, err := mgr.Init()
	require.NoError(t, err)
	assert.False(t, created)

	head, err := mgr.GetHead()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/dev", head, "重复 init 必须保留 HEAD")
}

func TestGetHead_Invalid(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "HEAD"), []byte("ce013625030ba8dba906f756967f9e9ca394464a\n"), 0o644))

	_, err := mgr.GetHead()
	assert.ErrorIs(t, err, ErrInvalidHead)
}

func TestSetHead_RejectsBadNames(t *testing.T) {
	mgr := NewManager(t.TempDir())
	for _, name := range []string{"", "a b", "../escape", "x\x00y"} {
		assert.ErrorIs(t, mgr.SetHead(name), ErrInvalidRefName, "name %q", name)
	}
}
