package disk

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/codec"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskAdapter(t *testing.T) {
	// 1. 临时仓库
	tmpDir := t.TempDir()
	store, err := NewAdapter(tmpDir)
	require.NoError(t, err)

	ctx := context.Background()
	obj := core.NewBlob([]byte("hello\n"))
	require.Equal(t, types.Hash("ce013625030ba8dba906f756967f9e9ca394464a"), obj.ID())

	// 2. 写入
	require.NoError(t, store.Put(ctx, obj))

	// 文件位于分片子目录，内容是帧的 zlib 流
	expectedPath := filepath.Join(tmpDir, "objects", "ce", "013625030ba8dba906f756967f9e9ca394464a")
	raw, err := os.ReadFile(expectedPath)
	require.NoError(t, err, "文件应该存在于 Sharding 目录中")
	frame, err := codec.Decompress(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob 6\x00hello\n"), frame)

	info, err := os.Stat(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm(), "松散对象应为只读")

	// 3. 检查存在
	exists, err := store.Has(ctx, obj.ID())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Has(ctx, core.NewBlob([]byte("absent")).ID())
	require.NoError(t, err)
	assert.False(t, exists)

	// 4. 读取
	got, err := store.Get(ctx, obj.ID())
	require.NoError(t, err)
	assert.Equal(t, obj.Bytes(), got)
}

func TestDiskAdapter_IdempotentPut(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewAdapter(tmpDir)
	require.NoError(t, err)
	ctx := context.Background()

	obj := core.NewBlob([]byte("same bytes"))
	require.NoError(t, store.Put(ctx, obj))
	path := store.layout(obj.ID())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, obj))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// 子目录里只有一个文件，没有残留的临时文件
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiskAdapter_ConcurrentPut(t *testing.T) {
	store, err := NewAdapter(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	obj := core.NewBlob([]byte("racy"))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Put(ctx, obj)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := store.Get(ctx, obj.ID())
	require.NoError(t, err)
	assert.Equal(t, obj.Bytes(), got)
}

func TestDiskAdapter_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewAdapter(tmpDir)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Not found", func(t *testing.T) {
		_, err := store.Get(ctx, core.NewBlob([]byte("never stored")).ID())
		assert.ErrorIs(t, err, core.ErrObjectNotFound)
	})

	t.Run("Truncated compressed bytes", func(t *testing.T) {
		obj := core.NewBlob([]byte("this content will be cut in half on disk"))
		require.NoError(t, store.Put(ctx, obj))

		path := store.layout(obj.ID())
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.Chmod(path, 0o644))
		require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0o644))

		_, err = store.Get(ctx, obj.ID())
		assert.ErrorIs(t, err, core.ErrCorruptObject)
	})
}

func TestDiskAdapter_FrameCache(t *testing.T) {
	store, err := NewAdapter(t.TempDir(), WithCacheSize(8))
	require.NoError(t, err)
	require.NotNil(t, store.frames)
	ctx := context.Background()

	obj := core.NewBlob([]byte("cached"))
	require.NoError(t, store.Put(ctx, obj))

	first, err := store.Get(ctx, obj.ID())
	require.NoError(t, err)
	assert.True(t, store.frames.Contains(obj.ID()))
	first[0] = 'J'

	// 文件删掉后依然从缓存返回
	require.NoError(t, os.Remove(store.layout(obj.ID())))
	got, err := store.Get(ctx, obj.ID())
	require.NoError(t, err)
	assert.Equal(t, obj.Bytes(), got)

	// 调用方修改自己的副本，不能影响之后的读取
	got[len(got)-1] = 'X'
	again, err := store.Get(ctx, obj.ID())
	require.NoError(t, err)
	assert.Equal(t, obj.Bytes(), again)

	disabled, err := NewAdapter(t.TempDir(), WithCacheSize(0))
	require.NoError(t, err)
	assert.Nil(t, disabled.frames)
}

func TestDiskAdapter_ExpandHash(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewAdapter(tmpDir)
	require.NoError(t, err)
	ctx := context.Background()

	obj := core.NewBlob([]byte("hello\n")) // ce013625...
	require.NoError(t, store.Put(ctx, obj))

	zeros32 := strings.Repeat("0", 32)

	// 放两个前缀相同的文件，制造歧义
	bucket := filepath.Join(tmpDir, "objects", "11")
	require.NoError(t, os.MkdirAll(bucket, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "11aaaa"+zeros32), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "11bbbb"+zeros32), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "tmp-123"), nil, 0o644))

	tests := []struct {
		name     string
		input    string
		wantHash types.Hash
		wantErr  error
	}{
		{"Exact match", string(obj.ID()), obj.ID(), nil},
		{"Unique prefix (4 chars)", "ce01", obj.ID(), nil},
		{"Unique prefix (long)", "ce013625", obj.ID(), nil},
		{"Ambiguous prefix", "1111", "", storage.ErrAmbiguousHash},
		{"Unique after disambiguation", "1111aa", types.Hash("1111aaaa" + zeros32), nil},
		{"Not found", "ffff", "", core.ErrObjectNotFound},
		{"Not found in bucket", "ce02", "", core.ErrObjectNotFound},
		{"Too short", "ce0", "", storage.ErrPrefixTooShort},
		{"Not hex", "zzzz", "", types.ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ExpandHash(ctx, types.HashPrefix(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHash, got)
		})
	}
}

func TestDiskAdapter_Walk(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewAdapter(tmpDir)
	require.NoError(t, err)
	ctx := context.Background()

	want := []string{}
	for _, s := range []string{"a", "b", "c", "d"} {
		obj := core.NewBlob([]byte(s))
		require.NoError(t, store.Put(ctx, obj))
		want = append(want, string(obj.ID()))
	}
	// Walk 必须忽略的干扰文件
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "objects", "README"), nil, 0o644))

	var got []string
	require.NoError(t, store.Walk(ctx, func(h types.Hash) error {
		got = append(got, string(h))
		return nil
	}))

	sort.Strings(want)
	sort.Strings(got)
	assert.Equal(t, want, got)
}
