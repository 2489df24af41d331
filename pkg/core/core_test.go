package core

import (
	"errors"
	"fmt"
	"testing"

	"gitvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. 封帧与哈希
// -----------------------------------------------------------------------------

func TestFrame_KnownVector(t *testing.T) {
	frame, err := Frame(TypeBlob, []byte("hello\n"))
	require.NoError(t, err)

	assert.Equal(t, []byte("blob 6\x00hello\n"), frame)
	assert.Equal(t, types.Hash("ce013625030ba8dba906f756967f9e9ca394464a"), CalculateHash(frame))
}

func TestFrame_InvalidKind(t *testing.T) {
	_, err := Frame(ObjectType("tag"), []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = Frame(ObjectType(""), nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestCalculateHash_Deterministic(t *testing.T) {
	for _, content := range []string{"", "a", "hello\n", string(make([]byte, 4096))} {
		h1 := NewBlob([]byte(content)).ID()
		h2 := NewBlob([]byte(content)).ID()
		assert.Equal(t, h1, h2, "%q 的 blob 摘要必须稳定", content)
		assert.True(t, h1.IsValid())
	}

	// 空 blob 的摘要是已知常量
	assert.Equal(t, types.Hash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"), NewBlob(nil).ID())
}

func TestParseFrame(t *testing.T) {
	kind, payload, err := ParseFrame([]byte("blob 6\x00hello\n"))
	require.NoError(t, err)
	assert.Equal(t, TypeBlob, kind)
	assert.Equal(t, []byte("hello\n"), payload)

	kind, payload, err = ParseFrame([]byte("tree 0\x00"))
	require.NoError(t, err)
	assert.Equal(t, TypeTree, kind)
	assert.Empty(t, payload)

	_, payload, err = ParseFrame([]byte("blob 0\x00"))
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestParseFrame_Corrupt(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"No NUL", "blob 6hello\n"},
		{"No space", "blob6\x00hello\n"},
		{"Unknown kind", "tag 1\x00x"},
		{"Bad length", "blob x\x00hello\n"},
		{"Negative length", "blob -1\x00"},
		{"Length too big", "blob 7\x00hello\n"},
		{"Length too small", "blob 5\x00hello\n"},
		{"Empty", ""},
		{"Plus sign", "blob +6\x00hello\n"},
		{"Leading zero", "blob 06\x00hello\n"},
		{"Zero with leading zero", "blob 00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFrame([]byte(tt.input))
			assert.ErrorIs(t, err, ErrCorruptObject)
		})
	}
}

func TestBlob_Accessors(t *testing.T) {
	b := NewBlob([]byte("hi\n"))
	assert.Equal(t, TypeBlob, b.Type())
	assert.Equal(t, []byte("hi\n"), b.Content())
	assert.Equal(t, int64(3), b.Size())
	assert.Equal(t, []byte("blob 3\x00hi\n"), b.Bytes())
	assert.Equal(t, types.Hash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057"), b.ID())
}

// -----------------------------------------------------------------------------
// 2. Tree 编码
// -----------------------------------------------------------------------------

func TestTree_Empty(t *testing.T) {
	tree := mustNewTree(t, nil)
	assert.Equal(t, []byte("tree 0\x00"), tree.Bytes())
	assert.Equal(t, EmptyTreeHash, tree.ID())
	assert.Empty(t, tree.Entries())
}

func TestTree_CanonicalOrder(t *testing.T) {
	a := TreeEntry{Mode: ModeFile, Name: "a.txt", Hash: mockHash("a")}
	b := TreeEntry{Mode: ModeDir, Name: "b", Hash: EmptyTreeHash}
	c := TreeEntry{Mode: ModeFile, Name: "c", Hash: mockHash("c")}
	upper := TreeEntry{Mode: ModeFile, Name: "Z", Hash: mockHash("Z")}

	permutations := [][]TreeEntry{
		{a, b, c, upper},
		{c, b, a, upper},
		{upper, c, a, b},
		{b, upper, c, a},
	}

	var first []byte
	for i, p := range permutations {
		payload, err := EncodeTree(p)
		require.NoError(t, err)
		if i == 0 {
			first = payload
			continue
		}
		assert.Equal(t, first, payload, "第 %d 种排列的编码必须一致", i)
	}

	decoded, err := DecodeTree(first)
	require.NoError(t, err)
	names := make([]string, 0, len(decoded))
	for _, e := range decoded {
		names = append(names, e.Name)
	}
	// 按字节比较：大写排在小写之前
	assert.Equal(t, []string{"Z", "a.txt", "b", "c"}, names)
}

func TestTree_PlainStringOrder(t *testing.T) {
	// 目录 "foo" vs 文件 "foo.txt"：纯字节比较时 "foo" 在前，
	// git 的 "目录名 + /" 规则则会让 "foo.txt" 在前。
	dir := TreeEntry{Mode: ModeDir, Name: "foo", Hash: EmptyTreeHash}
	file := TreeEntry{Mode: ModeFile, Name: "foo.txt", Hash: mockHash("x")}

	tree := mustNewTree(t, []TreeEntry{file, dir})
	entries := tree.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "foo", entries[0].Name)
	assert.Equal(t, "foo.txt", entries[1].Name)
}

func TestTree_RecursiveCompositionVector(t *testing.T) {
	blob := NewBlob([]byte("hi\n"))
	tree := mustNewTree(t, []TreeEntry{
		{Mode: ModeDir, Name: "b", Hash: EmptyTreeHash},
		{Mode: ModeFile, Name: "a.txt", Hash: blob.ID()},
	})

	assert.Equal(t, types.Hash("139b0a002048c313ecc53fd3af0b6bbfe5a9f342"), tree.ID())
	assert.Equal(t, []TreeEntry{
		{Mode: ModeFile, Name: "a.txt", Hash: blob.ID()},
		{Mode: ModeDir, Name: "b", Hash: EmptyTreeHash},
	}, tree.Entries())
}

func TestEncodeTree_DoesNotMutateInput(t *testing.T) {
	in := []TreeEntry{
		{Mode: ModeFile, Name: "z", Hash: mockHash("z")},
		{Mode: ModeFile, Name: "a", Hash: mockHash("a")},
	}
	_, err := EncodeTree(in)
	require.NoError(t, err)
	assert.Equal(t, "z", in[0].Name)
}

func TestEncodeTree_Rejects(t *testing.T) {
	valid := mockHash("v")
	tests := []struct {
		name    string
		entries []TreeEntry
		wantErr error
	}{
		{"Duplicate name", []TreeEntry{
			{Mode: ModeFile, Name: "x", Hash: valid},
			{Mode: ModeDir, Name: "x", Hash: EmptyTreeHash},
		}, ErrDuplicateEntryName},
		{"Empty name", []TreeEntry{{Mode: ModeFile, Name: "", Hash: valid}}, ErrInvalidEntry},
		{"Separator in name", []TreeEntry{{Mode: ModeFile, Name: "a/b", Hash: valid}}, ErrInvalidEntry},
		{"NUL in name", []TreeEntry{{Mode: ModeFile, Name: "a\x00b", Hash: valid}}, ErrInvalidEntry},
		{"Unknown mode", []TreeEntry{{Mode: "120000", Name: "link", Hash: valid}}, ErrInvalidEntry},
		{"Bad hash", []TreeEntry{{Mode: ModeFile, Name: "f", Hash: "abc"}}, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeTree(tt.entries)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeTree_Malformed(t *testing.T) {
	good, err := EncodeTree([]TreeEntry{{Mode: ModeFile, Name: "file", Hash: mockHash("f")}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"Truncated digest", good[:len(good)-1]},
		{"Mode without space", []byte("100644")},
		{"Name without NUL", []byte("100644 file")},
		{"Empty mode", []byte(" file\x00")},
		{"Trailing garbage", append(append([]byte{}, good...), []byte("4000")...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTree(tt.payload)
			assert.ErrorIs(t, err, ErrMalformedTree)
		})
	}
}

func TestDecodeTree_KeepsUnknownModes(t *testing.T) {
	raw, err := mockHash("link").Raw()
	require.NoError(t, err)
	payload := append([]byte("120000 link\x00"), raw[:]...)

	entries, err := DecodeTree(payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, EntryMode("120000"), entries[0].Mode)
	assert.False(t, entries[0].Mode.IsKnown())
}

// -----------------------------------------------------------------------------
// 3. 错误分类
// -----------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("read %s: %w", "abc", ErrObjectNotFound)
	assert.Equal(t, "ObjectNotFound", Classify(wrapped))
	assert.Equal(t, "CorruptObject", Classify(fmt.Errorf("%w: zlib: %w", ErrCorruptObject, errors.New("bad header"))))
	assert.Equal(t, "Io", Classify(fmt.Errorf("%w: disk full", ErrIO)))
	assert.Equal(t, "", Classify(errors.New("something else")))
	assert.Equal(t, "", Classify(nil))

	// 每个哨兵错误都有唯一名称
	seen := map[string]bool{}
	for _, tx := range taxonomy {
		name := Classify(tx.err)
		assert.False(t, seen[name], "分类名重复: %s", name)
		seen[name] = true
	}
}
