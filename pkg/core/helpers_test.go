package core

import (
	"testing"

	"gitvault/pkg/types"

	"github.com/stretchr/testify/require"
)

// mockHash 返回 input 的 blob 摘要，一个合法的 40 位 Hex 字符串
func mockHash(input string) types.Hash {
	return NewBlob([]byte(input)).ID()
}

// mustNewTree 构造 Tree，失败时直接终止测试
func mustNewTree(t *testing.T, entries []TreeEntry, msgAndArgs ...any) *Tree {
	t.Helper()
	tree, err := NewTree(entries)
	require.NoError(t, err, msgAndArgs...)
	return tree
}
