package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
)

// RestoreCallback 在 RestoreTree 每写出一个文件时被调用
type RestoreCallback func(path string, hash types.Hash, size int64)

// RestoreTree 把 tree 还原到 targetDir，按需创建目录，
// 覆盖已有文件。未知模式的条目被跳过。
func (r *Reader) RestoreTree(ctx context.Context, treeHash types.Hash, targetDir string, onRestore RestoreCallback) error {
	entries, err := r.ReadTree(ctx, treeHash)
	if err != nil {
		return err
	}

	// 写入前先检查这一层的所有条目
	for _, entry := range entries {
		if err := checkEntryName(entry.Name); err != nil {
			return fmt.Errorf("tree %s: %w", treeHash.Short(), err)
		}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		fullPath := filepath.Join(targetDir, entry.Name)

		switch entry.Mode {
		case core.ModeDir:
			if err := r.RestoreTree(ctx, entry.Hash, fullPath, onRestore); err != nil {
				return err
			}
		case core.ModeFile:
			content, err := r.ReadBlob(ctx, entry.Hash)
			if err != nil {
				return err
			}
			if err := os.WriteFile(fullPath, content, 0o644); err != nil {
				return fmt.Errorf("%w: %w", core.ErrIO, err)
			}
			if onRestore != nil {
				onRestore(fullPath, entry.Hash, int64(len(content)))
			}
		}
	}

	return nil
}

// checkEntryName 拒绝会解析到还原目录之外的名字。
// 从外来存储读到的 tree 在解码时不做校验。
func checkEntryName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\x00") || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: unsafe entry name %q", core.ErrMalformedTree, name)
	}
	return nil
}
