// Package reader 读取已存储的对象并按类型解码。
package reader

import (
	"context"
	"fmt"
	"io"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
)

type Reader struct {
	store storage.Store
}

func NewReader(store storage.Store) *Reader {
	return &Reader{store: store}
}

// ReadObject 读取帧并拆分为类型和负载
func (r *Reader) ReadObject(ctx context.Context, hash types.Hash) (core.ObjectType, []byte, error) {
	frame, err := r.store.Get(ctx, hash)
	if err != nil {
		return "", nil, err
	}

	kind, payload, err := core.ParseFrame(frame)
	if err != nil {
		return "", nil, fmt.Errorf("object %s: %w", hash, err)
	}
	return kind, payload, nil
}

// ReadBlob 返回 blob 的内容
func (r *Reader) ReadBlob(ctx context.Context, hash types.Hash) ([]byte, error) {
	kind, payload, err := r.ReadObject(ctx, hash)
	if err != nil {
		return nil, err
	}
	if kind != core.TypeBlob {
		return nil, fmt.Errorf("%w: %s is a %s, not a blob", core.ErrWrongKind, hash, kind)
	}
	return payload, nil
}

// ReadTree 按存储顺序返回 tree 的条目
func (r *Reader) ReadTree(ctx context.Context, hash types.Hash) ([]core.TreeEntry, error) {
	kind, payload, err := r.ReadObject(ctx, hash)
	if err != nil {
		return nil, err
	}
	if kind != core.TypeTree {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", core.ErrWrongKind, hash, kind)
	}

	entries, err := core.DecodeTree(payload)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", hash, err)
	}
	return entries, nil
}

// ListTreeNames 返回文件和目录条目的名字。
// 其他模式的条目 (外来 tree 中的符号链接、子模块) 会被跳过。
func (r *Reader) ListTreeNames(ctx context.Context, hash types.Hash) ([]string, error) {
	entries, err := r.ReadTree(ctx, hash)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Mode.IsKnown() {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// ExportBlob 把 blob 内容写入 w
func (r *Reader) ExportBlob(ctx context.Context, hash types.Hash, w io.Writer) error {
	content, err := r.ReadBlob(ctx, hash)
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", hash, err)
	}
	return nil
}

// Stat 返回对象的类型和负载大小 (cat-file -t / -s)
func (r *Reader) Stat(ctx context.Context, hash types.Hash) (core.ObjectType, int64, error) {
	kind, payload, err := r.ReadObject(ctx, hash)
	if err != nil {
		return "", 0, err
	}
	return kind, int64(len(payload)), nil
}
