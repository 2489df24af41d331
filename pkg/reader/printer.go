package reader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
)

// PrintObject 像 `git cat-file -p` 一样格式化输出对象：
// blob 原样输出，tree 每行一个条目。
func (r *Reader) PrintObject(ctx context.Context, hash types.Hash, w io.Writer) error {
	kind, payload, err := r.ReadObject(ctx, hash)
	if err != nil {
		return err
	}

	switch kind {
	case core.TypeBlob, core.TypeCommit:
		// commit 也是文本，原样输出
		_, err := w.Write(payload)
		return err
	case core.TypeTree:
		entries, err := core.DecodeTree(payload)
		if err != nil {
			return fmt.Errorf("tree %s: %w", hash, err)
		}
		return PrintTree(entries, w)
	default:
		return fmt.Errorf("%w: %s", core.ErrInvalidKind, kind)
	}
}

// PrintTree 每个条目输出 "<mode> <type> <hash>\t<name>"。
// 模式和 git 一样补零到 6 位。
func PrintTree(entries []core.TreeEntry, w io.Writer) error {
	for _, e := range entries {
		mode := string(e.Mode)
		if len(mode) < 6 {
			mode = strings.Repeat("0", 6-len(mode)) + mode
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\t%s\n", mode, e.Mode.ObjectType(), e.Hash, e.Name); err != nil {
			return err
		}
	}
	return nil
}

// PrintNames 每行输出一个条目名 (ls-tree --name-only)
func PrintNames(names []string, w io.Writer) error {
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}
