package core

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gitvault/pkg/types"
)

// EntryMode 是 Tree 条目的模式标签，保留写入 Tree 负载时
// 的原始 ASCII 文本。
type EntryMode string

const (
	ModeFile EntryMode = "100644" // 普通文件 -> blob
	ModeDir  EntryMode = "40000"  // 目录 -> tree
)

// IsKnown 判断 m 是否为本存储会写入的两种模式之一
func (m EntryMode) IsKnown() bool {
	return m == ModeFile || m == ModeDir
}

// ObjectType 返回该模式的条目所指向的对象类型
func (m EntryMode) ObjectType() ObjectType {
	if m == ModeDir {
		return TypeTree
	}
	return TypeBlob
}

type TreeEntry struct {
	Mode EntryMode
	Name string
	Hash types.Hash
}

func (e TreeEntry) IsDir() bool { return e.Mode == ModeDir }

// CompareEntryNames 定义规范顺序：按名字逐字节比较。
// treebuilder 遍历时也用同一个函数排序。
func CompareEntryNames(a, b string) int {
	return strings.Compare(a, b)
}

func (e TreeEntry) validate() error {
	if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidEntry, e.Name)
	}
	if !e.Mode.IsKnown() {
		return fmt.Errorf("%w: unsupported mode %q for %q", ErrInvalidEntry, e.Mode, e.Name)
	}
	if !e.Hash.IsValid() {
		return fmt.Errorf("%w: bad hash %q for %q", ErrInvalidEntry, e.Hash, e.Name)
	}
	return nil
}

// EncodeTree 按规范顺序把条目序列化为 Tree 负载。
// 不会修改传入的切片。
func EncodeTree(entries []TreeEntry) ([]byte, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b TreeEntry) int {
		return CompareEntryNames(a.Name, b.Name)
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryName, e.Name)
		}

		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}

		buf.WriteString(string(e.Mode))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw[:])
	}

	return buf.Bytes(), nil
}

// DecodeTree 解析 Tree 负载。模式按存储原样返回，
// 包括本包编码时会拒绝的模式。
func DecodeTree(payload []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	rest := payload

	for len(rest) > 0 {
		// 1. 模式，直到空格
		mode, after, ok := bytes.Cut(rest, []byte{' '})
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: mode without terminating space", ErrMalformedTree, len(entries))
		}
		if len(mode) == 0 {
			return nil, fmt.Errorf("%w: entry %d: empty mode", ErrMalformedTree, len(entries))
		}

		// 2. 名字，直到 NUL
		name, after, ok := bytes.Cut(after, []byte{0})
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: name without terminating NUL", ErrMalformedTree, len(entries))
		}

		// 3. 恰好 20 个原始摘要字节
		if len(after) < types.RawSize {
			return nil, fmt.Errorf("%w: entry %d (%q): %d of %d digest bytes", ErrMalformedTree, len(entries), name, len(after), types.RawSize)
		}
		h, err := types.HashFromRaw(after[:types.RawSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
		}

		entries = append(entries, TreeEntry{
			Mode: EntryMode(mode),
			Name: string(name),
			Hash: h,
		})
		rest = after[types.RawSize:]
	}

	return entries, nil
}

// Tree 是已封装的目录对象
type Tree struct {
	hash     types.Hash
	rawBytes []byte
	entries  []TreeEntry
}

// NewTree 按规范编码条目并封装结果
func NewTree(entries []TreeEntry) (*Tree, error) {
	payload, err := EncodeTree(entries)
	if err != nil {
		return nil, err
	}
	h, frame, err := HashObject(TypeTree, payload)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b TreeEntry) int {
		return CompareEntryNames(a.Name, b.Name)
	})

	return &Tree{hash: h, rawBytes: frame, entries: sorted}, nil
}

func (t *Tree) Type() ObjectType { return TypeTree }
func (t *Tree) ID() types.Hash   { return t.hash }
func (t *Tree) Bytes() []byte    { return t.rawBytes }

// Entries 按规范顺序返回条目
func (t *Tree) Entries() []TreeEntry { return slices.Clone(t.entries) }
