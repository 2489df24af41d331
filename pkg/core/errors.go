package core

import "errors"

// 各层共用的错误分类。调用方用 errors.Is 匹配；
// 包装后的错误在哨兵之后保留原始原因。
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrCorruptObject      = errors.New("corrupt object")
	ErrMalformedTree      = errors.New("malformed tree")
	ErrWrongKind          = errors.New("wrong object kind")
	ErrInvalidKind        = errors.New("invalid object kind")
	ErrDuplicateEntryName = errors.New("duplicate tree entry name")
	ErrInvalidEntry       = errors.New("invalid tree entry")
	ErrIO                 = errors.New("storage i/o failure")
)

var taxonomy = []struct {
	err  error
	kind string
}{
	{ErrObjectNotFound, "ObjectNotFound"},
	{ErrCorruptObject, "CorruptObject"},
	{ErrMalformedTree, "MalformedTree"},
	{ErrWrongKind, "WrongKind"},
	{ErrInvalidKind, "InvalidKind"},
	{ErrDuplicateEntryName, "DuplicateEntryName"},
	{ErrInvalidEntry, "InvalidEntry"},
	{ErrIO, "Io"},
}

// Classify 返回 err 的稳定分类名；不属于该分类时返回 ""。
// 按声明顺序，第一个匹配的生效。
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, t := range taxonomy {
		if errors.Is(err, t.err) {
			return t.kind
		}
	}
	return ""
}
