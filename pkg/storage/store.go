package storage

import (
	"context"
	"errors"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
)

var (
	ErrAmbiguousHash  = errors.New("ambiguous hash prefix")
	ErrPrefixTooShort = errors.New("hash prefix too short")
)

// WalkFunc 对每个已存储的摘要调用一次。返回错误会终止遍历。
type WalkFunc func(hash types.Hash) error

// Store 定义了存储后端的接口
// Key 是摘要，Value 是完整的对象帧。实现负责写入时压缩、
// 读取时解压；调用方只会看到帧。
type Store interface {
	// Put 以 obj.ID() 为 Key 持久化对象。
	// 写入已存在的对象什么也不做 (幂等)。
	Put(ctx context.Context, obj core.Object) error

	// Get 返回解压后的帧。
	// 对象不存在返回 core.ErrObjectNotFound，无法解码返回 core.ErrCorruptObject。
	Get(ctx context.Context, hash types.Hash) ([]byte, error)

	// Has 检查对象是否存在 (用于去重)
	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash 把缩写摘要解析为唯一的完整摘要
	ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error)

	// Walk 枚举所有已存储的摘要，顺序不定
	Walk(ctx context.Context, fn WalkFunc) error
}

// ObjectPath 返回摘要的相对 Key："objects/ab/cdef..."。
// disk 和 s3 后端都用它，仓库可以在两者之间直接拷贝。
func ObjectPath(hash types.Hash) string {
	s := string(hash)
	if len(s) < 2 {
		return "objects/" + s
	}
	return "objects/" + s[:2] + "/" + s[2:]
}

// CheckPrefix 在查找前校验缩写摘要
func CheckPrefix(prefix types.HashPrefix) error {
	if len(prefix) < types.MinPrefixSize {
		return ErrPrefixTooShort
	}
	if !prefix.IsValid() {
		return types.ErrInvalidHash
	}
	return nil
}
