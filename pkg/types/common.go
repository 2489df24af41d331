// pkg/types/common.go
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// RawSize 是 SHA-1 摘要的字节长度
	RawSize = 20
	// HexSize 是可打印摘要的长度
	HexSize = RawSize * 2
	// MinPrefixSize 是 ExpandHash 接受的最短缩写长度
	MinPrefixSize = 4
)

var ErrInvalidHash = errors.New("invalid object hash")

// Hash 代表对象的唯一标识符 (40 位小写 SHA-1 Hex String)
// 这是一个“值对象”，一旦赋值就不可变。
type Hash string

func (h Hash) String() string { return string(h) }

func (h Hash) IsZero() bool { return h == "" }

// IsValid 验证 Hash 合法性：恰好 40 个小写十六进制字符
func (h Hash) IsValid() bool {
	if len(h) != HexSize {
		return false
	}
	return isLowerHex(string(h))
}

// Short 返回前 8 位，用于显示
func (h Hash) Short() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}

// Raw 把摘要解码为 20 个原始字节 (Tree 内部存储的形式)
func (h Hash) Raw() ([RawSize]byte, error) {
	var raw [RawSize]byte
	if !h.IsValid() {
		return raw, fmt.Errorf("%w: %q", ErrInvalidHash, string(h))
	}
	if _, err := hex.Decode(raw[:], []byte(h)); err != nil {
		return raw, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return raw, nil
}

// HashFromRaw 把 20 个原始字节编码为 Hash
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != RawSize {
		return "", fmt.Errorf("%w: expected %d raw bytes, got %d", ErrInvalidHash, RawSize, len(raw))
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// ParseHash 规范化用户输入 (大小写、首尾空白) 并校验
func ParseHash(s string) (Hash, error) {
	h := Hash(strings.ToLower(strings.TrimSpace(s)))
	if !h.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return h, nil
}

// HashPrefix 是用户输入的缩写 Hash，例如 "ce0136"
type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

// IsValid 判断前缀能否用于查找
func (p HashPrefix) IsValid() bool {
	if len(p) < MinPrefixSize || len(p) > HexSize {
		return false
	}
	return isLowerHex(string(p))
}

// IsFull 判断前缀是否已经是完整 Hash
func (p HashPrefix) IsFull() bool { return Hash(p).IsValid() }

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
