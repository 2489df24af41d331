package core

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"gitvault/pkg/types"
)

// EmptyTreeHash 是 "tree 0\x00" 的摘要，即没有条目的空树
const EmptyTreeHash types.Hash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Frame 构造 "<kind> <len>\0<payload>"
func Frame(kind ObjectType, payload []byte) ([]byte, error) {
	if !kind.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, string(kind))
	}

	header := string(kind) + " " + strconv.Itoa(len(payload))
	buf := make([]byte, 0, len(header)+1+len(payload))
	buf = append(buf, header...)
	buf = append(buf, 0)
	buf = append(buf, payload...)
	return buf, nil
}

// ParseFrame 把帧拆成类型和负载。头部必须是
// "<已知类型> <十进制长度>"，且长度必须与负载完全一致。
func ParseFrame(data []byte) (ObjectType, []byte, error) {
	nul := bytes.IndexByte(data, 0)
	if nul == -1 {
		return "", nil, fmt.Errorf("%w: missing header terminator", ErrCorruptObject)
	}

	kindBytes, sizeBytes, ok := bytes.Cut(data[:nul], []byte{' '})
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed header %q", ErrCorruptObject, data[:nul])
	}

	kind := ObjectType(kindBytes)
	if !kind.IsKnown() {
		return "", nil, fmt.Errorf("%w: unknown kind %q", ErrCorruptObject, kindBytes)
	}

	// 只接受规范的十进制写法：不带符号，没有前导零
	size, err := strconv.Atoi(string(sizeBytes))
	if err != nil || size < 0 || strconv.Itoa(size) != string(sizeBytes) {
		return "", nil, fmt.Errorf("%w: bad length %q", ErrCorruptObject, sizeBytes)
	}

	payload := data[nul+1:]
	if len(payload) != size {
		return "", nil, fmt.Errorf("%w: header says %d bytes, payload has %d", ErrCorruptObject, size, len(payload))
	}

	return kind, payload, nil
}

// CalculateHash 计算完整帧的 SHA-1 摘要
func CalculateHash(frame []byte) types.Hash {
	sum := sha1.Sum(frame)
	return types.Hash(hex.EncodeToString(sum[:]))
}

// HashObject 按 kind 封帧，同时返回摘要和帧
func HashObject(kind ObjectType, payload []byte) (types.Hash, []byte, error) {
	frame, err := Frame(kind, payload)
	if err != nil {
		return "", nil, err
	}
	return CalculateHash(frame), frame, nil
}
