// Package codec 按 git 存储松散对象的方式压缩对象帧：
// 纯 zlib 流，没有额外头部。
package codec

import (
	"bytes"
	"fmt"
	"io"

	"gitvault/pkg/core"

	"github.com/klauspost/compress/zlib"
)

// DefaultLevel 与 git 的 core.compression 默认值一致
const DefaultLevel = zlib.DefaultCompression

// Codec 负责压缩与解压帧。零值使用 DefaultLevel。
type Codec struct {
	level int
}

// New 按给定的 zlib 级别创建 codec (1..9，-1 表示默认)。
// 级别 0 或越界时回退到 DefaultLevel。
func New(level int) *Codec {
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		level = DefaultLevel
	}
	return &Codec{level: level}
}

func (c *Codec) Compress(frame []byte) ([]byte, error) {
	level := DefaultLevel
	if c != nil && c.level != 0 {
		level = c.level
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(frame); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress 解压存储的对象。任何失败 (包括流被截断)
// 都报告为 core.ErrCorruptObject。
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %w", core.ErrCorruptObject, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %w", core.ErrCorruptObject, err)
	}
	return out, nil
}

// Compress 使用默认级别
func Compress(frame []byte) ([]byte, error) { return (*Codec)(nil).Compress(frame) }

// Decompress 是 Codec.Decompress 的包级版本
func Decompress(data []byte) ([]byte, error) { return (*Codec)(nil).Decompress(data) }
