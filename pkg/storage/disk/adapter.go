package disk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/codec"
	"gitvault/pkg/types"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Adapter 实现了 storage.Store 接口，在本地文件系统上使用 git 的
// 松散对象布局：<root>/objects/ab/cdef...
type Adapter struct {
	rootPath string // 仓库目录，比如: ./.git
	codec    *codec.Codec
	frames   *lru.Cache[types.Hash, []byte] // 关闭时为 nil
	log      *zap.Logger
}

type Option func(*Adapter) error

// WithCodec 设置压缩 codec
func WithCodec(c *codec.Codec) Option {
	return func(a *Adapter) error {
		a.codec = c
		return nil
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) error {
		if log != nil {
			a.log = log
		}
		return nil
	}
}

// WithCacheSize 启用解压后帧的 read-through LRU 缓存。
// size 为 0 时关闭缓存。
func WithCacheSize(size int) Option {
	return func(a *Adapter) error {
		if size <= 0 {
			a.frames = nil
			return nil
		}
		c, err := lru.New[types.Hash, []byte](size)
		if err != nil {
			return err
		}
		a.frames = c
		return nil
	}
}

// NewAdapter 创建一个以仓库目录为根的磁盘存储适配器
func NewAdapter(root string, opts ...Option) (*Adapter, error) {
	a := &Adapter{rootPath: root, codec: codec.New(codec.DefaultLevel), log: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(a.objectsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create object dir: %w", core.ErrIO, err)
	}
	return a, nil
}

// Root 返回仓库目录
func (s *Adapter) Root() string { return s.rootPath }

func (s *Adapter) objectsDir() string {
	return filepath.Join(s.rootPath, "objects")
}

// layout 返回哈希对应的物理路径
// 策略：使用前 2 个字符作为子目录 (Sharding)
func (s *Adapter) layout(hash types.Hash) string {
	return filepath.Join(s.rootPath, filepath.FromSlash(storage.ObjectPath(hash)))
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	hash := obj.ID()
	targetPath := s.layout(hash)

	// 1. 检查是否存在 (幂等性)
	if _, err := os.Stat(targetPath); err == nil {
		return nil
	}

	data, err := s.codec.Compress(obj.Bytes())
	if err != nil {
		return fmt.Errorf("%w: compress %s: %w", core.ErrIO, hash, err)
	}

	// 2. 准备目录
	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	// 3. 原子写入 (Atomic Write)：先写同目录下的临时文件，然后 Rename。
	// 这样保证要么文件不存在，要么文件是完整的。
	tempFile, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	defer os.Remove(tempFile.Name()) // Rename 成功后这个删除无害

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("%w: write %s: %w", core.ErrIO, hash, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	// 和 git 一样，松散对象只读。尽力而为：
	// 不支持权限位的文件系统上对象依然完整。
	if err := os.Chmod(tempFile.Name(), 0o444); err != nil {
		s.log.Debug("chmod loose object failed", zap.String("hash", hash.Short()), zap.Error(err))
	}

	// 4. 移动到最终位置；并发写同一摘要的一方写入的字节完全相同
	if err := os.Rename(tempFile.Name(), targetPath); err != nil {
		if _, statErr := os.Stat(targetPath); statErr == nil {
			return nil
		}
		return fmt.Errorf("%w: rename %s: %w", core.ErrIO, hash, err)
	}

	return nil
}

func (s *Adapter) Get(ctx context.Context, hash types.Hash) ([]byte, error) {
	if s.frames != nil {
		// 返回的切片归调用方所有；缓存里的副本从不外泄
		if frame, ok := s.frames.Get(hash); ok {
			return bytes.Clone(frame), nil
		}
	}

	raw, err := os.ReadFile(s.layout(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrObjectNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrIO, hash, err)
	}

	frame, err := s.codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}

	if s.frames != nil {
		s.frames.Add(hash, bytes.Clone(frame))
	}
	return frame, nil
}

func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	_, err := os.Stat(s.layout(hash))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %w", core.ErrIO, err)
}

// ExpandHash 列出前缀所在的子目录并匹配文件名
func (s *Adapter) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	if err := storage.CheckPrefix(prefix); err != nil {
		return "", err
	}

	p := string(prefix)
	if prefix.IsFull() {
		ok, err := s.Has(ctx, types.Hash(p))
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", core.ErrObjectNotFound, p)
		}
		return types.Hash(p), nil
	}

	entries, err := os.ReadDir(filepath.Join(s.objectsDir(), p[:2]))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", core.ErrObjectNotFound, p)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	var match types.Hash
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), p[2:]) {
			continue
		}
		h := types.Hash(p[:2] + e.Name())
		if !h.IsValid() {
			continue // 临时文件
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", storage.ErrAmbiguousHash, p)
		}
		match = h
	}

	if match == "" {
		return "", fmt.Errorf("%w: %s", core.ErrObjectNotFound, p)
	}
	return match, nil
}

func (s *Adapter) Walk(ctx context.Context, fn storage.WalkFunc) error {
	buckets, err := os.ReadDir(s.objectsDir())
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	for _, b := range buckets {
		if !b.IsDir() || len(b.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.objectsDir(), b.Name()))
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrIO, err)
		}
		for _, f := range files {
			h := types.Hash(b.Name() + f.Name())
			if f.IsDir() || !h.IsValid() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(h); err != nil {
				return err
			}
		}
	}
	return nil
}
