package ingester

import (
	"context"
	"fmt"
	"io"
	"os"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
)

// Ingester 负责把文件内容转换为已存储的 blob 对象
type Ingester struct {
	store storage.Store
}

func NewIngester(store storage.Store) *Ingester {
	return &Ingester{store: store}
}

// IngestFile 读完整个流，封装为 blob 并写入存储。
// 封帧需要提前知道确切长度，所以内容会整体放在内存里。
func (ing *Ingester) IngestFile(ctx context.Context, reader io.Reader) (*core.Blob, error) {
	blob, err := HashOnly(reader)
	if err != nil {
		return nil, err
	}

	if err := ing.store.Put(ctx, blob); err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}
	return blob, nil
}

// IngestPath 打开普通文件并写入
func (ing *Ingester) IngestPath(ctx context.Context, path string) (*core.Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	defer f.Close()

	return ing.IngestFile(ctx, f)
}

// HashOnly 只计算摘要，不写入存储
func HashOnly(reader io.Reader) (*core.Blob, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %w", core.ErrIO, err)
	}
	return core.NewBlob(data), nil
}
