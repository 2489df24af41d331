// Package catalog 装饰 storage.Store，让每个写入的对象
// 同时登记到 meta 目录中。
package catalog

import (
	"context"
	"fmt"

	"gitvault/pkg/core"
	"gitvault/pkg/meta"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"go.uber.org/zap"
)

type Store struct {
	storage.Store
	repo *meta.Repository
	log  *zap.Logger
}

func New(backend storage.Store, repo *meta.Repository, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Store: backend, repo: repo, log: log}
}

// Put 先写穿到后端，再登记对象。
// 登记失败只记日志不返回：对象本身已经安全落盘。
func (s *Store) Put(ctx context.Context, obj core.Object) error {
	if err := s.Store.Put(ctx, obj); err != nil {
		return err
	}
	if err := s.record(ctx, obj.ID(), obj.Bytes()); err != nil {
		s.log.Warn("catalog record failed", zap.String("hash", obj.ID().Short()), zap.Error(err))
	}
	return nil
}

func (s *Store) record(ctx context.Context, hash types.Hash, frame []byte) error {
	kind, payload, err := core.ParseFrame(frame)
	if err != nil {
		return err
	}
	return s.repo.RecordObject(ctx, hash, kind, int64(len(payload)))
}

// Backfill 遍历后端，补登目录中缺失的对象
// (例如目录关闭期间写入的对象)。返回遍历到的
// 对象数量。
func (s *Store) Backfill(ctx context.Context) (int, error) {
	n := 0
	err := s.Store.Walk(ctx, func(h types.Hash) error {
		n++
		if _, err := s.repo.GetObject(ctx, h); err == nil {
			return nil
		}
		frame, err := s.Store.Get(ctx, h)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", h, err)
		}
		return s.record(ctx, h, frame)
	})
	return n, err
}
