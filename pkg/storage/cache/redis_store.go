package cache

import (
	"context"
	"fmt"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStore 用 Redis 存在性缓存装饰 storage.Store (装饰器模式)。
// 只缓存“该摘要存在”的标记，从不缓存对象内容。
type CachedStore struct {
	backend storage.Store
	client  *redis.Client
	ttl     time.Duration
	log     *zap.Logger
}

type Config struct {
	RedisURL string        // redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 标记过期时间
	Logger   *zap.Logger
}

func NewCachedStore(backend storage.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// 快速失败
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     cfg.TTL,
		log:     log,
	}, nil
}

// Close 释放 Redis 连接池
func (s *CachedStore) Close() error {
	return s.client.Close()
}

func (s *CachedStore) cacheKey(hash types.Hash) string {
	return "gv:obj:" + string(hash)
}

// Has 先查 Redis。对象不可变且从不删除，所以标记
// 不会过时，只会过期。
func (s *CachedStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	key := s.cacheKey(hash)

	// 1. 查 Redis
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// Redis 挂了就降级到后端
		s.log.Warn("redis exists failed, falling back to backend", zap.String("hash", hash.Short()), zap.Error(err))
	} else if val > 0 {
		return true, nil
	}

	// 2. 未命中：查后端
	found, err := s.backend.Has(ctx, hash)
	if err != nil {
		return false, err
	}

	// 3. 异步回填，不依赖调用方的 ctx
	if found {
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.client.Set(fillCtx, key, "1", s.ttl).Err(); err != nil {
				s.log.Debug("redis fill failed", zap.String("hash", hash.Short()), zap.Error(err))
			}
		}()
	}

	return found, nil
}

// Put 在标记表明对象已存在时跳过后端
func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	// 后端写入成功后才写标记
	if err := s.client.Set(ctx, s.cacheKey(obj.ID()), "1", s.ttl).Err(); err != nil {
		s.log.Warn("redis set failed", zap.String("hash", obj.ID().Short()), zap.Error(err))
	}
	return nil
}

func (s *CachedStore) Get(ctx context.Context, hash types.Hash) ([]byte, error) {
	return s.backend.Get(ctx, hash)
}

func (s *CachedStore) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	return s.backend.ExpandHash(ctx, prefix)
}

func (s *CachedStore) Walk(ctx context.Context, fn storage.WalkFunc) error {
	return s.backend.Walk(ctx, fn)
}
