package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gitvault/pkg/config"
	"gitvault/pkg/core"
	"gitvault/pkg/ignore"
	"gitvault/pkg/ingester"
	"gitvault/pkg/logger"
	"gitvault/pkg/meta"
	"gitvault/pkg/reader"
	"gitvault/pkg/refs"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/cache"
	"gitvault/pkg/storage/catalog"
	"gitvault/pkg/storage/codec"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/storage/s3"
	"gitvault/pkg/treebuilder"
	"gitvault/pkg/types"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	ErrNotRepository = errors.New("not a gitvault repository")
	// ErrNotText：ReadBlobAsText 遇到非法 UTF-8 内容时返回
	ErrNotText = errors.New("blob is not valid UTF-8 text")
)

// SnapshotSettings 控制 SnapshotDirectory 的行为
type SnapshotSettings struct {
	ReservedName  string // 遍历时跳过的仓库目录名
	RespectIgnore bool   // 同时遵循快照根目录下的 .gvignore
	Concurrency   int
}

// App 是依赖容器 (Dependency Container)。它持有所有服务的单例，
// 并对外暴露命令层需要的操作。
type App struct {
	Store    storage.Store
	Reader   *reader.Reader
	Ingester *ingester.Ingester
	Refs     *refs.Manager
	Catalog  *meta.Repository // meta.driver 为 "none" 时为 nil
	Log      *zap.Logger

	RepoPath string
	Snapshot SnapshotSettings

	closers []func() error
}

// NewApp 根据 viper 配置组装容器。它不关心
// 具体的 CLI 命令。
func NewApp(ctx context.Context) (*App, error) {
	// 1. 日志
	log, err := logger.New(logger.Config{
		Level:  viper.GetString(config.KeyLogLevel),
		Format: viper.GetString(config.KeyLogFormat),
	})
	if err != nil {
		return nil, err
	}

	// 2. 仓库根目录 (唯一的事实来源)
	repoPath := viper.GetString(config.KeyRepoPath)
	if repoPath == "" {
		return nil, fmt.Errorf("%s not set", config.KeyRepoPath)
	}
	refMgr := refs.NewManager(repoPath)
	if !refMgr.IsInitialized() {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, repoPath)
	}

	// 3. 存储链：后端 -> Redis 存在性缓存 -> 元数据目录
	store, err := initStore(ctx, repoPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	a := &App{
		RepoPath: repoPath,
		Refs:     refMgr,
		Log:      log,
		Snapshot: SnapshotSettings{
			ReservedName:  viper.GetString(config.KeyRepoDir),
			RespectIgnore: viper.GetBool(config.KeyRespectIgnore),
			Concurrency:   viper.GetInt(config.KeySnapshotConcurrent),
		},
	}

	if url := viper.GetString(config.KeyRedisURL); url != "" {
		cached, err := cache.NewCachedStore(store, cache.Config{
			RedisURL: url,
			TTL:      viper.GetDuration(config.KeyRedisTTL),
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cached.Close)
		store = cached
	}

	if driver := viper.GetString(config.KeyMetaDriver); driver != "" && driver != meta.DriverNone {
		db, err := meta.NewDB(ctx, meta.Config{
			Driver: driver,
			DSN:    viper.GetString(config.KeyMetaDSN),
			Debug:  log.Core().Enabled(zap.DebugLevel),
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.Catalog = meta.NewRepository(db)
		store = catalog.New(store, a.Catalog, log)
	}

	a.wire(store)
	return a, nil
}

// NewWithStore 基于已有的存储构造容器，不依赖 viper
func NewWithStore(repoPath string, store storage.Store, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		RepoPath: repoPath,
		Refs:     refs.NewManager(repoPath),
		Log:      log,
		Snapshot: SnapshotSettings{ReservedName: treebuilder.DefaultReservedName, Concurrency: 1},
	}
	a.wire(store)
	return a
}

func (a *App) wire(store storage.Store) {
	a.Store = store
	a.Reader = reader.NewReader(store)
	a.Ingester = ingester.NewIngester(store)
}

// initStore 根据 storage.type 选择后端
func initStore(ctx context.Context, repoPath string, log *zap.Logger) (storage.Store, error) {
	c := codec.New(viper.GetInt(config.KeyCompressionLevel))

	switch t := viper.GetString(config.KeyStorageType); t {
	case "", "disk":
		return disk.NewAdapter(repoPath,
			disk.WithCodec(c),
			disk.WithCacheSize(viper.GetInt(config.KeyCacheSize)),
			disk.WithLogger(log),
		)
	case "s3":
		bucket := viper.GetString(config.KeyS3Bucket)
		if bucket == "" {
			return nil, fmt.Errorf("s3 bucket is required (%s)", config.KeyS3Bucket)
		}
		return s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString(config.KeyS3Endpoint),
			Region:          viper.GetString(config.KeyS3Region),
			Bucket:          bucket,
			AccessKeyID:     viper.GetString(config.KeyS3AccessKeyID),
			SecretAccessKey: viper.GetString(config.KeyS3SecretAccessKey),
			Codec:           c,
			Logger:          log,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type %q", t)
	}
}

// Close 释放装饰器持有的连接，错误会合并返回
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// 边界操作
// -----------------------------------------------------------------------------

// StoreBlob 把数据封装为 blob 写入存储，返回其 Hash
func (a *App) StoreBlob(ctx context.Context, data []byte) (types.Hash, error) {
	blob, err := a.Ingester.IngestFile(ctx, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return blob.ID(), nil
}

// ReadBlobAsText 以字符串返回 blob 内容，用于显示
func (a *App) ReadBlobAsText(ctx context.Context, hash types.Hash) (string, error) {
	content, err := a.Reader.ReadBlob(ctx, hash)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s", ErrNotText, hash)
	}
	return string(content), nil
}

// ListTreeEntryNames 返回 tree 中的文件名和目录名
func (a *App) ListTreeEntryNames(ctx context.Context, hash types.Hash) ([]string, error) {
	return a.Reader.ListTreeNames(ctx, hash)
}

// SnapshotDirectory 快照 root 目录，返回根树的 Hash
func (a *App) SnapshotDirectory(ctx context.Context, root string) (types.Hash, error) {
	excluder, err := a.excluder(root)
	if err != nil {
		return "", err
	}

	b := treebuilder.NewBuilder(a.Store,
		treebuilder.WithExcluder(excluder),
		treebuilder.WithConcurrency(a.Snapshot.Concurrency),
		treebuilder.WithLogger(a.Log),
	)

	h, err := b.Build(ctx, root)
	if err != nil {
		return "", err
	}

	if a.Catalog != nil {
		if _, err := a.Catalog.RecordSnapshot(ctx, h, root, excluder.Patterns()); err != nil {
			a.Log.Warn("failed to record snapshot", zap.String("root", h.Short()), zap.Error(err))
		}
	}
	a.Log.Info("snapshot stored", zap.String("path", root), zap.String("root", h.String()))
	return h, nil
}

func (a *App) excluder(root string) (ignore.Excluder, error) {
	var reserved []string
	if a.Snapshot.ReservedName != "" {
		reserved = append(reserved, a.Snapshot.ReservedName)
	}

	var base ignore.Excluder = ignore.ReservedNames(reserved)
	if a.Snapshot.RespectIgnore {
		m, err := ignore.NewMatcher(root, reserved...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrIO, ignore.FileName, err)
		}
		base = m
	}

	// 仓库本身位于 root 之下时，不论叫什么名字都要排除
	if rel, ok := repoUnder(root, a.RepoPath); ok {
		return ignore.WithPaths(base, rel), nil
	}
	return base, nil
}

// repoUnder 在 repoPath 严格位于 root 之内时，
// 返回其相对 root 的 / 分隔路径。
func repoUnder(root, repoPath string) (string, bool) {
	if repoPath == "" {
		return "", false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absRepo)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// ResolveHash 接受用户输入的完整或缩写 Hash
func (a *App) ResolveHash(ctx context.Context, input string) (types.Hash, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if h := types.Hash(s); h.IsValid() {
		return h, nil
	}
	return a.Store.ExpandHash(ctx, types.HashPrefix(s))
}
