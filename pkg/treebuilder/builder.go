package treebuilder

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"

	"gitvault/pkg/core"
	"gitvault/pkg/ignore"
	"gitvault/pkg/ingester"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultReservedName 是遍历时跳过的仓库目录名，
// 除非 WithExcluder 另行指定。
const DefaultReservedName = ".git"

// Builder 负责把目录快照为 Tree 对象图
type Builder struct {
	store       storage.Store
	ingester    *ingester.Ingester
	excluder    ignore.Excluder
	concurrency int
	log         *zap.Logger
}

type Option func(*Builder)

// WithExcluder 替换遍历时的排除规则
func WithExcluder(e ignore.Excluder) Option {
	return func(b *Builder) {
		if e != nil {
			b.excluder = e
		}
	}
}

// WithConcurrency 设置同一目录下并行哈希、写入的文件数。
// 小于 1 表示串行。
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		b.concurrency = max(n, 1)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

func NewBuilder(store storage.Store, opts ...Option) *Builder {
	b := &Builder{
		store:       store,
		ingester:    ingester.NewIngester(store),
		excluder:    ignore.ReservedNames{DefaultReservedName},
		concurrency: 1,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Excluder 返回当前生效的排除规则
func (b *Builder) Excluder() ignore.Excluder { return b.excluder }

// dirFrame 是工作栈上一个待处理的目录
type dirFrame struct {
	abs string // 文件系统路径
	rel string // 相对快照根目录的 / 路径，根目录为 ""

	entries []core.TreeEntry // 规范顺序；子目录完成后回填其 Hash
	subdirs []int            // 仍在等待子树的 entries 下标
	next    int              // 下一个要进入的子目录

	parent *dirFrame
	slot   int // 在 parent.entries 中的下标
}

// Build 深度优先、后序遍历 rootPath，返回根树的 Hash。
// 下降使用显式栈，嵌套深度不会增加调用栈。
// 出错时，已写入的对象保留在存储中。
func (b *Builder) Build(ctx context.Context, rootPath string) (types.Hash, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", core.ErrIO, rootPath)
	}

	root := &dirFrame{abs: rootPath}
	if err := b.expand(ctx, root); err != nil {
		return "", err
	}

	stack := []*dirFrame{root}
	var rootHash types.Hash
	trees := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		top := stack[len(stack)-1]

		// 1. 进入下一个待处理的子目录
		if top.next < len(top.subdirs) {
			slot := top.subdirs[top.next]
			top.next++

			name := top.entries[slot].Name
			child := &dirFrame{
				abs:    filepath.Join(top.abs, name),
				rel:    path.Join(top.rel, name),
				parent: top,
				slot:   slot,
			}
			if err := b.expand(ctx, child); err != nil {
				return "", err
			}
			stack = append(stack, child)
			continue
		}

		// 2. 子节点全部完成：封装并持久化当前目录
		tree, err := core.NewTree(top.entries)
		if err != nil {
			return "", fmt.Errorf("tree %q: %w", top.rel, err)
		}
		if err := b.store.Put(ctx, tree); err != nil {
			return "", fmt.Errorf("failed to store tree %q: %w", top.rel, err)
		}
		trees++
		b.log.Debug("tree written",
			zap.String("path", displayPath(top.rel)),
			zap.String("hash", tree.ID().Short()),
			zap.Int("entries", len(top.entries)))

		// 3. 把 Hash 交给父目录
		stack = stack[:len(stack)-1]
		if top.parent == nil {
			rootHash = tree.ID()
		} else {
			top.parent.entries[top.slot].Hash = tree.ID()
		}
	}

	b.log.Debug("snapshot complete", zap.String("root", rootHash.String()), zap.Int("trees", trees))
	return rootHash, nil
}

// expand 列出目录，丢弃被排除和不支持的条目，把每个普通文件
// 存为 blob，并为子目录记录占位。
func (b *Builder) expand(ctx context.Context, f *dirFrame) error {
	dirents, err := os.ReadDir(f.abs)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	// 与 Tree 编码器使用同一比较函数，遍历顺序即规范顺序
	slices.SortFunc(dirents, func(a, c os.DirEntry) int {
		return core.CompareEntryNames(a.Name(), c.Name())
	})

	var files []int
	for _, d := range dirents {
		rel := path.Join(f.rel, d.Name())
		switch {
		case d.IsDir():
			if b.excluder.Excluded(rel, true) {
				b.log.Debug("excluded", zap.String("path", rel))
				continue
			}
			f.subdirs = append(f.subdirs, len(f.entries))
			f.entries = append(f.entries, core.TreeEntry{Mode: core.ModeDir, Name: d.Name()})
		case d.Type().IsRegular():
			if b.excluder.Excluded(rel, false) {
				b.log.Debug("excluded", zap.String("path", rel))
				continue
			}
			files = append(files, len(f.entries))
			f.entries = append(f.entries, core.TreeEntry{Mode: core.ModeFile, Name: d.Name()})
		default:
			// 符号链接、socket、设备：Tree 里没有对应的模式
			b.log.Debug("skipping unsupported entry", zap.String("path", rel), zap.Stringer("type", d.Type()))
		}
	}

	return b.ingestFiles(ctx, f, files)
}

// ingestFiles 写入一个目录的所有 blob，同时最多 b.concurrency 个。
// 每个 goroutine 只写 f.entries 中自己的槽位。
func (b *Builder) ingestFiles(ctx context.Context, f *dirFrame, slots []int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, slot := range slots {
		g.Go(func() error {
			name := f.entries[slot].Name
			blob, err := b.ingester.IngestPath(gctx, filepath.Join(f.abs, name))
			if err != nil {
				return fmt.Errorf("file %q: %w", path.Join(f.rel, name), err)
			}
			f.entries[slot].Hash = blob.ID()
			return nil
		})
	}
	return g.Wait()
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
