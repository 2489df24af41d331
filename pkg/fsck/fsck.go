// Package fsck 校验已存储对象的完整性。
package fsck

import (
	"context"
	"fmt"
	"path"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Problem 是一条完整性错误
type Problem struct {
	Hash types.Hash
	Path string // 在被检查树中的位置，--all 时为空
	Err  error
}

// Kind 返回错误的分类名，例如 "CorruptObject"
func (p Problem) Kind() string {
	if k := core.Classify(p.Err); k != "" {
		return k
	}
	return "Unknown"
}

func (p Problem) String() string {
	loc := ""
	if p.Path != "" {
		loc = " (" + p.Path + ")"
	}
	return fmt.Sprintf("%s %s%s: %v", p.Kind(), p.Hash, loc, p.Err)
}

// Report 汇总一次检查的结果
type Report struct {
	Checked  int
	Blobs    int
	Trees    int
	Problems []Problem
}

func (r *Report) OK() bool { return len(r.Problems) == 0 }

type Checker struct {
	store       storage.Store
	concurrency int
	log         *zap.Logger
}

func NewChecker(store storage.Store, concurrency int, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{store: store, concurrency: max(concurrency, 1), log: log}
}

type task struct {
	hash types.Hash
	want core.ObjectType // 为 "" 时不限类型
	path string
}

type result struct {
	task
	kind     core.ObjectType
	children []task
	err      error
}

// verify 读取一个对象，检查能否解压、解析，哈希是否与 Key 一致，
// 类型是否符合预期。tree 还会返回子节点。
func (c *Checker) verify(ctx context.Context, t task) result {
	res := result{task: t}

	frame, err := c.store.Get(ctx, t.hash)
	if err != nil {
		res.err = err
		return res
	}

	kind, payload, err := core.ParseFrame(frame)
	if err != nil {
		res.err = err
		return res
	}
	res.kind = kind

	if got := core.CalculateHash(frame); got != t.hash {
		res.err = fmt.Errorf("%w: content hashes to %s", core.ErrCorruptObject, got)
		return res
	}

	if t.want != "" && kind != t.want {
		res.err = fmt.Errorf("%w: expected %s, found %s", core.ErrWrongKind, t.want, kind)
		return res
	}

	if kind == core.TypeTree {
		entries, err := core.DecodeTree(payload)
		if err != nil {
			res.err = err
			return res
		}
		for _, e := range entries {
			if !e.Mode.IsKnown() {
				continue
			}
			res.children = append(res.children, task{
				hash: e.Hash,
				want: e.Mode.ObjectType(),
				path: path.Join(t.path, e.Name),
			})
		}
	}
	return res
}

// verifyAll 并行检查一批对象，结果按输入顺序返回
func (c *Checker) verifyAll(ctx context.Context, tasks []task) []result {
	results := make([]result, len(tasks))
	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i, t := range tasks {
		p.Go(func() { results[i] = c.verify(ctx, t) })
	}
	p.Wait()
	return results
}

func (r *Report) add(res result) {
	r.Checked++
	switch res.kind {
	case core.TypeBlob:
		r.Blobs++
	case core.TypeTree:
		r.Trees++
	}
	if res.err != nil {
		r.Problems = append(r.Problems, Problem{Hash: res.hash, Path: res.path, Err: res.err})
	}
}

// CheckReachable 逐层校验 root 及其可达的所有对象。
// 共享的子树只检查一次。
func (c *Checker) CheckReachable(ctx context.Context, root types.Hash) (*Report, error) {
	report := &Report{}
	seen := map[types.Hash]bool{root: true}
	level := []task{{hash: root}}

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var next []task
		for _, res := range c.verifyAll(ctx, level) {
			report.add(res)
			for _, child := range res.children {
				if seen[child.hash] {
					continue
				}
				seen[child.hash] = true
				next = append(next, child)
			}
		}
		level = next
	}

	c.log.Debug("fsck reachable done",
		zap.String("root", root.Short()),
		zap.Int("checked", report.Checked),
		zap.Int("problems", len(report.Problems)))
	return report, nil
}

// CheckAll 校验所有已存储对象，并确认每个 tree 的子节点都存在
func (c *Checker) CheckAll(ctx context.Context) (*Report, error) {
	var tasks []task
	if err := c.store.Walk(ctx, func(h types.Hash) error {
		tasks = append(tasks, task{hash: h})
		return nil
	}); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, res := range c.verifyAll(ctx, tasks) {
		report.add(res)
		for _, child := range res.children {
			ok, err := c.store.Has(ctx, child.hash)
			if err != nil {
				return report, err
			}
			if !ok {
				report.Problems = append(report.Problems, Problem{
					Hash: child.hash,
					Path: child.path,
					Err:  fmt.Errorf("%w: referenced by tree %s", core.ErrObjectNotFound, res.hash),
				})
			}
		}
	}

	c.log.Debug("fsck all done", zap.Int("checked", report.Checked), zap.Int("problems", len(report.Problems)))
	return report, nil
}
