package ignore

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName 是可选的快照忽略文件，gitignore 语法
const FileName = ".gvignore"

// Excluder 决定 tree builder 跳过哪些目录项。
// relPath 以 / 分隔，相对于快照根目录。
type Excluder interface {
	Excluded(relPath string, isDir bool) bool
	// Patterns 描述规则，用于日志和快照目录
	Patterns() []string
}

// ReservedNames 排除任意深度下 base name 在集合中的条目。
// 零值不排除任何东西。
type ReservedNames []string

func (r ReservedNames) Excluded(relPath string, _ bool) bool {
	return slices.Contains(r, path.Base(relPath))
}

func (r ReservedNames) Patterns() []string { return slices.Clone(r) }

// Matcher 组合保留名和 .gvignore 文件中的规则
type Matcher struct {
	reserved ReservedNames
	ignorer  *gitignore.GitIgnore
	lines    []string
}

// NewMatcher 加载 rootPath/.gvignore (如果存在)。保留名始终生效，
// 即使忽略文件对其取反。
func NewMatcher(rootPath string, reserved ...string) (*Matcher, error) {
	m := &Matcher{reserved: ReservedNames(reserved)}

	ignoreFilePath := filepath.Join(rootPath, FileName)
	data, err := os.ReadFile(ignoreFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}

	m.lines = splitLines(string(data))
	m.ignorer = gitignore.CompileIgnoreLines(m.lines...)
	return m, nil
}

// Excluded 判断 relPath (如 "data/model.bin") 是否应该跳过
func (m *Matcher) Excluded(relPath string, isDir bool) bool {
	if m.reserved.Excluded(relPath, isDir) {
		return true
	}
	if m.ignorer == nil {
		return false
	}
	// 仅目录规则 ("build/") 需要带末尾斜杠才能匹配
	if isDir && m.ignorer.MatchesPath(relPath+"/") {
		return true
	}
	return m.ignorer.MatchesPath(relPath)
}

func (m *Matcher) Patterns() []string {
	out := m.reserved.Patterns()
	for _, l := range m.lines {
		if l = strings.TrimSpace(l); l != "" && l[0] != '#' {
			out = append(out, l)
		}
	}
	return out
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Paths 在基础 Excluder 之上，再按相对快照根目录的完整路径排除。
// 用于仓库目录不叫保留名的情况。
type Paths struct {
	base  Excluder
	paths []string
}

func WithPaths(base Excluder, paths ...string) *Paths {
	if base == nil {
		base = ReservedNames(nil)
	}
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		clean = append(clean, path.Clean(p))
	}
	return &Paths{base: base, paths: clean}
}

func (p *Paths) Excluded(relPath string, isDir bool) bool {
	if slices.Contains(p.paths, relPath) {
		return true
	}
	return p.base.Excluded(relPath, isDir)
}

// Patterns 以锚定的 gitignore 形式 ("/vault") 报告额外路径
func (p *Paths) Patterns() []string {
	out := p.base.Patterns()
	for _, rel := range p.paths {
		out = append(out, "/"+rel)
	}
	return out
}
