package refs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitvault/pkg/core"
)

const (
	DefaultBranch = "main"
	symrefPrefix  = "ref: "
)

var (
	ErrNoHead         = errors.New("HEAD not found (not a repository)")
	ErrInvalidHead    = errors.New("HEAD is not a symbolic reference")
	ErrInvalidRefName = errors.New("invalid reference name")
)

// Manager 负责仓库骨架和符号引用 HEAD
type Manager struct {
	rootPath string
}

func NewManager(rootPath string) *Manager {
	return &Manager{rootPath: rootPath}
}

func (m *Manager) Root() string { return m.rootPath }

func (m *Manager) headPath() string {
	return filepath.Join(m.rootPath, "HEAD")
}

// IsInitialized 判断仓库是否已有 HEAD 文件
func (m *Manager) IsInitialized() bool {
	_, err := os.Stat(m.headPath())
	return err == nil
}

// Init 创建 objects/、refs/heads/ 以及指向 refs/heads/main 的 HEAD。
// 对已有仓库执行时保留 HEAD，并返回 created=false。
func (m *Manager) Init() (created bool, err error) {
	for _, dir := range []string{"objects", filepath.Join("refs", "heads")} {
		if err := os.MkdirAll(filepath.Join(m.rootPath, dir), 0o755); err != nil {
			return false, fmt.Errorf("%w: %w", core.ErrIO, err)
		}
	}

	if m.IsInitialized() {
		return false, nil
	}
	if err := m.SetHead(DefaultBranch); err != nil {
		return false, err
	}
	return true, nil
}

// GetHead 返回 HEAD 指向的引用，例如 "refs/heads/main"
func (m *Manager) GetHead() (string, error) {
	data, err := os.ReadFile(m.headPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoHead
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read HEAD: %w", core.ErrIO, err)
	}

	// 编辑器可能会加上末尾换行
	s := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(s, symrefPrefix)
	if !ok || target == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidHead, s)
	}
	return target, nil
}

// SetHead 让 HEAD 指向 refs/heads/<branch>。
// 通过临时文件 + Rename 原子替换。
func (m *Manager) SetHead(branch string) error {
	if branch == "" || strings.ContainsAny(branch, " \n\x00") || strings.Contains(branch, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidRefName, branch)
	}

	content := symrefPrefix + "refs/heads/" + branch + "\n"

	tmp, err := os.CreateTemp(m.rootPath, "HEAD-*")
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), m.headPath()); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return nil
}
