// Package filemanager provides file access confined to a workspace
// directory. Paths that escape the workspace are rejected.
package filemanager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Manager struct {
	root string
}

func New(root string) (*Manager, error) {
	if root == "" {
		root = "workspace"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("filemanager: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filemanager: %w", err)
	}
	return &Manager{root: abs}, nil
}

func (m *Manager) Root() string { return m.root }

// resolve jails name inside the workspace root.
func (m *Manager) resolve(name string) (string, error) {
	full := filepath.Join(m.root, filepath.Clean("/"+name))
	rel, err := filepath.Rel(m.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("filemanager: path %q escapes workspace", name)
	}
	return full, nil
}

func (m *Manager) Save(name, content string) (string, error) {
	full, err := m.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("filemanager save %s: %w", name, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("filemanager save %s: %w", name, err)
	}
	return full, nil
}

func (m *Manager) Read(name string) (string, error) {
	full, err := m.resolve(name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("filemanager read %s: %w", name, err)
	}
	return string(b), nil
}

func (m *Manager) List() ([]string, error) {
	var names []string
	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return err
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filemanager list: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
