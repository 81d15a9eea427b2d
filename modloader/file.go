// Package modloader provides module.Loader implementations: a filesystem
// loader grounded on the teacher's runtime/filesystem.go conventions, and
// three database/sql-backed loaders grounded on its pkg/pdo drivers.
package modloader

import (
	"os"
	"path/filepath"
	"strings"
)

// FileLoader resolves an import path's segments against a directory tree
// rooted at Root, one file per module: `import std.io` reads
// "<Root>/std/io.hebi".
type FileLoader struct {
	Root string
	Ext  string // defaults to ".hebi"
}

func NewFileLoader(root string) *FileLoader {
	return &FileLoader{Root: root, Ext: ".hebi"}
}

func (l *FileLoader) Load(segments []string) (string, error) {
	ext := l.Ext
	if ext == "" {
		ext = ".hebi"
	}
	parts := append([]string{l.Root}, segments...)
	path := filepath.Join(parts...) + ext
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func joinDotted(segments []string) string { return strings.Join(segments, ".") }
