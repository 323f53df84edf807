// Package pathutil provides centralized path management for inputs, outputs and the run history.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to the input name to derive the default output path.
const OutputSuffix = "_STAT"

// PathResolver resolves user-supplied paths against a root directory.
type PathResolver struct {
	root      string
	historyDB string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// Root is the directory relative paths are resolved against (e.g., ~/statements)
	Root string
	// HistoryDB is the SQLite run history file. Empty disables history.
	HistoryDB string
}

// New creates a new PathResolver with the given configuration.
// An empty Root means the current directory.
func New(config Config) *PathResolver {
	root := config.Root
	if root == "" {
		root = "."
	}
	p := &PathResolver{root: root}
	if config.HistoryDB != "" {
		p.historyDB = p.Resolve(config.HistoryDB)
	}
	return p
}

// Root returns the root directory.
func (p *PathResolver) Root() string {
	return p.root
}

// Resolve returns path unchanged when absolute, otherwise joined to the root.
func (p *PathResolver) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.root, path)
}

// HistoryPath returns the run history database path and whether history is enabled.
func (p *PathResolver) HistoryPath() (string, bool) {
	return p.historyDB, p.historyDB != ""
}

// DefaultOutputPath derives the output path for input.
// Example: statements/acme.csv -> statements/acme_STAT.xlsx
func (p *PathResolver) DefaultOutputPath(input string) string {
	resolved := p.Resolve(input)
	ext := filepath.Ext(resolved)
	stem := strings.TrimSuffix(resolved, ext)
	return stem + OutputSuffix + ".xlsx"
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a regular file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}
