package scan

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// defaultSkippedNames are entries never shown to the backend: dependency
// trees, VCS metadata, build output, lockfiles and OS junk.
var defaultSkippedNames = []string{
	"node_modules", ".git", ".vs", ".vscode", ".idea", "__pycache__",
	"dist", "build", "coverage", ".next", ".nuxt", ".output",
	"package-lock.json", "pnpm-lock.yaml", "yarn.lock", "bun.lockb",
	".vibe", "Thumbs.db", ".DS_Store",
}

// defaultSkippedExtensions are binary or asset extensions excluded from
// content scraping.
var defaultSkippedExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".webp",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".exe", ".dll", ".so", ".dylib", ".pyc", ".class", ".jar",
	".pdf", ".zip", ".tar", ".gz",
}

// dotfileExceptions are dot-entries kept visible despite the dotfile rule.
var dotfileExceptions = []string{".env", ".gitignore", ".vibeignore"}

// RuleSet decides which filesystem entries are visible to context scraping.
// It is immutable after construction.
type RuleSet struct {
	exactNames map[string]struct{}
	extensions map[string]struct{}
	patterns   []string // gitignore-style globs, matched in order
}

// NewRuleSet builds a RuleSet from the built-in denylists plus extra
// configured glob patterns.
func NewRuleSet(extraPatterns []string) *RuleSet {
	rs := &RuleSet{
		exactNames: make(map[string]struct{}, len(defaultSkippedNames)),
		extensions: make(map[string]struct{}, len(defaultSkippedExtensions)),
	}
	for _, n := range defaultSkippedNames {
		rs.exactNames[n] = struct{}{}
	}
	for _, e := range defaultSkippedExtensions {
		rs.extensions[e] = struct{}{}
	}
	rs.patterns = append(rs.patterns, extraPatterns...)
	return rs
}

// LoadRuleSet builds a RuleSet for root, merging configured patterns with
// those read from .gitignore and .vibeignore in the root directory.
// Missing ignore files are not an error.
func LoadRuleSet(root string, configured []string) *RuleSet {
	patterns := make([]string, len(configured))
	copy(patterns, configured)

	for _, name := range []string{".gitignore", ".vibeignore"} {
		extra, err := readPatternFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		patterns = append(patterns, extra...)
	}
	return NewRuleSet(patterns)
}

// Ignored reports whether the entry should be hidden from context scans.
// rel is the path relative to the scan root; isDir distinguishes the
// dotfile rule, which hides dot-entries except a small allowlist.
func (rs *RuleSet) Ignored(rel string, isDir bool) bool {
	base := filepath.Base(rel)

	if _, ok := rs.exactNames[base]; ok {
		return true
	}
	if !isDir {
		if _, ok := rs.extensions[strings.ToLower(filepath.Ext(base))]; ok {
			return true
		}
	}
	if strings.HasPrefix(base, ".") && !isDotfileException(base) {
		return true
	}

	for _, pattern := range rs.patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func isDotfileException(name string) bool {
	for _, ok := range dotfileExceptions {
		if name == ok {
			return true
		}
	}
	return false
}

// readPatternFile reads a gitignore-style file, returning non-empty,
// non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
