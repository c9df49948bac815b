// Package scan builds the backend's view of the project: a structural tree
// rendering plus capped file contents, filtered through an ignore rule set.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileBytes caps how much of a single file is scraped into
// context.
const DefaultMaxFileBytes = 64 * 1024

// Scanner walks a directory honoring a RuleSet.
type Scanner struct {
	Rules        *RuleSet
	MaxFileBytes int // per-file cap; 0 means DefaultMaxFileBytes
}

func (s *Scanner) maxBytes() int {
	if s.MaxFileBytes > 0 {
		return s.MaxFileBytes
	}
	return DefaultMaxFileBytes
}

// Tree renders the directory structure under root with box-drawing
// connectors. Directories sort before files, then case-insensitively by
// name, so the rendering is deterministic.
func (s *Scanner) Tree(root string) string {
	var sb strings.Builder
	s.renderTree(root, root, "", &sb)
	out := sb.String()
	if out == "" {
		return "(empty directory)"
	}
	return strings.TrimRight(out, "\n")
}

func (s *Scanner) renderTree(root, dir, prefix string, sb *strings.Builder) {
	entries, err := s.visibleEntries(root, dir)
	if err != nil {
		fmt.Fprintf(sb, "%s[access denied]\n", prefix)
		return
	}

	for i, e := range entries {
		last := i == len(entries)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Fprintf(sb, "%s%s%s\n", prefix, connector, e.Name())
		if e.IsDir() {
			s.renderTree(root, filepath.Join(dir, e.Name()), childPrefix, sb)
		}
	}
}

// Scrape walks the subtree under dir (with paths reported relative to
// root) and returns the tree rendering followed by each visible file's
// contents in fenced sections. Files larger than the per-file cap are
// truncated with a marker.
func (s *Scanner) Scrape(root, dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scanning %s: not a directory", dir)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Project Content: %s\n\n", filepath.Base(dir))
	sb.WriteString("## Folder Structure\n```\n")
	fmt.Fprintf(&sb, "%s/\n", filepath.Base(dir))
	sb.WriteString(s.Tree(dir))
	sb.WriteString("\n```\n\n---\n\n## File Contents\n\n")

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if path == dir {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if s.Rules.Ignored(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		content, truncated, readErr := s.readCapped(path)
		if readErr != nil {
			return nil // unreadable files are simply absent from context
		}
		lang := strings.TrimPrefix(filepath.Ext(path), ".")
		if lang == "" {
			lang = "text"
		}
		fmt.Fprintf(&sb, "### File: `%s`\n```%s\n%s\n", rel, lang, content)
		if truncated {
			sb.WriteString("... (truncated)\n")
		}
		sb.WriteString("```\n\n")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}
	return sb.String(), nil
}

// readCapped reads at most the per-file cap from path.
func (s *Scanner) readCapped(path string) (content string, truncated bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	max := s.maxBytes()
	if len(data) > max {
		return string(data[:max]), true, nil
	}
	return strings.TrimRight(string(data), "\n"), false, nil
}

// List returns the visible top-level entry names of dir, directories
// suffixed with a separator.
func (s *Scanner) List(dir string) ([]string, error) {
	entries, err := s.visibleEntries(dir, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		names = append(names, name)
	}
	return names, nil
}

// visibleEntries reads dir and filters through the rule set, sorted
// directories-first.
func (s *Scanner) visibleEntries(root, dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var visible []os.DirEntry
	for _, e := range entries {
		rel, relErr := filepath.Rel(root, filepath.Join(dir, e.Name()))
		if relErr != nil {
			rel = e.Name()
		}
		if s.Rules.Ignored(rel, e.IsDir()) {
			continue
		}
		visible = append(visible, e)
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return strings.ToLower(visible[i].Name()) < strings.ToLower(visible[j].Name())
	})
	return visible, nil
}
