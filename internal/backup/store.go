// Package backup preserves prior file contents before destructive actions.
// Backups accumulate under a sidecar directory inside the project root and
// are never auto-deleted.
package backup

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDir is the sidecar directory, relative to the project root.
var DefaultDir = filepath.Join(".vibe", "backups")

// Record describes one preserved copy of a file or directory archive.
type Record struct {
	ID          string    `json:"id"`
	OriginalRel string    `json:"original_rel"`
	Timestamp   time.Time `json:"timestamp"`
	BackupPath  string    `json:"backup_path"`
	IsArchive   bool      `json:"is_archive"` // directory archived before deletion
}

// Store copies files into the sidecar directory before they are
// overwritten or deleted.
type Store struct {
	root string // project root
	dir  string // absolute backup directory
	seq  int    // store-scoped counter, breaks same-second name collisions
	now  func() time.Time
}

// NewStore returns a Store rooted at the project directory, creating the
// sidecar directory if needed.
func NewStore(root, dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}
	return &Store{root: root, dir: abs, now: time.Now}, nil
}

// Dir returns the absolute backup directory.
func (s *Store) Dir() string { return s.dir }

// Backup copies the existing file at path byte-for-byte into the sidecar
// directory. path must exist and be a regular file.
func (s *Store) Backup(path string) (*Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup source: %w", err)
	}
	if info.IsDir() {
		return nil, errors.New("backup source is a directory; use ArchiveDir")
	}

	rel := s.relTo(path)
	dest := filepath.Join(s.dir, s.backupName(rel, ".bak"))

	if err := copyFile(path, dest, info.Mode()); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}

	rec := &Record{
		ID:          uuid.New().String(),
		OriginalRel: rel,
		Timestamp:   s.now(),
		BackupPath:  dest,
	}
	s.appendIndex(rec)
	return rec, nil
}

// ArchiveDir zips the whole directory at path into the sidecar directory.
// Used before directory deletion so subtree removal is never a silent,
// unrecoverable loss.
func (s *Store) ArchiveDir(path string) (*Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("archive source: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.New("archive source is not a directory")
	}

	rel := s.relTo(path)
	dest := filepath.Join(s.dir, s.backupName(rel, ".zip"))

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	zw := zip.NewWriter(f)

	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		entryRel, relErr := filepath.Rel(path, p)
		if relErr != nil {
			return nil
		}
		w, err := zw.Create(filepath.ToSlash(entryRel))
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return nil // unreadable entries are skipped, archive stays best-effort
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("writing archive: %w", err)
	}

	rec := &Record{
		ID:          uuid.New().String(),
		OriginalRel: rel,
		Timestamp:   s.now(),
		BackupPath:  dest,
		IsArchive:   true,
	}
	s.appendIndex(rec)
	return rec, nil
}

// Records reads the backup index, newest first. A missing index means no
// backups have been taken.
func (s *Store) Records() ([]Record, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup index: %w", err)
	}

	var records []Record
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue // a corrupt line loses one record, not the index
		}
		records = append(records, rec)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// backupName builds "<sanitized-rel>_<stamp>_<n><ext>". The counter keeps
// two backups of the same path within one second from colliding.
func (s *Store) backupName(rel, ext string) string {
	s.seq++
	sanitized := strings.NewReplacer("/", "_", "\\", "_").Replace(rel)
	stamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%d%s", sanitized, stamp, s.seq, ext)
}

// appendIndex records rec as one JSON line; index failures never block the
// action the backup protects.
func (s *Store) appendIndex(rec *Record) {
	f, err := os.OpenFile(s.indexPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	f.Write(append(data, '\n'))
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.jsonl")
}

func (s *Store) relTo(path string) string {
	if rel, err := filepath.Rel(s.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(path)
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
