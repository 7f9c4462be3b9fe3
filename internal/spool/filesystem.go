package spool

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"drive-go/internal/drive"
)

// staleAfter is how long an abandoned run directory is kept before a later
// process removes it.
const staleAfter = 24 * time.Hour

// FileSystemSpool writes spooled content to files named by checksum, in a
// run directory owned by this spool:
//
//	<spool_dir>/
//	  run-*/          (one per process)
//	    <checksum>
//	    .tmp-*        (in-flight writes)
//
// Reference counts live in memory. Other processes sharing spool_dir keep
// their own run directories; entries untouched for staleAfter are left
// over from crashes and are removed by NewFileSystemSpool.
type FileSystemSpool struct {
	dir     string
	maxSize int64
	mu      sync.Mutex
	refs    map[string]int
}

var _ drive.Spool = (*FileSystemSpool)(nil)

func NewFileSystemSpool(dir string, maxSize int64) (*FileSystemSpool, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	if err := removeStale(dir, time.Now().Add(-staleAfter)); err != nil {
		return nil, err
	}

	run, err := os.MkdirTemp(dir, "run-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool run directory: %w", err)
	}

	return &FileSystemSpool{dir: run, maxSize: maxSize, refs: make(map[string]int)}, nil
}

// removeStale deletes entries of dir last modified before cutoff.
func removeStale(dir string, cutoff time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading spool directory: %w", err)
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}

// Close removes the run directory and everything still spooled in it.
func (s *FileSystemSpool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = make(map[string]int)
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("removing spool run directory: %w", err)
	}
	return nil
}

func (s *FileSystemSpool) Store(r io.Reader) (string, int64, error) {
	return s.store(r, s.maxSize)
}

func (s *FileSystemSpool) StoreDerived(r io.Reader) (string, int64, error) {
	return s.store(r, derivedLimit(s.maxSize))
}

func (s *FileSystemSpool) store(r io.Reader, limit int64) (string, int64, error) {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	checksum, size, err := hashingCopy(tmp, r, limit)
	closeErr := tmp.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs[checksum] > 0 {
		os.Remove(tmpPath)
		s.refs[checksum]++
		return checksum, size, nil
	}
	if err := os.Rename(tmpPath, s.path(checksum)); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to rename temp file: %w", err)
	}
	s.refs[checksum] = 1
	return checksum, size, nil
}

func (s *FileSystemSpool) Open(checksum string) (io.ReadCloser, error) {
	s.mu.Lock()
	held := s.refs[checksum] > 0
	s.mu.Unlock()
	if !held {
		return nil, fmt.Errorf("content not spooled: %s", checksum)
	}

	f, err := os.Open(s.path(checksum))
	if err != nil {
		return nil, fmt.Errorf("opening spooled content: %w", err)
	}
	return f, nil
}

func (s *FileSystemSpool) Remove(checksum string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.refs[checksum]
	if !ok {
		return
	}
	if n <= 1 {
		delete(s.refs, checksum)
		os.Remove(s.path(checksum))
		return
	}
	s.refs[checksum] = n - 1
}

func (s *FileSystemSpool) path(checksum string) string {
	return filepath.Join(s.dir, checksum)
}
