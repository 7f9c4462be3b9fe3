package spool

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"drive-go/internal/drive"
)

type memoryEntry struct {
	data []byte
	refs int
}

// MemorySpool keeps spooled content in memory.
type MemorySpool struct {
	maxSize int64
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

var _ drive.Spool = (*MemorySpool)(nil)

func NewMemorySpool(maxSize int64) *MemorySpool {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MemorySpool{maxSize: maxSize, entries: make(map[string]*memoryEntry)}
}

func (s *MemorySpool) Store(r io.Reader) (string, int64, error) {
	return s.store(r, s.maxSize)
}

func (s *MemorySpool) StoreDerived(r io.Reader) (string, int64, error) {
	return s.store(r, derivedLimit(s.maxSize))
}

func (s *MemorySpool) store(r io.Reader, limit int64) (string, int64, error) {
	var buf bytes.Buffer
	checksum, size, err := hashingCopy(&buf, r, limit)
	if err != nil {
		return "", 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[checksum]; ok {
		e.refs++
		return checksum, size, nil
	}
	s.entries[checksum] = &memoryEntry{data: buf.Bytes(), refs: 1}
	return checksum, size, nil
}

func (s *MemorySpool) Open(checksum string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[checksum]
	if !ok {
		return nil, fmt.Errorf("content not spooled: %s", checksum)
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

func (s *MemorySpool) Remove(checksum string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[checksum]
	if !ok {
		return
	}
	if e.refs--; e.refs <= 0 {
		delete(s.entries, checksum)
	}
}

// Len returns the number of distinct checksums held.
func (s *MemorySpool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
