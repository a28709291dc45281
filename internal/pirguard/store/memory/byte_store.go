package memory

import (
	"context"
	"sync"

	"github.com/pirguard/pirguard/internal/pirguard/store"
)

type ByteStore struct {
	mu    sync.RWMutex
	cells map[uint16]byte
}

func NewByteStore() *ByteStore {
	return &ByteStore{cells: make(map[uint16]byte)}
}

func (s *ByteStore) ReadCell(_ context.Context, addr uint16) (byte, error) {
	if err := store.CheckAddr(addr); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.cells[addr]
	if !ok {
		return store.Erased, nil
	}
	return b, nil
}

func (s *ByteStore) WriteCell(_ context.Context, addr uint16, b byte) error {
	if err := store.CheckAddr(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[addr] = b
	return nil
}
