package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Store is a durable single-document blob.
//
// Load returns (nil, nil) when nothing has ever been saved. Save writes the entire
// document; there is no delta write and no concurrency token, so the last writer wins.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the encoded document in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// FailSave and FailLoad inject failures.
	FailSave bool
	FailLoad bool
	Saves    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailLoad {
		return nil, fmt.Errorf("%w: injected load failure", ErrTransient)
	}
	if m.data == nil {
		return nil, nil
	}
	doc, err := Decode(m.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return doc, nil
}

func (m *MemoryStore) Save(ctx context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSave {
		return fmt.Errorf("%w: injected save failure", ErrTransient)
	}
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	m.data = data
	m.Saves++
	return nil
}

// Raw returns the last saved bytes.
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// SetRaw replaces the stored bytes, bypassing the codec.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

// IsTransient reports whether err came from a snapshot store.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
