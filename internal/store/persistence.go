// Package store owns the canonical in-memory Post collection and mirrors it
// to a durable key-value backend after every mutation.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"socialflow/internal/models"
)

// BlobKey is the fixed key the whole collection is stored under.
const BlobKey = "socialflow:posts"

// Persistence loads and saves the entire Post collection as one serialized
// blob. Implementations must treat an absent blob as an empty collection.
type Persistence interface {
	Load(ctx context.Context) ([]models.Post, error)
	Save(ctx context.Context, posts []models.Post) error
}

// MemoryPersistence is an in-process Persistence used by tests and ephemeral
// runs. It round-trips through JSON so it exercises the same serialization
// path as the durable backends.
type MemoryPersistence struct {
	mu   sync.Mutex
	blob []byte

	// FailSaves makes every Save return this error when non-nil.
	FailSaves error
}

// NewMemoryPersistence returns an empty in-memory persistence.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

// Load implements Persistence.
func (m *MemoryPersistence) Load(_ context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.blob) == 0 {
		return nil, nil
	}
	var posts []models.Post
	if err := json.Unmarshal(m.blob, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Save implements Persistence.
func (m *MemoryPersistence) Save(_ context.Context, posts []models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSaves != nil {
		return m.FailSaves
	}
	blob, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	m.blob = blob
	return nil
}
