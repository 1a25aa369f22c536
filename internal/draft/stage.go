package draft

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned when a content ref has no staged bytes
var ErrBlobNotFound = errors.New("staged blob not found")

// BlobStage holds the raw bytes of uploaded files while their draft is
// unpersisted. FileRef.ContentRef points into the stage; everything else in
// the system only handles the descriptor. Blobs leave the stage when the
// draft is discarded or committed.
type BlobStage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStage creates an empty blob stage
func NewBlobStage() *BlobStage {
	return &BlobStage{blobs: make(map[string][]byte)}
}

// Put stages a blob and returns its content ref
func (b *BlobStage) Put(data []byte) string {
	ref := uuid.NewString()

	b.mu.Lock()
	b.blobs[ref] = data
	b.mu.Unlock()

	return ref
}

// Get returns the staged bytes for a content ref
func (b *BlobStage) Get(ref string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.blobs[ref]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return data, nil
}

// Delete drops a staged blob. Deleting an unknown ref is a no-op.
func (b *BlobStage) Delete(ref string) {
	b.mu.Lock()
	delete(b.blobs, ref)
	b.mu.Unlock()
}
