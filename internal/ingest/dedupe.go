package ingest

import "sync"

// Key identifies a response for deduplication
type Key struct {
	Hash     string
	PromptID string
	Run      string
	Model    string
}

// Deduper records seen response keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already seen and records it if not.
	SeenAndRecord(key Key) bool

	Size() int
}

// inMemoryDeduper implements Deduper with an unbounded set
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[Key]struct{}
}

// NewInMemoryDeduper creates an empty in-memory deduper
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{seen: make(map[Key]struct{})}
}

func (d *inMemoryDeduper) SeenAndRecord(key Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
