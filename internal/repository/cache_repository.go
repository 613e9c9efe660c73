package repository

import (
	"colabnote-be/internal/entity"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ICacheRepository is the device-local note cache. It is the client's source
// of truth for rendering; staleness is resolved by the sync service, never
// here.
type ICacheRepository interface {
	List() []*entity.Note
	Get(id uuid.UUID) (*entity.Note, bool)
	Ids() []uuid.UUID
	Upsert(note *entity.Note)
	Remove(id uuid.UUID)
}

type cacheRepository struct {
	mu    sync.Mutex
	path  string
	notes []*entity.Note
}

// NewCacheRepository loads the persisted snapshot at path, if any. A missing
// or unreadable snapshot starts an empty cache rather than failing, so a
// fresh device works out of the box.
func NewCacheRepository(path string) ICacheRepository {
	c := &cacheRepository{
		path:  path,
		notes: make([]*entity.Note, 0),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Cache] failed to read snapshot %s: %v", path, err)
		}
		return c
	}

	if err := json.Unmarshal(data, &c.notes); err != nil {
		log.Printf("[Cache] failed to parse snapshot %s: %v", path, err)
		c.notes = make([]*entity.Note, 0)
	}

	return c
}

func (c *cacheRepository) List() []*entity.Note {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]*entity.Note, len(c.notes))
	copy(res, c.notes)
	return res
}

func (c *cacheRepository) Get(id uuid.UUID) (*entity.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, note := range c.notes {
		if note.Id == id {
			return note, true
		}
	}
	return nil, false
}

func (c *cacheRepository) Ids() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(c.notes))
	for _, note := range c.notes {
		ids = append(ids, note.Id)
	}
	return ids
}

// Upsert prepends a new note or replaces an existing one in place.
func (c *cacheRepository) Upsert(note *entity.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.notes {
		if existing.Id == note.Id {
			c.notes[i] = note
			c.flush()
			return
		}
	}

	c.notes = append([]*entity.Note{note}, c.notes...)
	c.flush()
}

func (c *cacheRepository) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.notes {
		if existing.Id == id {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			c.flush()
			return
		}
	}
}

// flush persists the snapshot. Failures are logged only: the in-memory cache
// stays authoritative for this session. Callers must hold c.mu.
func (c *cacheRepository) flush() {
	data, err := json.MarshalIndent(c.notes, "", "  ")
	if err != nil {
		log.Printf("[Cache] failed to encode snapshot: %v", err)
		return
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		log.Printf("[Cache] failed to create data dir: %v", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("[Cache] failed to write snapshot: %v", err)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		log.Printf("[Cache] failed to replace snapshot: %v", err)
	}
}
