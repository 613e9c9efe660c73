package repository

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ILocalStateRepository persists per-device identity, the equivalent of the
// browser's local storage for the original client.
type ILocalStateRepository interface {
	UserName() (string, bool)
	SetUserName(name string)
}

type localState struct {
	UserName string `json:"user_name"`
}

type localStateRepository struct {
	mu    sync.Mutex
	path  string
	state localState
}

func NewLocalStateRepository(path string) ILocalStateRepository {
	r := &localStateRepository{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[LocalState] failed to read %s: %v", path, err)
		}
		return r
	}

	if err := json.Unmarshal(data, &r.state); err != nil {
		log.Printf("[LocalState] failed to parse %s: %v", path, err)
	}

	return r
}

func (r *localStateRepository) UserName() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state.UserName, r.state.UserName != ""
}

func (r *localStateRepository) SetUserName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.UserName = name

	data, err := json.MarshalIndent(r.state, "", "  ")
	if err != nil {
		log.Printf("[LocalState] failed to encode: %v", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		log.Printf("[LocalState] failed to create data dir: %v", err)
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		log.Printf("[LocalState] failed to write %s: %v", r.path, err)
	}
}
