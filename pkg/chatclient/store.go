package chatclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// ProfileStore persists the client's local state across restarts: the
// last-used session pointer and a cached copy of the signed-in profile.
// The pointer is a hint only; the backend's session list is authoritative.
type ProfileStore interface {
	ReadPointer() (string, bool)
	WritePointer(sessionId string) error
	ClearPointer() error

	ReadProfile() (*Principal, bool)
	WriteProfile(p *Principal) error
	ClearProfile() error
}

type storedState struct {
	SessionId string     `json:"sessionId,omitempty"`
	Profile   *Principal `json:"profile,omitempty"`
}

// FileStore keeps local state in a single JSON file under dataDir.
type FileStore struct {
	dataDir string
	mu      sync.RWMutex
	state   storedState // in-memory cache
}

func NewFileStore(dataDir string) (*FileStore, error) {
	store := &FileStore{dataDir: dataDir}

	state, err := store.readFromDisk()
	if err != nil {
		return nil, err
	}
	store.state = state

	return store, nil
}

func (s *FileStore) filePath() string {
	return filepath.Join(s.dataDir, "profile.json")
}

func (s *FileStore) readFromDisk() (storedState, error) {
	data, err := os.ReadFile(s.filePath())
	if os.IsNotExist(err) {
		return storedState{}, nil
	}
	if err != nil {
		return storedState{}, err
	}

	var state storedState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt cache is not worth failing startup over.
		return storedState{}, nil
	}
	return state, nil
}

func (s *FileStore) writeToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath(), data, 0644)
}

func (s *FileStore) ReadPointer() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionId, s.state.SessionId != ""
}

func (s *FileStore) WritePointer(sessionId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionId = sessionId
	return s.writeToDisk()
}

func (s *FileStore) ClearPointer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionId = ""
	return s.writeToDisk()
}

func (s *FileStore) ReadProfile() (*Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return nil, false
	}
	p := *s.state.Profile
	return &p, true
}

func (s *FileStore) WriteProfile(p *Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.state.Profile = &cp
	return s.writeToDisk()
}

func (s *FileStore) ClearProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Profile = nil
	return s.writeToDisk()
}

// MemoryStore holds local state in process. Used in tests and anywhere a
// profile should not outlive the run.
type MemoryStore struct {
	mu    sync.RWMutex
	state storedState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReadPointer() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionId, s.state.SessionId != ""
}

func (s *MemoryStore) WritePointer(sessionId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionId = sessionId
	return nil
}

func (s *MemoryStore) ClearPointer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionId = ""
	return nil
}

func (s *MemoryStore) ReadProfile() (*Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return nil, false
	}
	p := *s.state.Profile
	return &p, true
}

func (s *MemoryStore) WriteProfile(p *Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.state.Profile = &cp
	return nil
}

func (s *MemoryStore) ClearProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Profile = nil
	return nil
}
