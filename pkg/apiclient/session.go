package apiclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Storage keys for the persisted session.
const (
	tokenKey   = "auth_token"
	refreshKey = "refresh_token"
	userKey    = "current_user"
)

// CredentialStore persists the session token and the serialized current user.
// Implementations must be safe for concurrent use.
type CredentialStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is an in-process CredentialStore, mostly for tests and
// short-lived tools.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// FileStore keeps credentials in one JSON file, one entry per key.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return map[string]string{}
	}
	return values
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.load()[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.load()
	values[key] = value
	return s.save(values)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.load()
	delete(values, key)
	return s.save(values)
}

// Session tracks the authenticated user and token, persists them through a
// CredentialStore, and notifies subscribers when the user changes.
//
// Notifications are delivered synchronously, in subscription order, on the
// goroutine that performed the change.
type Session struct {
	store CredentialStore

	mu           sync.RWMutex
	token        string
	refreshToken string
	user         *User
	observers    map[int]func(*User)
	nextSub      int
}

// NewSession restores session state from the store. A stored user that no
// longer parses leaves the session logged out with both keys cleared.
func NewSession(store CredentialStore) *Session {
	s := &Session{store: store, observers: make(map[int]func(*User))}

	token, hasToken := store.Get(tokenKey)
	raw, hasUser := store.Get(userKey)
	if !hasToken || !hasUser {
		return s
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		_ = store.Delete(tokenKey)
		_ = store.Delete(refreshKey)
		_ = store.Delete(userKey)
		return s
	}

	s.token = token
	s.refreshToken, _ = store.Get(refreshKey)
	s.user = &u
	return s
}

// RefreshToken returns the stored refresh token, empty when logged out.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Token returns the current access token, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns the logged-in user, nil when logged out.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// LoggedIn reports whether a user session is active.
func (s *Session) LoggedIn() bool {
	return s.CurrentUser() != nil
}

// Subscribe registers fn for user changes and immediately delivers the
// current value. The returned function unsubscribes.
func (s *Session) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.observers[id] = fn
	current := s.user
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// SetCredentials stores a fresh token pair and user and notifies subscribers.
func (s *Session) SetCredentials(token, refreshToken string, user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(tokenKey, token); err != nil {
		return err
	}
	if err := s.store.Set(refreshKey, refreshToken); err != nil {
		return err
	}
	if err := s.store.Set(userKey, string(raw)); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.refreshToken = refreshToken
	s.user = user
	fns := s.snapshotObservers()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
	return nil
}

// SetTokens rotates the token pair without touching the user. Used after a
// silent refresh.
func (s *Session) SetTokens(token, refreshToken string) error {
	if err := s.store.Set(tokenKey, token); err != nil {
		return err
	}
	if err := s.store.Set(refreshKey, refreshToken); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.refreshToken = refreshToken
	s.mu.Unlock()
	return nil
}

// Clear wipes the stored keys and notifies subscribers with nil.
func (s *Session) Clear() error {
	err1 := s.store.Delete(tokenKey)
	_ = s.store.Delete(refreshKey)
	err2 := s.store.Delete(userKey)

	s.mu.Lock()
	s.token = ""
	s.refreshToken = ""
	s.user = nil
	fns := s.snapshotObservers()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}

	if err1 != nil {
		return err1
	}
	return err2
}

// snapshotObservers returns observers in subscription order. Caller must hold
// the lock.
func (s *Session) snapshotObservers() []func(*User) {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*User), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	return fns
}
