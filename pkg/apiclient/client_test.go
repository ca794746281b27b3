package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func seedSession(t *testing.T, store CredentialStore, token string) {
	t.Helper()
	user, _ := json.Marshal(&User{ID: "u1", Email: "vol@asso.fr", Role: "volunteer"})
	if err := store.Set(tokenKey, token); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(refreshKey, "refresh-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(userKey, string(user)); err != nil {
		t.Fatal(err)
	}
}

// gate401 holds every 401 response until all expected requests have one, so
// the retry logic in each goroutine starts at the same moment.
type gate401 struct {
	base    http.RoundTripper
	arrived chan struct{}
	release chan struct{}
}

func (g *gate401) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := g.base.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && req.URL.Path == "/api/v1/maraudes" {
		g.arrived <- struct{}{}
		<-g.release
	}
	return resp, err
}

func TestConcurrent401sTriggerSingleRefresh(t *testing.T) {
	const parallel = 3

	var refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		// give late arrivals time to join the in-flight refresh
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "fresh", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/api/v1/maraudes", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []*Maraude{{ID: "m1", Title: "Maraude centre"}},
			"count":   1,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gate := &gate401{
		base:    http.DefaultTransport,
		arrived: make(chan struct{}, parallel),
		release: make(chan struct{}),
	}

	store := NewMemoryStore()
	seedSession(t, store, "stale")
	c := New(srv.URL, store, WithHTTPClient(&http.Client{Transport: gate}))

	var wg sync.WaitGroup
	errs := make([]error, parallel)

	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListMaraudes(context.Background(), nil)
		}(i)
	}
	for i := 0; i < parallel; i++ {
		<-gate.arrived
	}
	close(gate.release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", n)
	}
	if got := c.Session().Token(); got != "fresh" {
		t.Errorf("session token not rotated, got %q", got)
	}
}

func TestFailedRefreshClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/v1/maraudes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewMemoryStore()
	seedSession(t, store, "stale")
	c := New(srv.URL, store)

	var lastNotified *User
	notified := false
	c.Session().Subscribe(func(u *User) {
		lastNotified = u
		notified = true
	})

	_, err := c.ListMaraudes(context.Background(), nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if c.Session().LoggedIn() {
		t.Error("session should be cleared after failed refresh")
	}
	if _, ok := store.Get(tokenKey); ok {
		t.Error("token key should be removed")
	}
	if _, ok := store.Get(userKey); ok {
		t.Error("user key should be removed")
	}
	if !notified || lastNotified != nil {
		t.Error("subscriber should have been notified with nil")
	}
}

func TestAuthEndpoints401DoesNotRefresh(t *testing.T) {
	var refreshCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid credentials"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewMemoryStore()
	seedSession(t, store, "stale")
	c := New(srv.URL, store)

	_, err := c.Login(context.Background(), LoginRequest{Email: "vol@asso.fr", Password: "wrong"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 0 {
		t.Errorf("login 401 must not trigger refresh, got %d calls", n)
	}
}

func TestLogoutClearsStoreAndNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewMemoryStore()
	seedSession(t, store, "valid")
	c := New(srv.URL, store)

	var events []*User
	c.Session().Subscribe(func(u *User) { events = append(events, u) })

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	for _, key := range []string{tokenKey, refreshKey, userKey} {
		if _, ok := store.Get(key); ok {
			t.Errorf("key %q should be removed after logout", key)
		}
	}
	// initial delivery with the seeded user, then nil on logout
	if len(events) != 2 || events[0] == nil || events[1] != nil {
		t.Errorf("unexpected notification sequence: %v", events)
	}
}

func TestMalformedStoredUserStartsLoggedOut(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(tokenKey, "tok")
	_ = store.Set(refreshKey, "refresh")
	_ = store.Set(userKey, "{not json")

	s := NewSession(store)
	if s.LoggedIn() {
		t.Fatal("session with malformed user data must start logged out")
	}
	if _, ok := store.Get(tokenKey); ok {
		t.Error("token key should have been cleared")
	}
	if _, ok := store.Get(userKey); ok {
		t.Error("user key should have been cleared")
	}
}

func TestSubscribeDeliversCurrentValueAndUnsubscribes(t *testing.T) {
	s := NewSession(NewMemoryStore())

	var calls int
	unsub := s.Subscribe(func(u *User) { calls++ })
	if calls != 1 {
		t.Fatalf("expected immediate delivery, got %d calls", calls)
	}

	if err := s.SetCredentials("tok", "refresh", &User{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected delivery on credential change, got %d calls", calls)
	}

	unsub()
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("unsubscribed observer still notified, %d calls", calls)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/credentials.json"
	store := NewFileStore(path)

	if err := store.Set(tokenKey, "tok"); err != nil {
		t.Fatal(err)
	}
	if v, ok := store.Get(tokenKey); !ok || v != "tok" {
		t.Fatalf("unexpected value %q ok=%v", v, ok)
	}

	// a second store over the same file sees the data
	other := NewFileStore(path)
	if v, ok := other.Get(tokenKey); !ok || v != "tok" {
		t.Fatalf("unexpected value from second store %q ok=%v", v, ok)
	}

	if err := store.Delete(tokenKey); err != nil {
		t.Fatal(err)
	}
	if _, ok := other.Get(tokenKey); ok {
		t.Error("delete should be visible through the file")
	}
}
