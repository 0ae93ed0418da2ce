package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	mu       sync.Mutex
	response *http.Response
	err      error
	calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.response, m.err
}

// Calls returns how many requests went through the round tripper.
func (m *MockRoundTripper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Reply is one canned backend response.
type Reply struct {
	Status int
	Body   any
}

// OK is a 200 reply with the given JSON body.
func OK(body any) Reply { return Reply{Status: http.StatusOK, Body: body} }

// Expired is the 401 the backend sends when the access token can be refreshed.
func Expired() Reply {
	return Reply{Status: http.StatusUnauthorized, Body: map[string]any{"error": "Access token expired", "needs_refresh": true}}
}

// Unauthenticated is the 401 the backend sends when no refresh is possible.
func Unauthenticated() Reply {
	return Reply{Status: http.StatusUnauthorized, Body: map[string]any{"error": "Not authenticated", "needs_refresh": false}}
}

// Backend is a scripted stand-in for the score service.
//
// Each path replays its replies in order and repeats the last one. Unscripted paths answer 404.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  map[string][]Reply
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	requests []*http.Request
}

// NewBackend starts a [Backend] that is closed with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		replies:  map[string][]Reply{},
		handlers: map[string]http.HandlerFunc{},
		hits:     map[string]int{},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend's base URL.
func (b *Backend) URL() string { return b.Server.URL }

// On scripts the replies for path.
func (b *Backend) On(path string, replies ...Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[path] = replies
}

// OnFunc routes path to a custom handler.
func (b *Backend) OnFunc(path string, fn http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = fn
}

// Hits returns how many times path was requested.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// Requests returns a copy of every request received, in arrival order.
func (b *Backend) Requests() []*http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*http.Request(nil), b.requests...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	path := r.URL.Path
	n := b.hits[path]
	b.hits[path]++
	b.requests = append(b.requests, r.Clone(r.Context()))
	handler := b.handlers[path]
	script := b.replies[path]
	b.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	if len(script) == 0 {
		http.NotFound(w, r)
		return
	}

	reply := script[len(script)-1]
	if n < len(script) {
		reply = script[n]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	if reply.Body != nil {
		json.NewEncoder(w).Encode(reply.Body)
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
