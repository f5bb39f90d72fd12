// Package fetchertest provides an in-memory HTTP server for simulating
// chunk serving in orchestrator tests: slow, failing, or delayed chunk
// responses without a real network dependency.
//
// Grounded on the original's integration_tests/src/sim_downloader.rs and
// sim_patching.rs simulation harness (SPEC_FULL.md supplement 6).
package fetchertest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Server is a programmable chunk server for tests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	chunks   map[string][]byte
	delays   map[string]time.Duration
	failN    map[string]int // number of times to fail before succeeding
	attempts map[string]int
}

// New starts a Server. Register content with Set before issuing requests.
func New() *Server {
	s := &Server{
		chunks:   make(map[string][]byte),
		delays:   make(map[string]time.Duration),
		failN:    make(map[string]int),
		attempts: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Set registers the payload served for a given download name.
func (s *Server) Set(downloadName string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[downloadName] = payload
}

// Delay makes requests for downloadName sleep d before responding, used
// to simulate a slow chunk (spec §8 S2).
func (s *Server) Delay(downloadName string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[downloadName] = d
}

// FailNTimes makes the first n requests for downloadName return 500
// before falling back to the registered payload (spec §8 S3).
func (s *Server) FailNTimes(downloadName string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failN[downloadName] = n
}

// BaseURL returns the chunk_base_url to pass to fetcher.New.
func (s *Server) BaseURL() string {
	return s.Server.URL
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}

	s.mu.Lock()
	delay := s.delays[name]
	payload, ok := s.chunks[name]
	s.attempts[name]++
	attempt := s.attempts[name]
	failN := s.failN[name]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if attempt <= failN {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// Attempts returns how many requests downloadName has received so far.
func (s *Server) Attempts(downloadName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[downloadName]
}
