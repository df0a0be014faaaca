// Package apitest provides a fake suasor API server for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/logging"
)

// Server routes requests by method and exact path and counts calls
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
}

// New starts a Server that is closed when t finishes
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func route(method, path string) string { return method + " " + path }

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	key := route(r.Method, r.URL.EscapedPath())
	s.mu.Lock()
	s.calls[key]++
	h, ok := s.handlers[key]
	s.mu.Unlock()

	if !ok {
		WriteError(w, http.StatusNotFound, "no route for "+key)
		return
	}
	h(w, r)
}

// Handle registers h for method and path
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	s.handlers[route(method, path)] = h
	s.mu.Unlock()
}

// JSON answers method and path with {"data": data}
func (s *Server) JSON(method, path string, data any) {
	s.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteData(w, http.StatusOK, data)
	})
}

// Fail answers method and path with an error status
func (s *Server) Fail(method, path string, status int, msg string) {
	s.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, status, msg)
	})
}

// Calls returns how many requests hit method and path
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route(method, path)]
}

// Client returns an API client pointed at the server
func (s *Server) Client() *api.Client {
	return api.New(api.Config{BaseURL: s.URL}, api.WithLogger(logging.Discard()))
}

// WriteData writes a success envelope
func WriteData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// WriteError writes an error body
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg, "message": msg})
}
