// Package s3fake provides an in-memory, path-style S3 endpoint for tests.
package s3fake

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Server serves GetObject and PutObject for path-style requests of the form
// /bucket/key. Objects live in memory.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	objects map[string][]byte
}

// NewServer starts a server. Callers must Close it.
func NewServer() *Server {
	s := &Server{objects: make(map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Object returns the stored body of bucket/key.
func (s *Server) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[bucket+"/"+key]
	return b, ok
}

// SetObject stores body under bucket/key.
func (s *Server) SetObject(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
}

// Keys returns the number of stored objects.
func (s *Server) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type errorResponse struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket == "" || key == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "path-style bucket/key required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		s.SetObject(bucket, key, body)
		w.Header().Set("ETag", fmt.Sprintf("%q", strconv.Itoa(len(body))))
		w.WriteHeader(http.StatusOK)

	case http.MethodGet, http.MethodHead:
		body, ok := s.Object(bucket, key)
		if !ok {
			writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}

	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", r.Method)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_ = xml.NewEncoder(w).Encode(errorResponse{Code: code, Message: msg})
}
