// Package estest is an in-memory stand-in for the subset of the
// Elasticsearch HTTP API used by the ingester: index create and delete,
// bulk indexing, and counts.
package estest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type index struct {
	mapping json.RawMessage
	docs    map[string]json.RawMessage
	nextID  int
}

// Server holds indices in memory. The zero value is not usable; call New.
type Server struct {
	apiKey string

	mu      sync.Mutex
	indices map[string]*index
}

// New returns an empty server. When apiKey is non-empty every request must
// carry "Authorization: ApiKey <apiKey>".
func New(apiKey string) *Server {
	return &Server{apiKey: apiKey, indices: make(map[string]*index)}
}

// Handler routes the supported endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.info)
	mux.HandleFunc("PUT /{index}", s.createIndex)
	mux.HandleFunc("DELETE /{index}", s.deleteIndex)
	mux.HandleFunc("POST /_bulk", s.bulk)
	mux.HandleFunc("PUT /_bulk", s.bulk)
	mux.HandleFunc("GET /{index}/_count", s.count)
	mux.HandleFunc("POST /{index}/_count", s.count)
	return s.authenticate(mux)
}

// Count returns the number of documents in name, or -1 if it does not exist.
func (s *Server) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		return -1
	}
	return len(idx.docs)
}

// Mapping returns the body an index was created with.
func (s *Server) Mapping(name string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indices[name]; ok {
		return idx.mapping
	}
	return nil
}

// Indices lists existing index names.
func (s *Server) Indices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.indices))
	for name := range s.indices {
		names = append(names, name)
	}
	return names
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if s.apiKey != "" && !s.authorized(r.Header.Get("Authorization")) {
			writeError(w, http.StatusUnauthorized, "security_exception", "missing authentication credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized accepts "ApiKey <key>" with the scheme matched
// case-insensitively, as Elasticsearch does.
func (s *Server) authorized(header string) bool {
	scheme, key, ok := strings.Cut(header, " ")
	return ok && strings.EqualFold(scheme, "ApiKey") && key == s.apiKey
}

func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         "estest",
		"cluster_name": "opsguard-local",
		"version":      map[string]any{"number": "8.15.0", "build_flavor": "serverless"},
		"tagline":      "You Know, for Search",
	})
}

func (s *Server) createIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("index")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(body, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "parse_exception", "request body is not a JSON object")
			return
		}
		if _, ok := doc["settings"]; ok {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "settings are not available in serverless mode")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; ok {
		writeError(w, http.StatusBadRequest, "resource_already_exists_exception", fmt.Sprintf("index [%s] already exists", name))
		return
	}
	s.indices[name] = &index{mapping: body, docs: make(map[string]json.RawMessage)}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "shards_acknowledged": true, "index": name})
}

func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("index")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception", fmt.Sprintf("no such index [%s]", name))
		return
	}
	delete(s.indices, name)
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkItem struct {
	Index   string         `json:"_index"`
	ID      string         `json:"_id,omitempty"`
	Result  string         `json:"result,omitempty"`
	Status  int            `json:"status"`
	Error   map[string]any `json:"error,omitempty"`
	Version int            `json:"_version,omitempty"`
}

func (s *Server) bulk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		items     []map[string]bulkItem
		hasErrors bool
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var action map[string]bulkMeta
		if err := json.Unmarshal(line, &action); err != nil || len(action) != 1 {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "malformed action/metadata line")
			return
		}
		var (
			op   string
			meta bulkMeta
		)
		for k, v := range action {
			op, meta = k, v
		}
		if op != "index" && op != "create" {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", fmt.Sprintf("unsupported action [%s]", op))
			return
		}
		if !scanner.Scan() {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "action line without document")
			return
		}
		doc := bytes.Clone(bytes.TrimSpace(scanner.Bytes()))

		item := s.indexDocument(op, meta, doc)
		if item.Status >= 300 {
			hasErrors = true
		}
		items = append(items, map[string]bulkItem{op: item})
	}
	if err := scanner.Err(); err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"took":   time.Since(start).Milliseconds(),
		"errors": hasErrors,
		"items":  items,
	})
}

// indexDocument stores doc; the caller holds s.mu.
func (s *Server) indexDocument(op string, meta bulkMeta, doc []byte) bulkItem {
	item := bulkItem{Index: meta.Index, ID: meta.ID}
	if meta.Index == "" {
		item.Status = http.StatusBadRequest
		item.Error = errorBody("action_request_validation_exception", "index is missing")
		return item
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		item.Status = http.StatusBadRequest
		item.Error = errorBody("document_parsing_exception", "failed to parse document")
		return item
	}

	idx, ok := s.indices[meta.Index]
	if !ok {
		idx = &index{docs: make(map[string]json.RawMessage)}
		s.indices[meta.Index] = idx
	}
	if item.ID == "" {
		idx.nextID++
		item.ID = fmt.Sprintf("auto-%d", idx.nextID)
	}
	if _, exists := idx.docs[item.ID]; exists {
		if op == "create" {
			item.Status = http.StatusConflict
			item.Error = errorBody("version_conflict_engine_exception", "document already exists")
			return item
		}
		item.Status = http.StatusOK
		item.Result = "updated"
	} else {
		item.Status = http.StatusCreated
		item.Result = "created"
	}
	idx.docs[item.ID] = doc
	item.Version = 1
	return item
}

func (s *Server) count(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("index")

	s.mu.Lock()
	idx, ok := s.indices[name]
	var n int
	if ok {
		n = len(idx.docs)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception", fmt.Sprintf("no such index [%s]", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   n,
		"_shards": map[string]int{"total": 1, "successful": 1, "skipped": 0, "failed": 0},
	})
}

func errorBody(kind, reason string) map[string]any {
	return map[string]any{"type": kind, "reason": reason}
}

func writeError(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"root_cause": []any{errorBody(kind, reason)}, "type": kind, "reason": reason},
		"status": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
