// Package testutil provides testing utilities for the People client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/people-finder/pkg/people"
)

// MockPage is one page served by the list endpoint.
type MockPage struct {
	IDs       []people.ID
	NextToken string
}

// MockResponse overrides the answer for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPeople is a configurable mock of the People service. Pages are chained
// by token: the first page is served without a token, each following page
// under the previous page's NextToken.
type MockPeople struct {
	server *httptest.Server

	mu        sync.RWMutex
	pages     map[string]MockPage
	people    map[people.ID]people.Person
	overrides map[string]MockResponse
	handlers  map[string]http.HandlerFunc

	// Tracking
	listCalls    int
	detailCalls  map[people.ID]int
	lastHeaders  http.Header
	requestCount int
}

// NewMockPeople creates and starts a mock People server.
func NewMockPeople() *MockPeople {
	mock := &MockPeople{
		pages:       make(map[string]MockPage),
		people:      make(map[people.ID]people.Person),
		overrides:   make(map[string]MockResponse),
		handlers:    make(map[string]http.HandlerFunc),
		detailCalls: make(map[people.ID]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockPeople) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPeople) Close() {
	m.server.Close()
}

// SetPages installs a chain of pages. Tokens between pages are taken from
// each page's NextToken; the last page should have none.
func (m *MockPeople) SetPages(pages ...MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pages = make(map[string]MockPage, len(pages))
	token := ""
	for _, p := range pages {
		m.pages[token] = p
		token = p.NextToken
	}
}

// AddPeople registers detail records.
func (m *MockPeople) AddPeople(persons ...people.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range persons {
		m.people[p.ID] = p
	}
}

// SetResponse overrides the response for an exact request path
// (e.g. "/sample/detail/2").
func (m *MockPeople) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = resp
}

// SetHandler installs a custom handler for an exact request path.
func (m *MockPeople) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// ListCalls returns the number of list requests served.
func (m *MockPeople) ListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCalls
}

// DetailCalls returns the number of detail requests for id.
func (m *MockPeople) DetailCalls(id people.ID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detailCalls[id]
}

// RequestCount returns the total number of requests served.
func (m *MockPeople) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPeople) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeaders
}

func (m *MockPeople) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.lastHeaders = r.Header.Clone()
	if r.URL.Path == "/sample/list" {
		m.listCalls++
	}
	if idStr, ok := strings.CutPrefix(r.URL.Path, "/sample/detail/"); ok {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			m.detailCalls[people.ID(id)]++
		}
	}
	override, hasOverride := m.overrides[r.URL.Path]
	handler, hasHandler := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if hasHandler {
		handler(w, r)
		return
	}
	if hasOverride {
		writeOverride(w, override)
		return
	}

	switch {
	case r.URL.Path == "/sample/list":
		m.handleList(w, r)
	case strings.HasPrefix(r.URL.Path, "/sample/detail/"):
		m.handleDetail(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockPeople) handleList(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	m.mu.RLock()
	page, ok := m.pages[token]
	m.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown token %q", token)})
		return
	}

	payload := map[string]any{"result": page.IDs}
	if page.NextToken != "" {
		payload["token"] = page.NextToken
	}
	writeJSON(w, http.StatusOK, payload)
}

func (m *MockPeople) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/sample/detail/"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	m.mu.RLock()
	person, ok := m.people[people.ID(id)]
	m.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func writeOverride(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":  retryAfter,
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 response with an undecodable body.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"result": `,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
