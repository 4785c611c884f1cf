package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Credentials accepted by the fake GLPI server.
const (
	AppToken  = "test-app-token"
	UserToken = "test-user-token"
)

var searchColumns = map[string]string{
	"1": "name",
	"2": "id",
	"5": "serial",
	"6": "otherserial",
}

// FakeGLPI emulates the subset of the GLPI REST API used by the gateway:
// sessions, search, item fetch, create and update.
type FakeGLPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	items    map[string]map[int]map[string]any
	nextID   int
	sessions map[string]bool
	opened   int
	failures map[string]int
	calls    map[string]int
}

// NewFakeGLPI starts a fake server that is closed when the test ends.
func NewFakeGLPI(t testing.TB) *FakeGLPI {
	t.Helper()
	f := &FakeGLPI{
		items:    map[string]map[int]map[string]any{},
		nextID:   100,
		sessions: map[string]bool{},
		failures: map[string]int{},
		calls:    map[string]int{},
	}

	r := chi.NewRouter()
	r.Get("/initSession", f.initSession)
	r.Group(func(r chi.Router) {
		r.Use(f.requireSession)
		r.Get("/killSession", f.killSession)
		r.Get("/search/{type}", f.search)
		r.Get("/{type}/{id}", f.fetch)
		r.Post("/{type}", f.create)
		r.Put("/{type}/{id}", f.update)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API base URL.
func (f *FakeGLPI) URL() string { return f.Server.URL }

// Seed stores an item and returns its id.
func (f *FakeGLPI) Seed(itemType string, fields map[string]any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(itemType, fields)
}

// Item returns a copy of a stored item, or nil.
func (f *FakeGLPI) Item(itemType string, id int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemType][id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// Count returns the number of stored items of a type.
func (f *FakeGLPI) Count(itemType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items[itemType])
}

// OpenSessions is the number of sessions initiated and not yet killed.
func (f *FakeGLPI) OpenSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// SessionsOpened is the total number of sessions ever initiated.
func (f *FakeGLPI) SessionsOpened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Calls returns how often an operation was served ("initSession",
// "killSession", "search", "fetch", "create", "update").
func (f *FakeGLPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// FailOn makes every later call of op answer with status.
func (f *FakeGLPI) FailOn(op string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = status
}

func (f *FakeGLPI) insertLocked(itemType string, fields map[string]any) int {
	f.nextID++
	id := f.nextID
	item := map[string]any{"id": id}
	for k, v := range fields {
		item[k] = v
	}
	if f.items[itemType] == nil {
		f.items[itemType] = map[int]map[string]any{}
	}
	f.items[itemType][id] = item
	return id
}

// fail records the call and reports whether an injected failure was sent.
func (f *FakeGLPI) fail(w http.ResponseWriter, op string) bool {
	f.mu.Lock()
	f.calls[op]++
	status, ok := f.failures[op]
	f.mu.Unlock()
	if !ok {
		return false
	}
	writeJSON(w, status, []string{"ERROR", "injected " + op + " failure"})
	return true
}

func (f *FakeGLPI) initSession(w http.ResponseWriter, r *http.Request) {
	if f.fail(w, "initSession") {
		return
	}
	if r.Header.Get("App-Token") != AppToken || r.Header.Get("Authorization") != "user_token "+UserToken {
		writeJSON(w, http.StatusUnauthorized, []string{"ERROR_GLPI_LOGIN_USER_TOKEN", "invalid user token"})
		return
	}
	f.mu.Lock()
	f.opened++
	token := fmt.Sprintf("session-%d", f.opened)
	f.sessions[token] = true
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"session_token": token})
}

func (f *FakeGLPI) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := f.sessions[r.Header.Get("Session-Token")]
		f.mu.Unlock()
		if r.Header.Get("App-Token") != AppToken || !ok {
			writeJSON(w, http.StatusUnauthorized, []string{"ERROR_SESSION_TOKEN_INVALID", "session_token seems invalid"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeGLPI) killSession(w http.ResponseWriter, r *http.Request) {
	if f.fail(w, "killSession") {
		return
	}
	f.mu.Lock()
	delete(f.sessions, r.Header.Get("Session-Token"))
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (f *FakeGLPI) search(w http.ResponseWriter, r *http.Request) {
	if f.fail(w, "search") {
		return
	}
	q := r.URL.Query()
	column, ok := searchColumns[q.Get("criteria[0][field]")]
	if !ok {
		writeJSON(w, http.StatusBadRequest, []string{"ERROR", "unknown search option"})
		return
	}
	want := strings.TrimSuffix(strings.TrimPrefix(q.Get("criteria[0][value]"), "^"), "$")
	optionKey := q.Get("criteria[0][field]")

	f.mu.Lock()
	items := f.items[chi.URLParam(r, "type")]
	ids := make([]int, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := []map[string]any{}
	for _, id := range ids {
		value := fmt.Sprint(items[id][column])
		if strings.EqualFold(value, want) {
			rows = append(rows, map[string]any{"2": id, optionKey: items[id][column]})
		}
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"totalcount": len(rows), "count": len(rows), "data": rows})
}

func (f *FakeGLPI) fetch(w http.ResponseWriter, r *http.Request) {
	if f.fail(w, "fetch") {
		return
	}
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	item := f.Item(chi.URLParam(r, "type"), id)
	if item == nil {
		writeJSON(w, http.StatusNotFound, []string{"ERROR_ITEM_NOT_FOUND", "Item not found"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (f *FakeGLPI) create(w http.ResponseWriter, r *http.Request) {
	if f.fail(w, "create") {
		return
	}
	var body struct {
		Input map[string]any `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Input == nil {
		writeJSON(w, http.StatusBadRequest, []string{"ERROR_BAD_ARRAY", "input expected"})
		return
	}
	f.mu.Lock()
	id := f.insertLocked(chi.URLParam(r, "type"), body.Input)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "message": ""})
}

func (f *FakeGLPI) update(w http.ResponseWriter, r *http.Request) {
	if f.fail(w, "update") {
		return
	}
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var body struct {
		Input map[string]any `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Input == nil {
		writeJSON(w, http.StatusBadRequest, []string{"ERROR_BAD_ARRAY", "input expected"})
		return
	}
	f.mu.Lock()
	item, ok := f.items[chi.URLParam(r, "type")][id]
	if ok {
		for k, v := range body.Input {
			item[k] = v
		}
	}
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, []string{"ERROR_ITEM_NOT_FOUND", "Item not found"})
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{{strconv.Itoa(id): true, "message": ""}})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
