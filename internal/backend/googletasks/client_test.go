package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tasks "google.golang.org/api/tasks/v1"

	"taskledger/internal/tasklist"
)

// fakeTasksAPI serves the subset of the Google Tasks REST API the client uses.
type fakeTasksAPI struct {
	mu     sync.Mutex
	lists  []*tasks.TaskList
	tasks  map[string][]*tasks.Task
	nextID int

	// Status, if set, is returned for every request.
	Status int
}

func newFakeTasksAPI() *fakeTasksAPI {
	return &fakeTasksAPI{tasks: make(map[string][]*tasks.Task)}
}

func (f *fakeTasksAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeTasksAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &tasks.TaskLists{Items: f.lists})
	})
	mux.HandleFunc("POST /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		var l tasks.TaskList
		json.NewDecoder(r.Body).Decode(&l)
		l.Id = f.id("list")
		f.lists = append(f.lists, &l)
		writeJSON(w, &l)
	})
	mux.HandleFunc("GET /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &tasks.Tasks{Items: f.tasks[r.PathValue("list")]})
	})
	mux.HandleFunc("POST /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		var t tasks.Task
		json.NewDecoder(r.Body).Decode(&t)
		t.Id = f.id("task")
		list := r.PathValue("list")
		f.tasks[list] = append(f.tasks[list], &t)
		writeJSON(w, &t)
	})
	mux.HandleFunc("PATCH /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		var patch tasks.Task
		json.NewDecoder(r.Body).Decode(&patch)
		for _, t := range f.tasks[r.PathValue("list")] {
			if t.Id == r.PathValue("task") {
				t.Title = patch.Title
				t.Status = patch.Status
				writeJSON(w, t)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("DELETE /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		list := r.PathValue("list")
		for i, t := range f.tasks[list] {
			if t.Id == r.PathValue("task") {
				f.tasks[list] = append(f.tasks[list][:i], f.tasks[list][i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.Status != 0 {
			http.Error(w, `{"error":{"code":401,"message":"unauthorized"}}`, f.Status)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeTasksAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(context.Background(), srv.Client(), srv.URL+"/")
	if err != nil {
		t.Fatalf("NewWithHTTPClient failed: %v", err)
	}
	return c
}

func TestSync_CreatesListAndMirrors(t *testing.T) {
	api := newFakeTasksAPI()
	c := newTestClient(t, api)
	ctx := context.Background()

	l := tasklist.TaskList{
		TaskCount: 3,
		Tasks: []tasklist.Task{
			{ID: 0, Description: "buy milk"},
			{ID: 2, Description: "call mom", Completed: true},
		},
	}
	r, err := c.Sync(ctx, "taskledger", l)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !r.Created || r.Inserted != 2 || r.Patched != 0 || r.Deleted != 0 {
		t.Errorf("unexpected report %+v", r)
	}

	remote := api.tasks[r.ListID]
	if len(remote) != 2 {
		t.Fatalf("expected 2 remote tasks, got %d", len(remote))
	}
	if remote[1].Title != "call mom" || remote[1].Status != StatusCompleted || remote[1].Notes != Marker(2) {
		t.Errorf("unexpected remote task %+v", remote[1])
	}

	// Second sync after local changes reuses the list.
	l.Tasks = l.Tasks[1:]
	r, err = c.Sync(ctx, "TaskLedger ", l)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if r.Created || r.Inserted != 0 || r.Deleted != 1 {
		t.Errorf("unexpected second report %+v", r)
	}
	if len(api.lists) != 1 {
		t.Errorf("expected one remote list, got %d", len(api.lists))
	}
}

func TestSync_AuthError(t *testing.T) {
	api := newFakeTasksAPI()
	api.Status = http.StatusUnauthorized
	c := newTestClient(t, api)

	_, err := c.Sync(context.Background(), "taskledger", tasklist.TaskList{})
	if !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestEnsureList_Ambiguous(t *testing.T) {
	api := newFakeTasksAPI()
	api.lists = []*tasks.TaskList{{Id: "a", Title: "Chores"}, {Id: "b", Title: "chores"}}
	c := newTestClient(t, api)

	if _, _, err := c.EnsureList(context.Background(), "chores"); !errors.Is(err, ErrAmbiguousList) {
		t.Errorf("expected ErrAmbiguousList, got %v", err)
	}
}
