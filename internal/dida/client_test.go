package dida_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jgao/tickplan/internal/auth"
	"github.com/jgao/tickplan/internal/dida"
)

// fakeTokens hands out tokens from a fixed list, advancing on Invalidate.
type fakeTokens struct {
	mu            sync.Mutex
	tokens        []string
	idx           int
	invalidations int
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[f.idx], nil
}

func (f *fakeTokens) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
	if f.idx < len(f.tokens)-1 {
		f.idx++
	}
}

func newClient(t *testing.T, handler http.HandlerFunc, tokens *fakeTokens) (*dida.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if tokens == nil {
		tokens = &fakeTokens{tokens: []string{"tok-1"}}
	}
	client := dida.NewClient(srv.URL, "inbox-1", tokens, slog.New(slog.NewTextHandler(io.Discard, nil)),
		dida.WithRetryDelay(time.Millisecond))
	return client, srv
}

func TestCreateTask_EmptyTitleNeverReachesNetwork(t *testing.T) {
	hits := 0
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	}, nil)

	_, err := client.CreateTask(context.Background(), dida.TaskDraft{Title: "   "})
	var verr *dida.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "title", verr.Field)
	require.Zero(t, hits)
}

func TestCreateTask_DefaultsToInboxProject(t *testing.T) {
	var got map[string]any
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/task", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(dida.Task{ID: "t-1", ProjectID: "inbox-1", Title: "Read docs"})
	}, nil)

	due := time.Date(2026, 8, 24, 0, 0, 0, 0, time.FixedZone("CST", 8*3600))
	task, err := client.CreateTask(context.Background(), dida.TaskDraft{
		Title:    "Read docs",
		Content:  "chapter 1",
		ParentID: "parent-1",
		DueAt:    due,
		TimeZone: "Asia/Shanghai",
		AllDay:   true,
	})
	require.NoError(t, err)
	require.Equal(t, "t-1", task.ID)

	require.Equal(t, "inbox-1", got["projectId"])
	require.Equal(t, "parent-1", got["parentId"])
	require.Equal(t, "2026-08-24T00:00:00+08:00", got["dueDate"])
	require.Equal(t, "Asia/Shanghai", got["timeZone"])
	require.Equal(t, true, got["isAllDay"])
}

func TestCreateTask_MissingIDIsRejected(t *testing.T) {
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"title": "no id here"})
	}, nil)

	_, err := client.CreateTask(context.Background(), dida.TaskDraft{Title: "x"})
	var apiErr *dida.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, dida.KindRejected, apiErr.Kind)
}

func TestDo_SingleUnauthorizedRefreshesAndRetries(t *testing.T) {
	tokens := &fakeTokens{tokens: []string{"stale", "fresh"}}
	requests := 0
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(dida.Task{ID: "t-1", Title: "x"})
	}, tokens)

	task, err := client.CreateTask(context.Background(), dida.TaskDraft{Title: "x"})
	require.NoError(t, err)
	require.Equal(t, "t-1", task.ID)
	require.Equal(t, 2, requests)
	require.Equal(t, 1, tokens.invalidations)
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	tokens := &fakeTokens{tokens: []string{"stale", "still-stale"}}
	requests := 0
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens)

	_, err := client.CreateTask(context.Background(), dida.TaskDraft{Title: "x"})
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, auth.ReasonReauthRequired, authErr.Reason)
	require.Equal(t, 2, requests, "no third attempt after the second 401")
}

func TestDo_TransientStatusRetriesWithBackoff(t *testing.T) {
	requests := 0
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(dida.Task{ID: "t-1", Title: "x"})
	}, nil)

	task, err := client.CreateTask(context.Background(), dida.TaskDraft{Title: "x"})
	require.NoError(t, err)
	require.Equal(t, "t-1", task.ID)
	require.Equal(t, 3, requests)
}

func TestDo_TransientRetriesExhausted(t *testing.T) {
	requests := 0
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	_, err := client.CreateTask(context.Background(), dida.TaskDraft{Title: "x"})
	var apiErr *dida.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, dida.KindTransient, apiErr.Kind)
	require.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	require.Equal(t, 3, requests)
}

func TestDo_ClientErrorIsRejectedWithoutRetry(t *testing.T) {
	requests := 0
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorCode":"task_not_found"}`))
	}, nil)

	err := client.DeleteTask(context.Background(), "missing")
	var apiErr *dida.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, dida.KindRejected, apiErr.Kind)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Contains(t, apiErr.Body, "task_not_found")
	require.Equal(t, 1, requests)
}

func TestDo_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	tokens := &fakeTokens{tokens: []string{"tok"}}
	client := dida.NewClient(srv.URL, "inbox-1", tokens, slog.New(slog.NewTextHandler(io.Discard, nil)),
		dida.WithRetryDelay(time.Millisecond))

	_, err := client.Projects(context.Background())
	var apiErr *dida.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, dida.KindTransient, apiErr.Kind)
}

func TestProjectTasks_DecodesEnvelope(t *testing.T) {
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/project/proj-1/data", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"project": map[string]string{"id": "proj-1", "name": "Work"},
			"tasks": []dida.Task{
				{ID: "t-1", Title: "first", Status: dida.StatusOpen},
				{ID: "t-2", Title: "second", Status: dida.StatusCompleted},
			},
			"columns": []any{},
		})
	}, nil)

	tasks, err := client.ProjectTasks(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "first", tasks[0].Title)
	require.True(t, tasks[1].Completed())
}

func TestInboxTasks_RequiresConfiguredInbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	t.Cleanup(srv.Close)
	tokens := &fakeTokens{tokens: []string{"tok"}}
	client := dida.NewClient(srv.URL, "", tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.InboxTasks(context.Background())
	var verr *dida.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "inbox_id", verr.Field)
}

func TestUpdateTask_SendsOnlyChangedFields(t *testing.T) {
	var got map[string]any
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/task/t-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(dida.Task{ID: "t-1", Title: "x", Status: dida.StatusCompleted})
	}, nil)

	status := dida.StatusCompleted
	task, err := client.UpdateTask(context.Background(), "t-1", dida.TaskPatch{Status: &status})
	require.NoError(t, err)
	require.True(t, task.Completed())

	require.Equal(t, float64(dida.StatusCompleted), got["status"])
	require.NotContains(t, got, "title")
	require.NotContains(t, got, "content")
}
