package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperjump/niteru/internal/config"
	"github.com/hyperjump/niteru/internal/models"
	"github.com/hyperjump/niteru/internal/vector"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, dimensions int) *Server {
	t.Helper()
	store, err := vector.NewStore(dimensions)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Store.Dimensions = dimensions
	return NewServer(store, cfg, zap.NewNop())
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestHandleUpsertAndSearch(t *testing.T) {
	srv := newTestServer(t, 2)
	router := srv.Router()

	ids := make(map[string]string)
	for name, emb := range map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	} {
		w := postJSON(t, router, "/api/v1/vectors", models.UpsertRequest{Embedding: emb})
		if w.Code != http.StatusCreated {
			t.Fatalf("upsert %s: status %d: %s", name, w.Code, w.Body.String())
		}
		var out struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		ids[name] = out.ID
	}

	w := postJSON(t, router, "/api/v1/search", models.SearchQuery{Embedding: []float32{1, 0}, Limit: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("search: status %d: %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", resp)
	}
	if resp.Results[0].ID != ids["a"] {
		t.Errorf("top result: got %s, want %s", resp.Results[0].ID, ids["a"])
	}
	if resp.Results[1].ID != ids["c"] {
		t.Errorf("second result: got %s, want %s", resp.Results[1].ID, ids["c"])
	}
	if resp.Results[0].Rank != 1 || resp.Results[1].Rank != 2 {
		t.Errorf("ranks: got %d, %d", resp.Results[0].Rank, resp.Results[1].Rank)
	}
	if resp.Results[0].Score < resp.Results[1].Score {
		t.Errorf("results not in descending score order: %+v", resp.Results)
	}
}

func TestHandleUpsert_ExplicitIDOverwrites(t *testing.T) {
	srv := newTestServer(t, 2)
	router := srv.Router()
	id := uuid.New().String()

	for _, emb := range [][]float32{{0, 1}, {1, 0}} {
		w := postJSON(t, router, "/api/v1/vectors", models.UpsertRequest{ID: id, Embedding: emb})
		if w.Code != http.StatusCreated {
			t.Fatalf("upsert: status %d: %s", w.Code, w.Body.String())
		}
	}
	if srv.store.Size() != 1 {
		t.Errorf("overwrite should keep a single entry, size=%d", srv.store.Size())
	}

	w := postJSON(t, router, "/api/v1/search", models.SearchQuery{Embedding: []float32{1, 0}, Limit: 1})
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Score < 0.9999 {
		t.Errorf("search should reflect only the new embedding: %+v", resp.Results)
	}
}

func TestHandleUpsert_BadRequests(t *testing.T) {
	srv := newTestServer(t, 3)
	router := srv.Router()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"invalid uuid", `{"id":"not-a-uuid","embedding":[1,0,0]}`},
		{"dimension mismatch", `{"embedding":[1,0]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/vectors", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
	if srv.store.Size() != 0 {
		t.Errorf("rejected inserts must leave the store unchanged, size=%d", srv.store.Size())
	}
}

func TestHandleSearch_BadRequests(t *testing.T) {
	srv := newTestServer(t, 3)
	router := srv.Router()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"empty embedding", `{"limit":5}`},
		{"dimension mismatch", `{"embedding":[1,0]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleSearch_EmptyStore(t *testing.T) {
	srv := newTestServer(t, 2)
	w := postJSON(t, srv.Router(), "/api/v1/search", models.SearchQuery{Embedding: []float32{1, 0}, Limit: 5})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 || len(resp.Results) != 0 {
		t.Errorf("empty store should return no results: %+v", resp)
	}
}

func TestHandleGetDelete(t *testing.T) {
	srv := newTestServer(t, 2)
	router := srv.Router()
	id := uuid.New().String()

	w := postJSON(t, router, "/api/v1/vectors", models.UpsertRequest{ID: id, Embedding: []float32{0.5, 0.5}})
	if w.Code != http.StatusCreated {
		t.Fatalf("upsert: status %d", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/vectors/%s", id), nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, r)
	if w2.Code != http.StatusOK {
		t.Fatalf("get: status %d", w2.Code)
	}
	var rec models.VectorRecord
	if err := json.NewDecoder(w2.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != id || len(rec.Embedding) != 2 {
		t.Errorf("get: unexpected record %+v", rec)
	}

	r = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/vectors/%s", id), nil)
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, r)
	if w3.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w3.Code)
	}

	r = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/vectors/%s", id), nil)
	w4 := httptest.NewRecorder()
	router.ServeHTTP(w4, r)
	if w4.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", w4.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, 4)
	_ = srv.store.Insert(uuid.New(), []float32{1, 0, 0, 0})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Vectors    int `json:"vectors"`
		Dimensions int `json:"dimensions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Vectors != 1 || out.Dimensions != 4 {
		t.Errorf("status: got %+v", out)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, 2)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
}
