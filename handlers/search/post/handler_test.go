package post

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devitsoftware/docs-assistant/db"
	"github.com/devitsoftware/docs-assistant/models"
)

type fakeEmbedder struct {
	embedding []float32
}

func (f fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.embedding, nil
}

func (f fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = f.embedding
	}
	return embeddings, nil
}

type fakeStore struct {
	chunks   []db.ChunkNearestResult
	lastArgs db.ChunkNearestArgs
}

func (f *fakeStore) ChunkNearest(ctx context.Context, args db.ChunkNearestArgs) ([]db.ChunkNearestResult, error) {
	f.lastArgs = args
	return f.chunks, nil
}

func TestHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	post := func(t *testing.T, h Handler, body models.SearchPostRequest) *httptest.ResponseRecorder {
		t.Helper()
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		r := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(buf))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("returns chunks with distances", func(t *testing.T) {
		store := &fakeStore{chunks: []db.ChunkNearestResult{
			{
				Chunk: db.Chunk{
					ID:      "docs/lably/labels.mdx--chunk-0",
					Tenant:  "lably",
					URL:     "https://docs.example.com/lably/labels",
					Title:   "Labels",
					Content: "Create a label.",
				},
				Distance: 0.25,
			},
		}}
		h := New(log, fakeEmbedder{embedding: []float32{0.1}}, store, 5)
		w := post(t, h, models.SearchPostRequest{Text: "how to create labels", Tenant: "lably"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp models.SearchPostResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		expected := models.SearchPostResponse{Results: []models.SearchResult{
			{
				ID:       "docs/lably/labels.mdx--chunk-0",
				Tenant:   "lably",
				URL:      "https://docs.example.com/lably/labels",
				Title:    "Labels",
				Content:  "Create a label.",
				Distance: 0.25,
			},
		}}
		if diff := cmp.Diff(expected, resp); diff != "" {
			t.Errorf("unexpected response: %v", diff)
		}
		if store.lastArgs.Tenant != "lably" {
			t.Errorf("expected tenant filter lably, got %q", store.lastArgs.Tenant)
		}
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		h := New(log, fakeEmbedder{}, &fakeStore{}, 5)
		w := post(t, h, models.SearchPostRequest{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("no matches returns an empty result list", func(t *testing.T) {
		h := New(log, fakeEmbedder{embedding: []float32{0.1}}, &fakeStore{}, 5)
		w := post(t, h, models.SearchPostRequest{Text: "anything"})
		var resp models.SearchPostResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Results == nil || len(resp.Results) != 0 {
			t.Errorf("expected an empty, non-null result list, got %#v", resp.Results)
		}
	})
}
