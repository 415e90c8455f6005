package post

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/respond"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/devitsoftware/docs-assistant/db"
	"github.com/devitsoftware/docs-assistant/models"
	"github.com/devitsoftware/docs-assistant/tenant"
)

// ChunkSearcher finds the stored chunks nearest to a query embedding.
type ChunkSearcher interface {
	ChunkNearest(ctx context.Context, args db.ChunkNearestArgs) ([]db.ChunkNearestResult, error)
}

func New(log *slog.Logger, embedder embeddings.Embedder, store ChunkSearcher, topK int) Handler {
	return Handler{
		log:      log,
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Handler returns the chunks that retrieval would ground an answer on, without
// involving the chat model. Used to inspect what the assistant can see.
type Handler struct {
	log      *slog.Logger
	embedder embeddings.Embedder
	store    ChunkSearcher
	topK     int
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.SearchPostRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithError(w, "failed to decode body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		respond.WithError(w, "no text provided", http.StatusBadRequest)
		return
	}

	tc := tenant.Resolve(req.Tenant)

	embedding, err := h.embedder.EmbedQuery(r.Context(), req.Text)
	if err != nil {
		h.log.Error("failed to embed query", slog.Any("error", err))
		respond.WithError(w, "failed to embed query", http.StatusInternalServerError)
		return
	}

	chunks, err := h.store.ChunkNearest(r.Context(), db.ChunkNearestArgs{
		Tenant:    string(tc.Key),
		Embedding: embedding,
		Limit:     h.topK,
	})
	if err != nil {
		h.log.Error("failed to find nearest chunks", slog.Any("error", err))
		respond.WithError(w, "failed to find nearest chunks", http.StatusInternalServerError)
		return
	}

	resp := models.SearchPostResponse{
		Results: make([]models.SearchResult, len(chunks)),
	}
	for i, chunk := range chunks {
		resp.Results[i] = models.SearchResult{
			ID:       chunk.ID,
			Tenant:   chunk.Tenant,
			URL:      chunk.URL,
			Title:    chunk.Title,
			Content:  chunk.Content,
			Distance: chunk.Distance,
		}
	}
	respond.WithJSON(w, resp, http.StatusOK)
}
