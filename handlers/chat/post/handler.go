package post

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/respond"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"github.com/devitsoftware/docs-assistant/db"
	"github.com/devitsoftware/docs-assistant/models"
	"github.com/devitsoftware/docs-assistant/prompt"
	"github.com/devitsoftware/docs-assistant/stream"
	"github.com/devitsoftware/docs-assistant/tenant"
)

const (
	maxTokens   = 500
	temperature = 0.1
)

// ChunkSearcher finds the stored chunks nearest to a query embedding.
type ChunkSearcher interface {
	ChunkNearest(ctx context.Context, args db.ChunkNearestArgs) ([]db.ChunkNearestResult, error)
}

type Options struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// HistoryWindow is the number of recent messages forwarded to the model.
	HistoryWindow int

	// SystemPrompt is a template taking the tenant display name and the
	// context block.
	SystemPrompt string

	// RewriteFrom/RewriteTo substitute the base of citation URLs on the way
	// out, e.g. to point citations at a staging docs site. Stored data is
	// never modified.
	RewriteFrom string
	RewriteTo   string
}

func New(log *slog.Logger, embedder embeddings.Embedder, llm llms.Model, store ChunkSearcher, opts Options) Handler {
	return Handler{
		log:      log,
		embedder: embedder,
		llm:      llm,
		store:    store,
		opts:     opts,
	}
}

type Handler struct {
	log      *slog.Logger
	embedder embeddings.Embedder
	llm      llms.Model
	store    ChunkSearcher
	opts     Options
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.ChatPostRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithError(w, "failed to decode body", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		respond.WithError(w, "no messages provided", http.StatusBadRequest)
		return
	}
	question, ok := prompt.LastUserMessage(req.Messages)
	if !ok {
		respond.WithError(w, "no user message found", http.StatusBadRequest)
		return
	}

	tc := tenant.Resolve(req.Tenant)
	log := h.log.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("tenant", string(tc.Key)),
	)
	log.Info("answering question", slog.Int("messages", len(req.Messages)))

	// The stream writer commits the response as 200, so request validation
	// must be complete. All failures from here on are in-stream error frames.
	sw := stream.NewWriter(w)
	ctx := r.Context()

	embedding, err := h.embedder.EmbedQuery(ctx, question)
	if err != nil {
		h.fail(sw, log, "embed", err)
		return
	}

	chunks, err := h.store.ChunkNearest(ctx, db.ChunkNearestArgs{
		Tenant:    string(tc.Key),
		Embedding: embedding,
		Limit:     h.opts.TopK,
	})
	if err != nil {
		h.fail(sw, log, "search", err)
		return
	}
	log.Info("retrieved context", slog.Int("chunks", len(chunks)))

	docs := make([]prompt.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = prompt.Document{
			Title:   chunk.Title,
			URL:     chunk.URL,
			Content: chunk.Content,
		}
	}
	system := prompt.System(h.opts.SystemPrompt, tc.DisplayName, prompt.ContextBlock(docs))
	history := prompt.Window(req.Messages, h.opts.HistoryWindow)

	msgs := make([]llms.MessageContent, 0, len(history)+1)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, m := range history {
		msgs = append(msgs, llms.TextParts(roleToMessageType(m.Role), m.Content))
	}

	f := func(ctx context.Context, chunk []byte) error {
		// Stop consuming and release the provider stream if the client has
		// gone away.
		if err := ctx.Err(); err != nil {
			return err
		}
		return sw.TextDelta(string(chunk))
	}
	resp, err := h.llm.GenerateContent(ctx, msgs,
		llms.WithStreamingFunc(f),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		h.fail(sw, log, "complete", err)
		return
	}

	if len(chunks) > 0 {
		sources := make([]stream.Source, len(chunks))
		for i, chunk := range chunks {
			url := h.rewriteURL(chunk.URL)
			sources[i] = stream.Source{
				URL:  url,
				Path: url,
				Metadata: stream.SourceMetadata{
					Title:  chunk.Title,
					ID:     chunk.ID,
					Tenant: chunk.Tenant,
				},
			}
		}
		if err = sw.Sources(sources); err != nil {
			log.Error("failed to write sources", slog.Any("error", err))
			return
		}
	}

	reason, usage := finishFromResponse(resp)
	if err = sw.Finish(reason, usage); err != nil {
		log.Error("failed to write finish frame", slog.Any("error", err))
	}
}

func (h Handler) fail(sw *stream.Writer, log *slog.Logger, stage string, err error) {
	log.Error("request failed", slog.String("stage", stage), slog.Any("error", err))
	if werr := sw.Error(err.Error()); werr != nil {
		log.Error("failed to write error frame", slog.Any("error", werr))
	}
}

func (h Handler) rewriteURL(u string) string {
	if h.opts.RewriteFrom == "" || !strings.HasPrefix(u, h.opts.RewriteFrom) {
		return u
	}
	return h.opts.RewriteTo + strings.TrimPrefix(u, h.opts.RewriteFrom)
}

func roleToMessageType(role models.ChatMessageRole) llms.ChatMessageType {
	switch role {
	case models.ChatMessageRoleSystem:
		return llms.ChatMessageTypeSystem
	case models.ChatMessageRoleAssistant:
		return llms.ChatMessageTypeAI
	case models.ChatMessageRoleUser:
		return llms.ChatMessageTypeHuman
	}
	return llms.ChatMessageTypeGeneric
}

func finishFromResponse(resp *llms.ContentResponse) (reason string, usage stream.Usage) {
	reason = "stop"
	if resp == nil || len(resp.Choices) == 0 {
		return reason, usage
	}
	choice := resp.Choices[0]
	if choice.StopReason != "" {
		reason = choice.StopReason
	}
	if n, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
		usage.PromptTokens = n
	}
	if n, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
		usage.CompletionTokens = n
	}
	return reason, usage
}
