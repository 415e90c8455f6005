package main

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderFlags selects and configures the embedding and completion provider.
// The embedding model must stay pinned to the one used at sync time, or the
// stored vectors become meaningless.
type ProviderFlags struct {
	Provider       string `help:"The model provider to use." env:"MODEL_PROVIDER" default:"openai" enum:"openai,ollama"`
	OpenAIAPIKey   string `help:"The OpenAI API key." env:"OPENAI_API_KEY" default:""`
	OllamaURL      string `help:"The URL of the Ollama server." env:"OLLAMA_URL" default:"http://127.0.0.1:11434/"`
	EmbeddingModel string `help:"The model to use for embeddings." env:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	ChatModel      string `help:"The model to answer with." env:"CHAT_MODEL" default:"gpt-4o-mini"`
}

func (p ProviderFlags) newEmbedder(httpClient *http.Client) (embeddings.Embedder, error) {
	switch p.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithEmbeddingModel(p.EmbeddingModel),
			openai.WithHTTPClient(httpClient),
		}
		if p.OpenAIAPIKey != "" {
			opts = append(opts, openai.WithToken(p.OpenAIAPIKey))
		}
		ec, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding client: %w", err)
		}
		return embeddings.NewEmbedder(ec)
	case "ollama":
		ec, err := ollama.New(
			ollama.WithModel(p.EmbeddingModel),
			ollama.WithHTTPClient(httpClient),
			ollama.WithServerURL(p.OllamaURL))
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding client: %w", err)
		}
		return embeddings.NewEmbedder(ec)
	}
	return nil, fmt.Errorf("unknown provider %q", p.Provider)
}

func (p ProviderFlags) newChatModel(httpClient *http.Client) (llms.Model, error) {
	switch p.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithModel(p.ChatModel),
			openai.WithHTTPClient(httpClient),
		}
		if p.OpenAIAPIKey != "" {
			opts = append(opts, openai.WithToken(p.OpenAIAPIKey))
		}
		return openai.New(opts...)
	case "ollama":
		return ollama.New(
			ollama.WithModel(p.ChatModel),
			ollama.WithHTTPClient(httpClient),
			ollama.WithServerURL(p.OllamaURL))
	}
	return nil, fmt.Errorf("unknown provider %q", p.Provider)
}
