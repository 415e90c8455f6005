package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/rqlite/gorqlite"
	"github.com/tmc/langchaingo/textsplitter"
	"gopkg.in/yaml.v3"

	"github.com/devitsoftware/docs-assistant/db"
	"github.com/devitsoftware/docs-assistant/tenant"
)

type SyncCommand struct {
	ProviderFlags `embed:""`
	RqliteURL     string `help:"The URL of the rqlite server." env:"RQLITE_URL" default:"http://localhost:4001"`
	RepoRawBase   string `help:"The base URL for raw markdown files, e.g. https://raw.githubusercontent.com/org/repo/main/." env:"REPO_RAW_BASE" default:""`
	IndexURL      string `help:"A URL returning relative doc paths, one per line." env:"REPO_INDEX_URL" default:""`
	Manifest      string `help:"A YAML file listing relative doc paths, used instead of the index URL." env:"SYNC_MANIFEST" default:""`
	DocsBaseURL   string `help:"The base URL of the published docs site, used for citation URLs." env:"DOCS_BASE_URL" default:""`
	ChunkSize     int    `help:"The target chunk size in characters." env:"CHUNK_SIZE" default:"1200"`
	ChunkOverlap  int    `help:"The overlap between chunks in characters." env:"CHUNK_OVERLAP" default:"200"`
	DryRun        bool   `help:"Do not write chunks to the store." env:"DRY_RUN" default:"false"`
	LogLevel      string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c SyncCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	if c.RepoRawBase == "" {
		return fmt.Errorf("no repo raw base URL provided")
	}
	if c.DocsBaseURL == "" {
		return fmt.Errorf("no docs base URL provided")
	}

	paths, err := c.listDocPaths(ctx)
	if err != nil {
		return fmt.Errorf("failed to list doc paths: %w", err)
	}
	log.Info("syncing documentation", slog.Int("docs", len(paths)))

	databaseURL, err := db.ParseRqliteURL(c.RqliteURL)
	if err != nil {
		return fmt.Errorf("failed to parse rqlite URL: %w", err)
	}
	conn, err := gorqlite.Open(databaseURL.DataSourceName())
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer conn.Close()
	queries := db.New(conn)
	if err = db.Migrate(databaseURL); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	emb, err := c.newEmbedder(&http.Client{})
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(c.ChunkSize),
		textsplitter.WithChunkOverlap(c.ChunkOverlap),
	)

	var totalChunks int
	for _, relPath := range paths {
		if err = ctx.Err(); err != nil {
			return err
		}
		docLog := log.With(slog.String("path", relPath))

		content, err := c.fetchMarkdown(ctx, relPath)
		if err != nil {
			docLog.Warn("failed to fetch doc, skipping", slog.Any("error", err))
			continue
		}

		texts, err := splitter.SplitText(content)
		if err != nil {
			return fmt.Errorf("failed to split %s: %w", relPath, err)
		}
		embeddings, err := emb.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", relPath, err)
		}
		if len(texts) != len(embeddings) {
			return fmt.Errorf("split/embedding mismatch for %s: %d texts, %d embeddings", relPath, len(texts), len(embeddings))
		}

		key := tenantFromPath(relPath)
		url := docSiteURL(relPath, c.DocsBaseURL)
		title := docTitle(relPath)
		chunks := make([]db.Chunk, len(texts))
		for i := range texts {
			chunks[i] = db.Chunk{
				ID:        fmt.Sprintf("%s--chunk-%d", relPath, i),
				Tenant:    string(key),
				URL:       url,
				Title:     title,
				Content:   texts[i],
				Embedding: embeddings[i],
			}
		}

		docLog.Info("upserting chunks", slog.Int("chunks", len(chunks)), slog.String("tenant", string(key)), slog.String("url", url))
		if c.DryRun {
			docLog.Info("skipping upsert in dry run mode")
			continue
		}
		if err = queries.ChunkUpsert(ctx, db.ChunkUpsertArgs{DocPath: relPath, Chunks: chunks}); err != nil {
			return fmt.Errorf("failed to upsert chunks for %s: %w", relPath, err)
		}
		totalChunks += len(chunks)
	}
	log.Info("sync complete", slog.Int("docs", len(paths)), slog.Int("chunks", totalChunks))
	return nil
}

type syncManifest struct {
	Docs []string `yaml:"docs"`
}

func (c SyncCommand) listDocPaths(ctx context.Context) (paths []string, err error) {
	if c.Manifest != "" {
		f, err := os.Open(c.Manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		defer f.Close()
		var m syncManifest
		if err = yaml.NewDecoder(f).Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode manifest: %w", err)
		}
		return m.Docs, nil
	}
	if c.IndexURL == "" {
		return nil, fmt.Errorf("no manifest or index URL provided")
	}
	body, err := get(ctx, c.IndexURL)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func (c SyncCommand) fetchMarkdown(ctx context.Context, relPath string) (string, error) {
	return get(ctx, strings.TrimSuffix(c.RepoRawBase, "/")+"/"+relPath)
}

func get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return string(body), nil
}

// tenantFromPath derives the tenant from the first path segment under docs/,
// e.g. docs/selecty/getting-started.mdx belongs to selecty. Paths outside a
// known tenant are stored unscoped, so only unfiltered searches find them.
func tenantFromPath(relPath string) tenant.Key {
	rest, ok := strings.CutPrefix(relPath, "docs/")
	if !ok {
		return tenant.KeyNone
	}
	segment, _, ok := strings.Cut(rest, "/")
	if !ok {
		return tenant.KeyNone
	}
	tc := tenant.Resolve(segment)
	return tc.Key
}

// docSiteURL converts a repo-relative doc path to its published docs site URL:
// the docs/ prefix and markdown extension are dropped, and index pages resolve
// to their section root.
func docSiteURL(relPath, base string) string {
	p := strings.TrimPrefix(relPath, "docs/")
	p = strings.TrimSuffix(p, ".mdx")
	p = strings.TrimSuffix(p, ".md")
	if trimmed, ok := strings.CutSuffix(p, "/index"); ok {
		p = trimmed
	}
	return strings.TrimSuffix(base, "/") + "/" + p
}

func docTitle(relPath string) string {
	name := path.Base(relPath)
	name = strings.TrimSuffix(name, ".mdx")
	return strings.TrimSuffix(name, ".md")
}
