package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rqlite/gorqlite"
	"github.com/rs/cors"

	"github.com/devitsoftware/docs-assistant/db"
	chatpost "github.com/devitsoftware/docs-assistant/handlers/chat/post"
	searchpost "github.com/devitsoftware/docs-assistant/handlers/search/post"
)

type ServeCommand struct {
	ProviderFlags  `embed:""`
	RqliteURL      string `help:"The URL of the rqlite server." env:"RQLITE_URL" default:"http://localhost:4001"`
	SystemPrompt   string `help:"A file containing the system prompt template." env:"SYSTEM_PROMPT" default:""`
	TopK           int    `help:"The number of documentation chunks to retrieve per question." env:"TOP_K" default:"5"`
	HistoryWindow  int    `help:"The number of recent messages to send to the model." env:"HISTORY_WINDOW" default:"5"`
	RewriteURLFrom string `help:"Citation URL prefix to replace on the way out." env:"REWRITE_URL_FROM" default:""`
	RewriteURLTo   string `help:"Replacement citation URL prefix." env:"REWRITE_URL_TO" default:""`
	ListenAddr     string `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:9000"`
	TLSCertFile    string `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile     string `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	LogLevel       string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

const systemPrompt = `You are a helpful assistant that answers questions about %s using the provided documentation context.
Use only the context to answer the question. If the answer is not in the context, say "I couldn't find that in the %[1]s docs" and suggest what to ask next. Keep answers concise and include URLs when applicable.

Context:
%[2]s`

func readFileOrDefault(filename, defaultContent string) (string, error) {
	if filename == "" {
		return defaultContent, nil
	}
	contents, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return string(contents), nil
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	promptTemplate, err := readFileOrDefault(c.SystemPrompt, systemPrompt)
	if err != nil {
		return fmt.Errorf("failed to read system prompt: %w", err)
	}

	log.Info("connecting to database", slog.String("url", c.RqliteURL))
	databaseURL, err := db.ParseRqliteURL(c.RqliteURL)
	if err != nil {
		return fmt.Errorf("failed to parse rqlite URL: %w", err)
	}
	log.Info("opening database connection", slog.String("url", databaseURL.DataSourceName()))
	conn, err := gorqlite.Open(databaseURL.DataSourceName())
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer conn.Close()
	queries := db.New(conn)

	log.Info("migrating database schema", slog.String("url", databaseURL.MigrateDatabaseURL()))
	if err = db.Migrate(databaseURL); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("creating model clients", slog.String("provider", c.Provider))
	httpClient := &http.Client{}
	emb, err := c.newEmbedder(httpClient)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	llm, err := c.newChatModel(httpClient)
	if err != nil {
		return fmt.Errorf("failed to create LLM: %w", err)
	}

	mux := http.NewServeMux()

	cph := chatpost.New(log, emb, llm, queries, chatpost.Options{
		TopK:          c.TopK,
		HistoryWindow: c.HistoryWindow,
		SystemPrompt:  promptTemplate,
		RewriteFrom:   c.RewriteURLFrom,
		RewriteTo:     c.RewriteURLTo,
	})
	mux.Handle("POST /api/chat", cph)

	sph := searchpost.New(log, emb, queries, c.TopK)
	mux.Handle("POST /api/search", sph)

	withCORSMux := cors.AllowAll().Handler(mux)

	log.Info("Listening", slog.String("addr", c.ListenAddr))
	s := &http.Server{
		Addr:    c.ListenAddr,
		Handler: withCORSMux,
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		return s.ListenAndServeTLS(c.TLSCertFile, c.TLSKeyFile)
	}
	return s.ListenAndServe()
}
