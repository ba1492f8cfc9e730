// Package api provides HTTP handlers and the main API server logic for the
// caregiver support agent.
//
// It exposes endpoints for caregiver chat and for clock-in/clock-out event
// evaluation. The API composes the chat engine, the clock-event rule
// evaluator, the store and the coordinator notifier.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/chat"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/clockrules"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/conversation"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/genai"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/notify"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8000"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server bundles the API's dependencies behind its HTTP handlers.
type Server struct {
	engine    *chat.Engine
	evaluator *clockrules.Evaluator
	notifier  notify.Notifier
	addr      string
}

// NewServer creates an API server from already-constructed dependencies.
func NewServer(engine *chat.Engine, evaluator *clockrules.Evaluator, notifier notify.Notifier, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &Server{
		engine:    engine,
		evaluator: evaluator,
		notifier:  notifier,
		addr:      cfg.Addr,
	}
}

// Handler returns the server's routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.rootHandler)
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/clock-in", s.clockInHandler)
	mux.HandleFunc("/clock-out", s.clockOutHandler)
	mux.HandleFunc("/duplicate-call", s.duplicateCallHandler)
	return corsMiddleware(mux)
}

// corsMiddleware allows cross-origin requests from the web frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run builds the full dependency graph from options and serves the API.
// It blocks until the listener fails.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, convOpts []conversation.Option, notifyOpts []notify.Option, apiOpts []Option) error {
	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.SeedDemoData(st); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	// Generation is optional; without it every reply is scripted.
	var gen genai.ClientInterface
	if cli, err := genai.NewClient(genaiOpts...); err != nil {
		slog.Warn("api.Run: GenAI client unavailable, replies stay scripted", "error", err)
	} else {
		gen = cli
	}

	var notifier notify.Notifier
	tn, err := notify.NewTwilioNotifier(notifyOpts...)
	if err != nil {
		slog.Warn("api.Run: Twilio notifier unavailable, coordinator alerts disabled", "error", err)
		notifier = notify.NoopNotifier{}
	} else {
		notifier = tn
	}

	tracker := conversation.NewTracker(st, convOpts...)
	engine := chat.NewEngine(tracker, gen)
	evaluator := clockrules.NewEvaluator(st)

	srv := NewServer(engine, evaluator, notifier, apiOpts...)
	slog.Info("api.Run: caregiver agent API listening", "addr", srv.addr)
	return http.ListenAndServe(srv.addr, srv.Handler())
}

// buildStore selects a store backend from the configured DSN. Without a DSN,
// state stays in memory and is lost on restart.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("api.buildStore: using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("api.buildStore: using Postgres store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Debug("api.buildStore: using SQLite store", "path", cfg.DSN)
	return store.NewSQLiteStore(storeOpts...)
}
