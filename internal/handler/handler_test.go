package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/acodylabs/platform/internal/llm"
	"github.com/acodylabs/platform/internal/middleware"
	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/notify"
	"github.com/acodylabs/platform/internal/service"
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
)

// testIdentity injects the caller identity the auth middleware would
// have extracted from a bearer token.
func testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, middleware.UserIDKey, r.Header.Get("X-Test-User"))
		ctx = context.WithValue(ctx, middleware.RoleKey, model.Role(r.Header.Get("X-Test-Role")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type testEnv struct {
	router *chi.Mux
	store  *store.Memory
}

// scriptedModel feeds canned output through the provider interface.
type scriptedModel struct {
	fragments  []string
	completion string
	err        error
}

func (s *scriptedModel) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.completion, Model: "scripted"}, nil
}

func (s *scriptedModel) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	var full strings.Builder
	for i, frag := range s.fragments {
		if err := callback(frag, i); err != nil {
			return nil, err
		}
		full.WriteString(frag)
	}
	return &llm.CompletionResponse{Content: full.String(), Model: "scripted"}, nil
}

func (s *scriptedModel) Name() string { return "scripted" }

// newTestEnv wires the full API surface against the in-memory store,
// with auth swapped for the test identity shim.
func newTestEnv(client llm.Client) *testEnv {
	log := logger.NewNop()
	m := store.NewMemory()
	n := notify.NewMemory()

	directorySvc := service.NewDirectory(m, n, log)
	streamSvc := service.NewStream(m, n, log)
	assistantSvc := service.NewAssistant(client, "", log)
	requestsSvc := service.NewRequests(m, log)

	threadHandler := NewThreadHandler(directorySvc, streamSvc, log)
	messageHandler := NewMessageHandler(streamSvc, log)
	assistantHandler := NewAssistantHandler(assistantSvc, log)
	requestHandler := NewRequestHandler(requestsSvc, log)
	accountHandler := NewAccountHandler(m, log)
	healthHandler := NewHealthHandler(m, nil)

	r := chi.NewRouter()
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(testIdentity)

		r.Route("/chat/threads", func(r chi.Router) {
			r.Get("/", threadHandler.List)
			r.Post("/resolve", threadHandler.Resolve)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
			})
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Post("/converse", assistantHandler.Converse)
			r.Post("/brief", assistantHandler.Brief)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Post("/estimate", assistantHandler.Estimate)
			})
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestHandler.Submit)
			r.Get("/", requestHandler.List)
			r.Get("/{id}", requestHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Put("/{id}/status", requestHandler.UpdateStatus)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))
			r.Get("/accounts", accountHandler.List)
		})
	})

	return &testEnv{router: r, store: m}
}

func (e *testEnv) seedAccounts() {
	e.store.PutAccount(&model.Account{ID: "client-1", Name: "Cleo Client", Role: model.RoleClient})
	e.store.PutAccount(&model.Account{ID: "admin-1", Name: "Amir Admin", Role: model.RoleAdmin})
}
