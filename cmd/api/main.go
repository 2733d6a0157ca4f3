// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/config"
	"github.com/acodylabs/platform/internal/handler"
	"github.com/acodylabs/platform/internal/llm"
	"github.com/acodylabs/platform/internal/middleware"
	"github.com/acodylabs/platform/internal/model"
	natsclient "github.com/acodylabs/platform/internal/nats"
	"github.com/acodylabs/platform/internal/notify"
	"github.com/acodylabs/platform/internal/service"
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect the document store. Without a Mongo URI the server runs
	// on the in-memory store, which is only suitable for development.
	var st store.Store
	if cfg.MongoURI != "" {
		mongo, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			log.Error("failed to connect to MongoDB", zap.Error(err))
			os.Exit(1)
		}
		defer mongo.Close(context.Background())
		st = mongo
	} else {
		log.Warn("MONGO_URI not set, using in-memory store")
		st = store.NewMemory()
	}

	// Connect the notification fan-out. Without a NATS URL updates only
	// reach subscribers on this instance.
	var notifier notify.Notifier
	var natsConn *natsclient.Client
	if cfg.NATSURL != "" {
		natsConn, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsConn.Close()
		notifier = notify.NewNATS(natsConn, log)
	} else {
		log.Warn("NATS_URL not set, using in-process notifier")
		notifier = notify.NewMemory()
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, assistant disabled", zap.Error(err))
		}
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI client, assistant disabled", zap.Error(err))
		}
	}

	// Initialize services
	directorySvc := service.NewDirectory(st, notifier, log)
	streamSvc := service.NewStream(st, notifier, log)
	assistantSvc := service.NewAssistant(llmClient, cfg.LLMModel, log)
	requestsSvc := service.NewRequests(st, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, connected(natsConn))
	threadHandler := handler.NewThreadHandler(directorySvc, streamSvc, log)
	messageHandler := handler.NewMessageHandler(streamSvc, log)
	wsHandler := handler.NewWSHandler(directorySvc, streamSvc, log)
	assistantHandler := handler.NewAssistantHandler(assistantSvc, log)
	requestHandler := handler.NewRequestHandler(requestsSvc, log)
	accountHandler := handler.NewAccountHandler(st, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Chat
		r.Route("/chat", func(r chi.Router) {
			r.Get("/ws", wsHandler.Session)

			r.Route("/threads", func(r chi.Router) {
				r.Get("/", threadHandler.List)
				r.Post("/resolve", threadHandler.Resolve)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/messages", messageHandler.List)
					r.Post("/messages", messageHandler.Send)
				})
			})
		})

		// Assistant
		r.Route("/assistant", func(r chi.Router) {
			r.Post("/converse", assistantHandler.Converse)
			r.Post("/brief", assistantHandler.Brief)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Post("/estimate", assistantHandler.Estimate)
			})
		})

		// Project requests
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestHandler.Submit)
			r.Get("/", requestHandler.List)
			r.Get("/{id}", requestHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Put("/{id}/status", requestHandler.UpdateStatus)
			})
		})

		// Account roster (staff only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))
			r.Get("/accounts", accountHandler.List)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// connected avoids handing the health handler a typed-nil interface
// when NATS is not configured.
func connected(c *natsclient.Client) handler.Connected {
	if c == nil {
		return nil
	}
	return c
}
