// Package server provides the HTTP server setup for go-stamppdf.
//
// NewServer creates and configures the HTTP server, session manager, placement
// store and file directories.
//
// Expected outputs:
// - Server listens on the configured port (default 8080)
// - Idle sessions and their files are cleaned up periodically
//
// Usage:
//
//	cfg, _ := config.Load()
//	server, _ := server.NewServer(cfg)
//	server.ListenAndServe()
//
// See internal/server/routes.go for route registration.
package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go-stamppdf/internal/config"
	"go-stamppdf/internal/session"
	"go-stamppdf/internal/store"
)

type Server struct {
	port           int
	Config         *config.Config
	SessionManager *session.SessionManager
	Store          *store.Store
	UploadDir      string
	OutputDir      string
}

func NewServer(cfg *config.Config) (*http.Server, error) {
	srv, err := newServer(cfg)
	if err != nil {
		return nil, err
	}

	// Cleanup goroutine for idle sessions/files
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if n := srv.SessionManager.Sweep(cfg.SessionTTL); n > 0 {
				log.Printf("Removed %d idle session(s)", n)
			}
		}
	}()

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", srv.port),
		Handler:     srv.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 30 * time.Second,
		// sign-all answers only after the whole batch is stamped
		WriteTimeout: 10 * time.Minute,
	}

	return server, nil
}

func newServer(cfg *config.Config) (*Server, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return nil, err
	}
	return &Server{
		port:           cfg.Port,
		Config:         cfg,
		SessionManager: session.NewSessionManager(),
		Store:          st,
		UploadDir:      cfg.UploadDir,
		OutputDir:      cfg.OutputDir,
	}, nil
}
