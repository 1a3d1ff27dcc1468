// Package server sets up the HTTP server and registers API routes for go-stamppdf.
//
// RegisterRoutes returns an http.Handler with all API endpoints for sessions,
// signature editing and batch stamping.
//
// Expected outputs:
// - All API endpoints are available under /api/sessions
// - CORS and logging middleware are enabled
//
// See the swagger document at /swagger/ for endpoint details.
package server

import (
	"net"
	"net/http"

	_ "go-stamppdf/docs"
	"go-stamppdf/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Only allow requests from localhost to /swagger/*
func localhostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))
	r.With(localhostOnly).Get("/swagger/*", httpSwagger.WrapHandler)
	h := handlers.NewAPIHandler(s.SessionManager, s.Config, s.Store)
	r.Route("/api/sessions", func(api chi.Router) {
		api.Post("/", h.CreateSession)

		api.Post("/{sessionID}/files", h.UploadFile)
		api.Put("/{sessionID}/order", h.UpdateOrder)
		api.Get("/{sessionID}/files/{filename}", h.DownloadFile)

		api.Post("/{sessionID}/signature", h.UploadSignature)
		api.Get("/{sessionID}/signature", h.GetSignature)
		api.Post("/{sessionID}/signature/actions/remove-background", h.RemoveBackground)
		api.Post("/{sessionID}/signature/actions/restore", h.RestoreSignature)

		api.Post("/{sessionID}/editor", h.OpenEditor)
		api.Get("/{sessionID}/placement", h.GetPlacement)
		api.Put("/{sessionID}/placement", h.SetPlacement)
		api.Post("/{sessionID}/placement/actions/drag", h.DragPlacement)
		api.Post("/{sessionID}/placement/actions/scale", h.ScalePlacement)
		api.Post("/{sessionID}/placement/actions/rotate", h.RotatePlacement)
		api.Post("/{sessionID}/placement/actions/save", h.SavePlacement)
		api.Get("/{sessionID}/preview", h.Preview)

		api.Post("/{sessionID}/actions/sign-all", h.SignAll)
	})

	return r
}
