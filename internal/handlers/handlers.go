// Package handlers provides HTTP handlers for the batch signature stamping API.
//
// This package contains the HTTP endpoints for session management, target
// PDF upload and ordering, the signature asset, the placement editor, the
// batch sign-all action and the archive download.
//
// Example usage:
//
//	h := handlers.NewAPIHandler(sessionManager, cfg, placementStore)
//	r := chi.NewRouter()
//	r.Post("/api/sessions/", h.CreateSession)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/archive"
	"go-stamppdf/internal/config"
	"go-stamppdf/internal/placement"
	"go-stamppdf/internal/session"
	"go-stamppdf/internal/stamp"
	"go-stamppdf/internal/store"
	"go-stamppdf/internal/utils"

	"github.com/go-chi/chi/v5"
)

type APIHandler struct {
	SessionManager     *session.SessionManager
	UploadDir          string
	OutputDir          string
	MaxPDFUpload       int64
	MaxSignatureUpload int64
	Profile            config.Profile
	Store              *store.Store
	Stamper            *stamp.Stamper
	// Now is the clock used for archive names.
	Now func() time.Time
}

func NewAPIHandler(sm *session.SessionManager, cfg *config.Config, st *store.Store) *APIHandler {
	return &APIHandler{
		SessionManager:     sm,
		UploadDir:          cfg.UploadDir,
		OutputDir:          cfg.OutputDir,
		MaxPDFUpload:       cfg.MaxPDFUpload,
		MaxSignatureUpload: cfg.MaxSignatureUpload,
		Profile:            cfg.Profile,
		Store:              st,
		Stamper:            stamp.New(cfg.Profile.Calibration, cfg.DocumentTimeout),
		Now:                time.Now,
	}
}

// CreateSession godoc
// @Summary      Create a new session
// @Description  Creates a new signing session and returns a session ID. The editor starts at the last saved placement.
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  map[string]string  "{ sessionId: string }"
// @Router       /api/sessions/ [post]
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.SessionManager.CreateSession(h.savedPlacement())
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"sessionId": "%s"}`, sess.ID)
}

// savedPlacement returns the persisted placement, or the configured default
// when nothing usable has been saved.
func (h *APIHandler) savedPlacement() placement.Placement {
	def := h.Profile.DefaultPlacement
	if h.Store == nil {
		return def
	}
	var p placement.Placement
	found, err := h.Store.Get(store.PlacementKey, &p)
	if err != nil {
		log.Printf("Error loading saved placement: %v", err)
		return def
	}
	if !found || !p.Valid() {
		return def
	}
	return p
}

// UploadFile godoc
// @Summary      Upload a PDF file
// @Description  Uploads a target PDF to the session. Files are signed in upload order unless reordered.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Param        pdf        formData  file    true  "PDF file"
// @Success      200  {object}  map[string]interface{}  "{ filename: string, size: int }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/files [post]
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxPDFUpload)
	if err := r.ParseMultipartForm(h.MaxPDFUpload); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("pdf")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sanitizeFilename := utils.SanitizeFilename(handler.Filename)
	if strings.ToLower(filepath.Ext(sanitizeFilename)) != ".pdf" {
		http.Error(w, "Only PDF files are allowed", http.StatusBadRequest)
		return
	}

	header := make([]byte, 5)
	if _, err := io.ReadFull(file, header); err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	if string(header) != "%PDF-" {
		http.Error(w, "Uploaded file is not a valid PDF", http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Failed to process file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s-%s", utils.GenerateUUID(), sanitizeFilename)
	path := filepath.Join(h.UploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		http.Error(w, "Failed to create file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	sess.AddFile(session.File{Path: path, Name: sanitizeFilename})
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"filename": "%s", "size": %d}`, filename, handler.Size)
}

// UpdateOrder godoc
// @Summary      Set file order
// @Description  Sets the order in which the uploaded files are signed. The list must name every uploaded file exactly once.
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Param        files      body      object  true  "{ files: [string] }"
// @Success      200  {object}  map[string]bool  "{ success: true }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/order [put]
func (h *APIHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var fileOrder struct {
		Files []string `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&fileOrder); err != nil {
		http.Error(w, "Invalid file order data", http.StatusBadRequest)
		return
	}
	currentFiles := sess.GetFiles()
	fileMap := make(map[string]session.File)
	for _, file := range currentFiles {
		fileMap[file.StoredName()] = file
	}
	if len(fileOrder.Files) != len(currentFiles) {
		http.Error(w, "Order must list every uploaded file", http.StatusBadRequest)
		return
	}
	ordered := make([]session.File, 0, len(fileOrder.Files))
	seen := make(map[string]bool)
	for _, name := range fileOrder.Files {
		file, exists := fileMap[name]
		if !exists || seen[name] {
			http.Error(w, "Invalid file in order list", http.StatusBadRequest)
			return
		}
		seen[name] = true
		ordered = append(ordered, file)
	}
	sess.SetFiles(ordered)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"success": true}`)
}

// DownloadFile godoc
// @Summary      Download signed documents
// @Description  Downloads the archive produced by the last sign-all action
// @Tags         files
// @Produce      application/zip
// @Param        sessionID  path      string  true  "Session ID"
// @Param        filename   path      string  true  "Archive filename"
// @Success      200  {file}  file  "ZIP archive download"
// @Failure      403  {string}  string  "Unauthorized access to file"
// @Failure      404  {string}  string  "Session or file not found"
// @Router       /api/sessions/{sessionID}/files/{filename} [get]
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	filename := chi.URLParam(r, "filename")
	path := filepath.Join(h.OutputDir, filepath.Base(filename))
	output := sess.GetOutputFile()
	if output == "" || output != path {
		http.Error(w, "Unauthorized access to file", http.StatusForbidden)
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.SuggestedName(h.Now())))
	w.Header().Set("Content-Type", archive.MIMEType)
	http.ServeFile(w, r, path)
}

func (h *APIHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	s, exists := h.SessionManager.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrPrecondition):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrDecode), errors.Is(err, apperr.ErrEmbed), errors.Is(err, apperr.ErrGeometry):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	http.Error(w, err.Error(), status)
}

// writeJSON encodes v before writing the header so an encoding failure
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
