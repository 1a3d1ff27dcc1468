package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/signature"
	"go-stamppdf/internal/utils"
)

// validExtensions lists the accepted file extensions per sniffed content type.
var validExtensions = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
	"image/bmp":  {".bmp"},
	"image/tiff": {".tif", ".tiff"},
}

// detectImageType extends http.DetectContentType with TIFF, which it does not sniff.
func detectImageType(header []byte) string {
	if bytes.HasPrefix(header, []byte("II*\x00")) || bytes.HasPrefix(header, []byte("MM\x00*")) {
		return "image/tiff"
	}
	return http.DetectContentType(header)
}

// UploadSignature godoc
// @Summary      Upload a signature image
// @Description  Uploads the signature image (PNG, JPEG, GIF, WebP, BMP or TIFF). Replaces any previous signature.
// @Tags         signature
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Param        signature  formData  file    true  "Signature image file"
// @Success      200  {object}  map[string]interface{}  "{ filename: string, size: int, width: int, height: int, format: string }"
// @Failure      400  {string}  string  "Bad request - invalid image format"
// @Failure      404  {string}  string  "Session not found"
// @Failure      422  {string}  string  "Image cannot be decoded"
// @Router       /api/sessions/{sessionID}/signature [post]
func (h *APIHandler) UploadSignature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxSignatureUpload)
	if err := r.ParseMultipartForm(h.MaxSignatureUpload); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("signature")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	allowedExt := false
	for _, exts := range validExtensions {
		if slices.Contains(exts, ext) {
			allowedExt = true
		}
	}
	if !allowedExt {
		http.Error(w, "Only PNG, JPEG, GIF, WebP, BMP and TIFF images are allowed", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	contentType := detectImageType(data[:min(len(data), 512)])
	extensions, ok := validExtensions[contentType]
	if !ok {
		http.Error(w, "Invalid image format", http.StatusBadRequest)
		return
	}
	// Additional security check: verify extension matches detected content type
	if !slices.Contains(extensions, ext) {
		http.Error(w, "File extension doesn't match content type", http.StatusBadRequest)
		return
	}

	asset, err := signature.Decode(data)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.SetSignature(asset)

	b := asset.Bounds()
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": utils.SanitizeFilename(handler.Filename),
		"size":     handler.Size,
		"width":    b.Dx(),
		"height":   b.Dy(),
		"format":   asset.Format(),
	})
}

// GetSignature godoc
// @Summary      Get the processed signature
// @Description  Returns the current processed signature as PNG
// @Tags         signature
// @Produce      image/png
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {file}    file    "PNG image"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No signature loaded"
// @Router       /api/sessions/{sessionID}/signature [get]
func (h *APIHandler) GetSignature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	asset := sess.GetSignature()
	if asset == nil {
		writeError(w, apperr.Precondition("no signature loaded"))
		return
	}
	data, err := signature.EncodePNG(asset.Processed())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", signature.MIMEPNG)
	w.Write(data)
}

// RemoveBackground godoc
// @Summary      Remove the signature background
// @Description  Makes every pixel whose red, green and blue are all at or above the tolerance transparent. Repeated calls compound.
// @Tags         signature
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        request    body  object  true  "{ tolerance: int (0-255) }"
// @Success      200  {object}  map[string]interface{}  "{ modified: bool, tolerance: int }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No signature loaded"
// @Router       /api/sessions/{sessionID}/signature/actions/remove-background [post]
func (h *APIHandler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Tolerance *int `json:"tolerance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tolerance == nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if *req.Tolerance < 0 || *req.Tolerance > 255 {
		http.Error(w, "Tolerance must be between 0 and 255", http.StatusBadRequest)
		return
	}
	asset := sess.GetSignature()
	if asset == nil {
		writeError(w, apperr.Precondition("no signature loaded"))
		return
	}
	asset.RemoveBackground(*req.Tolerance)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"modified": %t, "tolerance": %d}`, asset.Modified(), *req.Tolerance)
}

// RestoreSignature godoc
// @Summary      Restore the original signature
// @Description  Discards background removal
// @Tags         signature
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  map[string]bool  "{ modified: false }"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No signature loaded"
// @Router       /api/sessions/{sessionID}/signature/actions/restore [post]
func (h *APIHandler) RestoreSignature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	asset := sess.GetSignature()
	if asset == nil {
		writeError(w, apperr.Precondition("no signature loaded"))
		return
	}
	asset.Restore()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"modified": %t}`, asset.Modified())
}
