package handlers

import (
	"encoding/json"
	"image"
	"net/http"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/geometry"
	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/placement"
	"go-stamppdf/internal/preview"
	"go-stamppdf/internal/signature"
	"go-stamppdf/internal/store"
)

type placementResponse struct {
	Placement placement.Placement `json:"placement"`
	Degrees   float64             `json:"degrees"`
}

type editorResponse struct {
	File          string                     `json:"file"`
	Reference     geometry.ReferenceGeometry `json:"reference"`
	DisplayWidth  int                        `json:"displayWidth"`
	DisplayHeight int                        `json:"displayHeight"`
	Placement     placement.Placement        `json:"placement"`
}

// OpenEditor godoc
// @Summary      Open the placement editor
// @Description  Resolves the reference geometry from page 1 of the first uploaded file. Calling it again recomputes the geometry.
// @Tags         editor
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  editorResponse
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No signature or no documents"
// @Failure      422  {string}  string  "Reference document cannot be read"
// @Router       /api/sessions/{sessionID}/editor [post]
func (h *APIHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	files := sess.GetFiles()
	if len(files) == 0 {
		writeError(w, apperr.Precondition("no documents selected"))
		return
	}
	if sess.GetSignature() == nil {
		writeError(w, apperr.Precondition("no signature loaded"))
		return
	}

	doc, err := pdf.LoadFile(files[0].Path)
	if err != nil {
		writeError(w, err)
		return
	}
	vp, err := doc.Viewport(1)
	if err != nil {
		writeError(w, err)
		return
	}
	ref, err := geometry.ResolveReference(vp, h.Profile.Scale)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.SetReference(ref)

	dw, dh := ref.DisplaySize()
	writeJSON(w, http.StatusOK, editorResponse{
		File:          files[0].Name,
		Reference:     ref,
		DisplayWidth:  dw,
		DisplayHeight: dh,
		Placement:     sess.GetPlacement(),
	})
}

// GetPlacement godoc
// @Summary      Get the placement
// @Description  Returns the signature placement in display pixels and its rotation normalized to [0, 360)
// @Tags         editor
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  placementResponse
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/placement [get]
func (h *APIHandler) GetPlacement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	writePlacement(w, sess.GetPlacement())
}

// SetPlacement godoc
// @Summary      Replace the placement
// @Description  Overwrites the whole placement record
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        placement  body  placement.Placement  true  "Placement"
// @Success      200  {object}  placementResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      422  {string}  string  "Degenerate size"
// @Router       /api/sessions/{sessionID}/placement [put]
func (h *APIHandler) SetPlacement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var p placement.Placement
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if !p.Valid() {
		writeError(w, apperr.Geometry("set placement", "size %vx%v", p.W, p.H))
		return
	}
	p = p.Clamp(h.Profile.MinSignatureSize)
	sess.SetPlacement(p)
	writePlacement(w, p)
}

// DragPlacement godoc
// @Summary      Move the signature
// @Description  Sets the top-left corner. The client subtracts its grab offset first.
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        request    body  object  true  "{ x: number, y: number }"
// @Success      200  {object}  placementResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/placement/actions/drag [post]
func (h *APIHandler) DragPlacement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var req struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.X == nil || req.Y == nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	p := sess.UpdatePlacement(func(p placement.Placement) placement.Placement {
		return p.Drag(*req.X, *req.Y)
	})
	writePlacement(w, p)
}

// ScalePlacement godoc
// @Summary      Scale the signature about its center
// @Description  Applies an explicit factor or a named step: in, out (buttons) or wheel-in, wheel-out
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        request    body  object  true  "{ factor: number } or { step: string }"
// @Success      200  {object}  placementResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Failure      422  {string}  string  "Scaled size out of range"
// @Router       /api/sessions/{sessionID}/placement/actions/scale [post]
func (h *APIHandler) ScalePlacement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Factor *float64 `json:"factor"`
		Step   string   `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	var factor float64
	switch {
	case req.Factor != nil:
		factor = *req.Factor
	case req.Step != "":
		f, known := h.Profile.Steps().ScaleFactor(req.Step)
		if !known {
			http.Error(w, "Unknown scale step", http.StatusBadRequest)
			return
		}
		factor = f
	}
	if !(factor > 0) {
		http.Error(w, "Scale factor must be positive", http.StatusBadRequest)
		return
	}
	minSize := h.Profile.MinSignatureSize
	rejected := false
	p := sess.UpdatePlacement(func(p placement.Placement) placement.Placement {
		next := p.ScaleAboutCenter(factor).Clamp(minSize)
		if !next.Valid() {
			rejected = true
			return p
		}
		return next
	})
	if rejected {
		writeError(w, apperr.Geometry("scale placement", "factor %v gives an invalid size", factor))
		return
	}
	writePlacement(w, p)
}

// RotatePlacement godoc
// @Summary      Rotate the signature about its center
// @Description  Applies an explicit delta in degrees (clockwise) or a named step: left, right, fine-left, fine-right
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Param        request    body  object  true  "{ delta: number } or { step: string }"
// @Success      200  {object}  placementResponse
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/placement/actions/rotate [post]
func (h *APIHandler) RotatePlacement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Delta *float64 `json:"delta"`
		Step  string   `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	var delta float64
	switch {
	case req.Delta != nil:
		delta = *req.Delta
	case req.Step != "":
		d, known := h.Profile.Steps().RotateDelta(req.Step)
		if !known {
			http.Error(w, "Unknown rotate step", http.StatusBadRequest)
			return
		}
		delta = d
	default:
		http.Error(w, "Missing delta or step", http.StatusBadRequest)
		return
	}
	p := sess.UpdatePlacement(func(p placement.Placement) placement.Placement {
		return p.Rotate(delta)
	})
	writePlacement(w, p)
}

// SavePlacement godoc
// @Summary      Save the placement
// @Description  Persists the current placement; new sessions start from it
// @Tags         editor
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  placementResponse
// @Failure      404  {string}  string  "Session not found"
// @Router       /api/sessions/{sessionID}/placement/actions/save [post]
func (h *APIHandler) SavePlacement(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	p := sess.GetPlacement()
	if h.Store == nil {
		http.Error(w, "Placement store not configured", http.StatusInternalServerError)
		return
	}
	if err := h.Store.Put(store.PlacementKey, p); err != nil {
		writeError(w, err)
		return
	}
	writePlacement(w, p)
}

// Preview godoc
// @Summary      Render the editor preview
// @Description  Returns a PNG of the reference page at display size with the processed signature at the current placement
// @Tags         editor
// @Produce      image/png
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {file}    file    "PNG image"
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "Editor not opened"
// @Router       /api/sessions/{sessionID}/preview [get]
func (h *APIHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	ref, opened := sess.GetReference()
	if !opened {
		writeError(w, apperr.Precondition("editor not opened"))
		return
	}
	var sig image.Image
	if asset := sess.GetSignature(); asset != nil {
		sig = asset.Processed()
	}
	img, err := preview.Render(ref, sig, sess.GetPlacement())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := signature.EncodePNG(img)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", signature.MIMEPNG)
	w.Write(data)
}

func writePlacement(w http.ResponseWriter, p placement.Placement) {
	writeJSON(w, http.StatusOK, placementResponse{Placement: p, Degrees: p.Degrees()})
}
