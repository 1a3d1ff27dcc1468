package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/archive"
	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/session"
	"go-stamppdf/internal/stamp"
	"go-stamppdf/internal/utils"
)

type signedFile struct {
	Source string `json:"source"`
	Entry  string `json:"entry"`
}

type failedFile struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type signAllResponse struct {
	DownloadURL   string       `json:"downloadUrl,omitempty"`
	SuggestedName string       `json:"suggestedName,omitempty"`
	Signed        []signedFile `json:"signed"`
	Failed        []failedFile `json:"failed"`
}

// SignAll godoc
// @Summary      Sign every uploaded PDF
// @Description  Stamps the processed signature onto the last page of every uploaded file, in order, and packages the results into a ZIP archive. Documents that fail are skipped and listed.
// @Tags         signature
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  signAllResponse
// @Failure      404  {string}  string  "Session not found"
// @Failure      409  {string}  string  "No signature, no documents, editor not opened or signing in progress"
// @Failure      422  {object}  signAllResponse  "No document could be signed"
// @Router       /api/sessions/{sessionID}/actions/sign-all [post]
func (h *APIHandler) SignAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	job, err := h.buildJob(sess)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.BeginSign(); err != nil {
		http.Error(w, "Signing already in progress", http.StatusConflict)
		return
	}
	output := ""
	defer func() { sess.FinishSign(output) }()

	report, err := h.Stamper.StampAll(r.Context(), job)
	if apperr.IsCancelled(err) {
		// The client went away; nothing to report to.
		log.Printf("Signing cancelled for session %s after %d document(s)", sess.ID, len(report.Results))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp := signAllResponse{Signed: []signedFile{}, Failed: []failedFile{}}
	for _, f := range report.Failures {
		resp.Failed = append(resp.Failed, failedFile{Source: f.FileName, Error: f.Err.Error()})
	}
	if len(report.Results) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	zw := archive.NewWriter()
	for _, res := range report.Results {
		entry := zw.AddEntry(archive.SignedName(res.FileName), res.Bytes)
		resp.Signed = append(resp.Signed, signedFile{Source: res.FileName, Entry: entry})
	}
	data, err := zw.Generate()
	if err != nil {
		log.Printf("Error generating archive: %v", err)
		http.Error(w, "Failed to generate archive", http.StatusInternalServerError)
		return
	}

	outputFilename := fmt.Sprintf("signed-%s.zip", utils.GenerateUUID())
	outputPath := filepath.Join(h.OutputDir, outputFilename)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Printf("Error saving archive: %v", err)
		http.Error(w, "Failed to save archive", http.StatusInternalServerError)
		return
	}
	output = outputPath

	resp.DownloadURL = fmt.Sprintf("/api/sessions/%s/files/%s", sess.ID, outputFilename)
	resp.SuggestedName = archive.SuggestedName(h.Now())
	writeJSON(w, http.StatusOK, resp)
}

// buildJob checks the session preconditions and snapshots its state.
func (h *APIHandler) buildJob(sess *session.Session) (stamp.Job, error) {
	asset := sess.GetSignature()
	if asset == nil {
		return stamp.Job{}, apperr.Precondition("no signature loaded")
	}
	files := sess.GetFiles()
	if len(files) == 0 {
		return stamp.Job{}, apperr.Precondition("no documents selected")
	}
	ref, opened := sess.GetReference()
	if !opened {
		return stamp.Job{}, apperr.Precondition("editor not opened")
	}

	data, mime, err := asset.Encoded()
	if err != nil {
		return stamp.Job{}, apperr.New(apperr.ErrEmbed, "encode signature", err)
	}
	format, err := pdf.FormatFromMIME(mime)
	if err != nil {
		return stamp.Job{}, apperr.New(apperr.ErrEmbed, "encode signature", err)
	}

	targets := make([]stamp.Target, 0, len(files))
	for _, f := range files {
		targets = append(targets, stamp.FileTarget(f.Name, f.Path))
	}
	return stamp.Job{
		Targets:   targets,
		Signature: stamp.Signature{Data: data, Format: format},
		Placement: sess.GetPlacement(),
		Reference: ref,
	}, nil
}
