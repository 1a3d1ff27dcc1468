// Package archive packages stamped documents into a single zip file.
//
// Functions:
//   - SignedName: derives the entry name of a stamped document.
//     Input: "contract.pdf". Output: "contract-signed.pdf".
//   - SuggestedName: the file name offered when the archive is downloaded.
//   - Writer.AddEntry / Writer.Generate: collect named entries, then produce the zip bytes.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SignedSuffix is inserted between a document's base name and its extension.
const SignedSuffix = "-signed"

// MIMEType is the content type of a generated archive.
const MIMEType = "application/zip"

// SignedName replaces the extension of name with "-signed" plus the same extension.
func SignedName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "document"
	}
	return stem + SignedSuffix + ext
}

// SuggestedName returns the download name for an archive created at t.
func SuggestedName(t time.Time) string {
	return fmt.Sprintf("signed-documents-%s.zip", t.Format("2006-01-02"))
}

type entry struct {
	name string
	data []byte
}

// Writer accumulates entries in insertion order.
type Writer struct {
	entries []entry
	names   map[string]int
	// Modified is stamped on every entry; zero means the time of Generate.
	Modified time.Time
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{names: make(map[string]int)}
}

// AddEntry queues data under name and returns the name actually used.
// Names already taken get a numeric suffix ("a-signed (2).pdf").
func (w *Writer) AddEntry(name string, data []byte) string {
	if w.names == nil {
		w.names = make(map[string]int)
	}
	unique := name
	if n := w.names[name]; n > 0 {
		ext := filepath.Ext(name)
		for {
			n++
			unique = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
			if w.names[unique] == 0 {
				break
			}
		}
		w.names[name] = n
	}
	w.names[unique]++
	w.entries = append(w.entries, entry{name: unique, data: data})
	return unique
}

// Len reports the number of queued entries.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Generate writes all entries into one deflate-compressed zip.
func (w *Writer) Generate() ([]byte, error) {
	modified := w.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range w.entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: modified}
		f, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
