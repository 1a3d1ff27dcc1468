package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSignedName(t *testing.T) {
	tests := map[string]string{
		"contract.pdf":        "contract-signed.pdf",
		"report.final.PDF":    "report.final-signed.PDF",
		"noext":               "noext-signed",
		"uploads/invoice.pdf": "invoice-signed.pdf",
		".pdf":                "document-signed.pdf",
	}
	for in, want := range tests {
		if got := SignedName(in); got != want {
			t.Errorf("SignedName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSuggestedName(t *testing.T) {
	got := SuggestedName(time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC))
	if got != "signed-documents-2024-03-07.zip" {
		t.Errorf("SuggestedName = %q", got)
	}
}

func TestGenerate(t *testing.T) {
	w := NewWriter()
	w.Modified = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{
		w.AddEntry("a-signed.pdf", []byte("first")),
		w.AddEntry("b-signed.pdf", []byte("second")),
		w.AddEntry("a-signed.pdf", []byte("third")),
	}
	if diff := cmp.Diff([]string{"a-signed.pdf", "b-signed.pdf", "a-signed (2).pdf"}, names); diff != "" {
		t.Errorf("entry names mismatch (-want +got):\n%s", diff)
	}
	if w.Len() != 3 {
		t.Errorf("Len() = %d, want 3", w.Len())
	}

	data, err := w.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}

	got := map[string]string{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		got[f.Name] = string(b)
		order = append(order, f.Name)
	}
	want := map[string]string{"a-signed.pdf": "first", "b-signed.pdf": "second", "a-signed (2).pdf": "third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("archive contents mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(names, order); diff != "" {
		t.Errorf("archive order mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateEmpty(t *testing.T) {
	data, err := NewWriter().Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Errorf("expected empty archive, got %d entries", len(zr.File))
	}
}
