package ingestion

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSupported(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"report.pdf", true},
		{"notes.txt", true},
		{"README.md", true},
		{"contract.docx", true},
		{"scan.PNG", true},
		{"photo.jpeg", true},
		{"archive.zip", false},
		{"noextension", false},
	}
	for _, c := range cases {
		if got := Supported(c.filename); got != c.want {
			t.Errorf("Supported(%q) = %v, want %v", c.filename, got, c.want)
		}
	}
}

func TestExtractTextPlain(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{".txt", ".md"} {
		path := filepath.Join(dir, "doc"+ext)
		content := "Hello from " + ext
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := ExtractText(path)
		if err != nil {
			t.Fatalf("ExtractText(%s): %v", ext, err)
		}
		if got != content {
			t.Errorf("ExtractText(%s) = %q, want %q", ext, got, content)
		}
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ExtractText(path)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("ExtractText(.bin) error = %v, want ErrUnsupportedType", err)
	}
}

func TestExtractDocx(t *testing.T) {
	const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

	path := writeDocx(t, documentXML)
	got, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "First paragraph\nSecond paragraph"
	if got != want {
		t.Errorf("ExtractText(docx) = %q, want %q", got, want)
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/styles.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("<styles/>")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = ExtractText(path)
	if err == nil || !strings.Contains(err.Error(), "word/document.xml") {
		t.Errorf("ExtractText(docx without document.xml) error = %v, want missing document.xml", err)
	}
}

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
