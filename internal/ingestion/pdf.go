package ingestion

import (
	"bytes"
	"io"
	"os/exec"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// extractPDF reads the text layer of a PDF. When the library finds nothing
// (common with exotic encodings) it shells out to pdftotext if available.
// An empty result is not an error: the caller decides whether to OCR.
func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
		if err == nil {
			return strings.TrimSpace(string(out)), nil
		}
	}
	return text, nil
}
