package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for file extensions the pipeline cannot
// extract text from.
var ErrUnsupportedType = fmt.Errorf("unsupported file type")

// SupportedExtensions lists the file types the extractor handles, in the
// form used by upload validation (without the leading dot).
var SupportedExtensions = []string{"pdf", "txt", "md", "docx", "png", "jpg", "jpeg"}

// Supported reports whether the given filename has an extractable extension.
func Supported(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ExtractText returns the text content of the file at path, dispatching on
// extension. Scanned PDFs with no text layer fall back to OCR, as do image
// files.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ".pdf":
		text, err := extractPDF(path)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		return extractOCR(path)
	case ".docx":
		return extractDocx(path)
	case ".png", ".jpg", ".jpeg":
		return extractOCR(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}
