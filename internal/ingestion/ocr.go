package ingestion

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// extractOCR runs Tesseract over an image, or over every page of a scanned
// PDF after rasterizing it with pdftoppm (poppler).
func extractOCR(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return runTesseract(path)
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if err := exec.Command("pdftoppm", "-png", path, prefix).Run(); err != nil {
		return "", fmt.Errorf("pdftoppm convert failed: %w", err)
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", err
	}

	var combined strings.Builder
	for _, page := range pages {
		text, err := runTesseract(page)
		if err != nil {
			continue
		}
		combined.WriteString(text)
		combined.WriteString("\n")
	}
	return strings.TrimSpace(combined.String()), nil
}

func runTesseract(imgPath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetImage(imgPath); err != nil {
		return "", err
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
