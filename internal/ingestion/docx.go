package ingestion

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// extractDocx pulls paragraph text out of word/document.xml inside the docx
// archive. Formatting is discarded; each paragraph becomes one line.
func extractDocx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return readDocxParagraphs(xml.NewDecoder(rc))
	}
	return "", fmt.Errorf("docx archive has no word/document.xml")
}

func readDocxParagraphs(dec *xml.Decoder) (string, error) {
	var (
		out  strings.Builder
		para strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", err
				}
				para.WriteString(text)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				if para.Len() > 0 {
					out.WriteString(para.String())
					out.WriteString("\n")
					para.Reset()
				}
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}
