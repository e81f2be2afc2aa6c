package processing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KumarSohan18/No-Code-platform/internal/vector"
)

const (
	// chunkSize is the target length of a chunk in characters.
	chunkSize = 1000
	// chunkOverlap is how much of the previous chunk's tail seeds the next
	// one, so sentences near a boundary keep their surroundings.
	chunkOverlap = 200
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// ChunkDocument splits extracted document text into overlapping chunks ready
// for embedding. Chunk IDs are "<filename>_<index>" so re-processing a file
// overwrites its previous chunks instead of duplicating them.
func ChunkDocument(filename, text string) []vector.Chunk {
	pieces := splitText(text)
	chunks := make([]vector.Chunk, 0, len(pieces))
	for i, content := range pieces {
		chunks = append(chunks, vector.Chunk{
			ID:       fmt.Sprintf("%s_%d", filename, i),
			Filename: filename,
			Content:  content,
			Metadata: map[string]any{
				"filename":   filename,
				"chunk_id":   i,
				"chunk_size": len(content),
			},
		})
	}
	return chunks
}

// splitText accumulates sentences into chunks of roughly chunkSize
// characters, carrying chunkOverlap characters across each boundary.
func splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := sentenceEnd.Split(text, -1)
	var (
		out     []string
		current strings.Builder
	)
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+2 > chunkSize {
			chunk := strings.TrimSpace(current.String())
			out = append(out, chunk)
			current.Reset()
			if len(chunk) > chunkOverlap {
				current.WriteString(chunk[len(chunk)-chunkOverlap:])
				current.WriteString(" ")
			}
		}
		current.WriteString(sentence)
		current.WriteString(". ")
	}
	if tail := strings.TrimSpace(current.String()); tail != "" {
		out = append(out, tail)
	}
	return out
}
