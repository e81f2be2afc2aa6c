package llm

import (
	"strings"
	"testing"

	"github.com/KumarSohan18/No-Code-platform/internal/websearch"
)

func TestBuildPromptPlainQuery(t *testing.T) {
	prompt := buildPrompt("what is Go", "", nil)

	if !strings.HasPrefix(prompt, baseInstruction) {
		t.Errorf("prompt should start with the base instruction:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "User query: what is Go") {
		t.Errorf("prompt should end with the bare user query:\n%s", prompt)
	}
	if strings.Contains(prompt, "Context from knowledge base") {
		t.Error("prompt should not contain a context block")
	}
}

func TestBuildPromptWithContext(t *testing.T) {
	prompt := buildPrompt("what is Go", "Document: guide.txt\nContent: Go is a language", nil)

	if !strings.Contains(prompt, "Context from knowledge base:\nDocument: guide.txt") {
		t.Errorf("prompt missing context block:\n%s", prompt)
	}
}

func TestBuildPromptWithWebResults(t *testing.T) {
	results := []websearch.Result{
		{Title: "Go 1.25 released", Snippet: "The latest release", URL: "https://go.dev/blog"},
		{Title: "Go proverbs", Snippet: "Clear is better than clever", URL: "https://go-proverbs.github.io"},
	}
	prompt := buildPrompt("what is Go", "", results)

	if !strings.HasPrefix(prompt, webInstruction) {
		t.Error("prompt should use the web search instruction")
	}
	if !strings.Contains(prompt, "Result 1:\nTitle: Go 1.25 released") {
		t.Errorf("prompt missing first result:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Result 2:") {
		t.Error("prompt missing second result")
	}
	if !strings.Contains(prompt, "Source: https://go.dev/blog") {
		t.Error("prompt missing source attribution")
	}
}

func TestBuildPromptNewsFormatting(t *testing.T) {
	prompt := buildPrompt("latest news about Go", "", nil)
	if !strings.Contains(prompt, "Clear headlines") {
		t.Errorf("news query should request headline formatting:\n%s", prompt)
	}

	prompt = buildPrompt("what is Go", "", nil)
	if strings.Contains(prompt, "Clear headlines") {
		t.Error("non-news query should not request headline formatting")
	}
}
