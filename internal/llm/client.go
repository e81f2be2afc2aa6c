// Package llm implements text generation and embeddings on top of the OpenAI
// API, with optional web search augmentation of the prompt.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/KumarSohan18/No-Code-platform/internal/websearch"
)

// ErrGeneration wraps any backend failure during text generation.
var ErrGeneration = errors.New("llm generation failed")

// Searcher is the web search dependency. Search failures degrade to an empty
// result list; they never abort generation.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) ([]websearch.Result, error)
}

// Client talks to the OpenAI API. It is safe for concurrent use and shared
// across workflow executions.
type Client struct {
	api            *openai.Client
	search         Searcher
	embeddingModel openai.EmbeddingModel
	webResults     int
}

func New(apiKey string, search Searcher, embeddingModel string, webResults int) *Client {
	if apiKey == "" {
		log.Println("Warning: OpenAI API key not provided")
	}
	if webResults <= 0 {
		webResults = 10
	}
	return &Client{
		api:            openai.NewClient(apiKey),
		search:         search,
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		webResults:     webResults,
	}
}

// Generate produces a completion for the query, folding retrieved context and
// optional web search results into the prompt.
func (c *Client) Generate(ctx context.Context, query, contextText, model string, maxTokens int, useWebSearch bool) (string, error) {
	var webResults []websearch.Result
	if useWebSearch && c.search != nil {
		results, err := c.search.Search(ctx, query, c.webResults)
		if err != nil {
			log.Printf("web search failed, continuing without results: %v", err)
		} else {
			webResults = results
		}
	}

	prompt := buildPrompt(query, contextText, webResults)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful AI assistant."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// gpt-5 and gpt-4o reject max_tokens in favor of max_completion_tokens.
	if strings.HasPrefix(model, "gpt-5") || strings.HasPrefix(model, "gpt-4o") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", ErrGeneration)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed returns one embedding vector per input text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts to embed")
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("empty query")
	}
	embs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}
