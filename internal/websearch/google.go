// Package websearch wraps the Google Custom Search JSON API. Results feed the
// llm package's prompt construction; callers treat failures as "no results"
// rather than aborting generation.
package websearch

import (
	"context"
	"fmt"
	"log"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Rank    int    `json:"rank"`
}

// Client queries a configured custom search engine with an API key. A client
// with no key is valid and returns no results.
type Client struct {
	apiKey   string
	engineID string
}

func New(apiKey, engineID string) *Client {
	return &Client{apiKey: apiKey, engineID: engineID}
}

// Search returns up to numResults hits for the query. The custom search API
// caps a single page at 10 results.
func (c *Client) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	if c.apiKey == "" || c.engineID == "" {
		log.Println("Warning: web search not configured, skipping search")
		return nil, nil
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}

	if numResults <= 0 {
		numResults = 5
	}
	if numResults > 10 {
		numResults = 10
	}

	resp, err := svc.Cse.List().
		Q(optimizeQuery(query)).
		Cx(c.engineID).
		Num(int64(numResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for i, item := range resp.Items {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
			Rank:    i + 1,
		})
	}
	log.Printf("found %d web search results for query: %s", len(results), query)
	return results, nil
}

// optimizeQuery rewrites news-style queries to bias the engine toward recent
// results.
func optimizeQuery(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "news") && strings.Contains(lower, "hindu"):
		return "site:thehindu.com " + query
	case strings.Contains(lower, "news"):
		return query + " latest today"
	default:
		return query
	}
}
