package llm

import (
	"fmt"
	"strings"

	"github.com/KumarSohan18/No-Code-platform/internal/websearch"
)

const (
	baseInstruction = "You are a helpful AI assistant. Provide accurate, helpful, and concise responses with proper formatting including line breaks and clear structure."

	webInstruction = "You are a helpful AI assistant. Use the provided web search results to answer the user's query accurately and comprehensively. Format your response with proper line breaks, bullet points, and clear structure. If the web search results contain relevant information, use them to provide a detailed response. If the results don't contain enough information, let the user know what you found and suggest they try a different search."

	newsFormatting = "Please format your response with:\n- Clear headlines\n- Bullet points for each news item\n- Proper line breaks between sections\n- Source attribution when using web search results"
)

// buildPrompt assembles the system instruction, retrieved knowledge context,
// web search results, and the user query into a single prompt.
func buildPrompt(query, contextText string, webResults []websearch.Result) string {
	var parts []string

	if len(webResults) > 0 {
		parts = append(parts, webInstruction)
	} else {
		parts = append(parts, baseInstruction)
	}

	if contextText != "" {
		parts = append(parts, "Context from knowledge base:\n"+contextText)
	}

	if len(webResults) > 0 {
		var b strings.Builder
		b.WriteString("IMPORTANT: Use the following web search results to answer the user's query. These results contain current, real-time information that should be used to provide an accurate and up-to-date response:\n\n")
		for i, r := range webResults {
			fmt.Fprintf(&b, "Result %d:\nTitle: %s\nContent: %s\nSource: %s\n\n", i+1, r.Title, r.Snippet, r.URL)
		}
		parts = append(parts, b.String())
	}

	if strings.Contains(strings.ToLower(query), "news") {
		parts = append(parts, fmt.Sprintf("User query: %s\n\n%s", query, newsFormatting))
	} else {
		parts = append(parts, "User query: "+query)
	}

	return strings.Join(parts, "\n\n")
}
