package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// TextGenerator produces a completion for a query with optional retrieved
// context and optional web search augmentation.
type TextGenerator interface {
	Generate(ctx context.Context, query, contextText, model string, maxTokens int, useWebSearch bool) (string, error)
}

// VectorSearcher retrieves document chunks similar to a query. A collection
// that does not exist yields an empty result list, not an error.
type VectorSearcher interface {
	Search(ctx context.Context, query, collection string, topK int, threshold float64) ([]SearchResult, error)
}

// Values the engine fixes at run time. Node configs carry model and threshold
// fields for schema compatibility with the builder UI, but the engine always
// substitutes these constants and never honors the per-node values.
const (
	generationModel     = "gpt-5-nano-2025-08-07"
	similarityThreshold = 0.3

	defaultCollection = "default"
	defaultTopK       = 5
	defaultMaxTokens  = 1000
)

// Executor runs workflow graphs against the injected capabilities. The
// capability clients may be shared across concurrent executions; each run
// gets its own context and shares no other mutable state.
type Executor struct {
	llm    TextGenerator
	vector VectorSearcher
}

func NewExecutor(llm TextGenerator, vector VectorSearcher) *Executor {
	return &Executor{llm: llm, vector: vector}
}

// Validate checks a graph without executing it.
func (e *Executor) Validate(nodes []Node, edges []Edge) ValidationResult {
	return Validate(nodes, edges)
}

// Execute validates the graph, resolves its execution order, and runs the
// nodes sequentially, threading the shared context through each one. Failures
// are communicated only through the returned result's Status and Error
// fields; the partial log up to the failing node is preserved.
func (e *Executor) Execute(ctx context.Context, nodes []Node, edges []Edge, input map[string]any) *ExecutionResult {
	start := time.Now()
	ec := newExecutionContext(input, start)

	if err := e.run(ctx, nodes, edges, ec); err != nil {
		log.Printf("workflow execution failed: %v", err)
		return &ExecutionResult{
			Status: StatusFailed,
			Error:  err.Error(),
			ExecutionLog: ExecutionLog{
				Steps:      ec.log,
				TotalSteps: len(ec.log),
				Error:      err.Error(),
			},
			ExecutionTime: time.Since(start).Milliseconds(),
		}
	}

	elapsed := time.Since(start).Milliseconds()
	return &ExecutionResult{
		Output: ec.output(),
		ExecutionLog: ExecutionLog{
			Steps:         ec.log,
			TotalSteps:    len(ec.log),
			ExecutionTime: elapsed,
		},
		Status:        StatusCompleted,
		ExecutionTime: elapsed,
	}
}

func (e *Executor) run(ctx context.Context, nodes []Node, edges []Edge, ec *executionContext) error {
	validation := Validate(nodes, edges)
	if !validation.IsValid {
		return fmt.Errorf("%w: %s", ErrInvalidWorkflow, strings.Join(validation.Errors, ", "))
	}

	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	for _, id := range validation.ExecutionOrder {
		node, ok := byID[id]
		if !ok {
			return fmt.Errorf("execution order references unknown node %q", id)
		}
		log.Printf("executing node %s (type: %s)", id, node.Type)
		result, err := e.executeComponent(ctx, node, ec)
		if err != nil {
			return err
		}
		ec.addResult(id, result)
		ec.log = append(ec.log, LogStep{
			NodeID:    id,
			NodeType:  node.Type,
			Result:    result,
			ElapsedMS: time.Since(ec.startTime).Milliseconds(),
		})
	}
	return nil
}

// executeComponent dispatches a single node by its type.
func (e *Executor) executeComponent(ctx context.Context, node Node, ec *executionContext) (Result, error) {
	switch node.Type {
	case ComponentInput:
		return e.runInput(node, ec)
	case ComponentKnowledge:
		return e.runKnowledge(ctx, node, ec)
	case ComponentLLM:
		return e.runLLM(ctx, node, ec)
	case ComponentOutput:
		return e.runOutput(node, ec)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponentType, node.Type)
	}
}

func (e *Executor) runInput(_ Node, ec *executionContext) (Result, error) {
	query, _ := ec.input["query"].(string)
	if query == "" {
		return nil, ErrMissingInput
	}
	return &UserQueryResult{Type: KindUserQuery, Query: query}, nil
}

func (e *Executor) runKnowledge(ctx context.Context, node Node, ec *executionContext) (Result, error) {
	query := ec.resolveQuery()
	if query == "" {
		// Not an error: a knowledge node with nothing to search for skips.
		log.Printf("no query found for knowledge base search, skipping node %s", node.ID)
		return &KnowledgeResult{Type: KindKnowledge, Results: []SearchResult{}, Status: "skipped"}, nil
	}

	collection := node.Data.Collection
	if collection == "" {
		collection = defaultCollection
	}
	topK := defaultTopK
	if node.Data.TopK != nil && *node.Data.TopK != 0 {
		topK = *node.Data.TopK
	}

	// node.Data.Threshold is accepted by the schema but never forwarded.
	results, err := e.vector.Search(ctx, query, collection, topK, similarityThreshold)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []SearchResult{}
	}
	return &KnowledgeResult{Type: KindKnowledge, Query: query, Results: results}, nil
}

func (e *Executor) runLLM(ctx context.Context, node Node, ec *executionContext) (Result, error) {
	query := ec.resolveQuery()
	if query == "" {
		return nil, ErrMissingQuery
	}

	var contextText string
	if kr, ok := ec.lastOfKind(KindKnowledge).(*KnowledgeResult); ok && len(kr.Results) > 0 {
		lines := make([]string, 0, len(kr.Results))
		for _, doc := range kr.Results {
			filename := doc.Filename
			if filename == "" {
				filename = "Unknown"
			}
			lines = append(lines, fmt.Sprintf("Document: %s\nContent: %s", filename, doc.Content))
		}
		contextText = strings.Join(lines, "\n")
	}

	maxTokens := defaultMaxTokens
	if node.Data.MaxTokens != nil && *node.Data.MaxTokens != 0 {
		maxTokens = *node.Data.MaxTokens
	}

	// node.Data.Model is validated for presence but the engine pins the
	// generation model regardless of what the node asked for.
	response, err := e.llm.Generate(ctx, query, contextText, generationModel, maxTokens, node.Data.UseWebSearch)
	if err != nil {
		return nil, err
	}

	return &LLMResult{
		Type:          KindLLMResponse,
		Query:         query,
		Response:      response,
		ContextUsed:   contextText != "",
		WebSearchUsed: node.Data.UseWebSearch,
	}, nil
}

func (e *Executor) runOutput(node Node, ec *executionContext) (Result, error) {
	lr, ok := ec.lastOfKind(KindLLMResponse).(*LLMResult)
	if !ok {
		return nil, ErrNoResponse
	}

	format := node.Data.Format
	if format == "" {
		format = "text"
	}
	if format == "json" {
		return &OutputResult{
			Type:     KindOutput,
			Response: lr.Response,
			Metadata: &OutputMetadata{
				Query:       lr.Query,
				ContextUsed: lr.ContextUsed,
				Format:      "json",
			},
		}, nil
	}
	return &OutputResult{Type: KindOutput, Response: lr.Response}, nil
}
