package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type genCall struct {
	query        string
	contextText  string
	model        string
	maxTokens    int
	useWebSearch bool
}

type stubGenerator struct {
	response string
	err      error
	calls    []genCall
}

func (s *stubGenerator) Generate(_ context.Context, query, contextText, model string, maxTokens int, useWebSearch bool) (string, error) {
	s.calls = append(s.calls, genCall{query, contextText, model, maxTokens, useWebSearch})
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type searchCall struct {
	query      string
	collection string
	topK       int
	threshold  float64
}

type stubSearcher struct {
	results []SearchResult
	err     error
	calls   []searchCall
}

func (s *stubSearcher) Search(_ context.Context, query, collection string, topK int, threshold float64) ([]SearchResult, error) {
	s.calls = append(s.calls, searchCall{query, collection, topK, threshold})
	return s.results, s.err
}

func newTestExecutor(gen *stubGenerator, search *stubSearcher) *Executor {
	if gen == nil {
		gen = &stubGenerator{response: "generated text"}
	}
	if search == nil {
		search = &stubSearcher{}
	}
	return NewExecutor(gen, search)
}

func TestExecuteEndToEnd(t *testing.T) {
	gen := &stubGenerator{response: "hello there"}
	e := newTestExecutor(gen, nil)

	nodes := []Node{
		{ID: "1", Type: ComponentInput},
		{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "x"}},
		{ID: "3", Type: ComponentOutput, Data: NodeConfig{Format: "text"}},
	}
	edges := []Edge{
		{Source: "1", Target: "2"},
		{Source: "2", Target: "3"},
	}

	result := e.Execute(context.Background(), nodes, edges, map[string]any{"query": "hi"})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q (error: %q), want completed", result.Status, result.Error)
	}
	if len(result.ExecutionLog.Steps) != 3 || result.ExecutionLog.TotalSteps != 3 {
		t.Fatalf("expected 3 log steps, got %d", len(result.ExecutionLog.Steps))
	}
	stepIDs := []string{}
	for _, s := range result.ExecutionLog.Steps {
		stepIDs = append(stepIDs, s.NodeID)
	}
	if strings.Join(stepIDs, ",") != "1,2,3" {
		t.Errorf("step order = %v, want [1 2 3]", stepIDs)
	}

	llmResult, ok := result.Output["2"].(*LLMResult)
	if !ok {
		t.Fatalf("node 2 result = %#v, want *LLMResult", result.Output["2"])
	}
	if llmResult.Kind() != KindLLMResponse || llmResult.Query != "hi" {
		t.Errorf("unexpected llm result %+v", llmResult)
	}

	out, ok := result.Output["3"].(*OutputResult)
	if !ok {
		t.Fatalf("node 3 result = %#v, want *OutputResult", result.Output["3"])
	}
	if out.Response != "hello there" || out.Metadata != nil {
		t.Errorf("unexpected output result %+v", out)
	}
}

func TestExecutePinsModelAndThreshold(t *testing.T) {
	gen := &stubGenerator{response: "answer"}
	search := &stubSearcher{results: []SearchResult{
		{ID: "c1", Filename: "doc1.txt", Content: "alpha", SimilarityScore: 0.9},
	}}
	e := newTestExecutor(gen, search)

	nodes := []Node{
		{ID: "in", Type: ComponentInput},
		{ID: "kb", Type: ComponentKnowledge, Data: NodeConfig{Collection: "docs", Threshold: floatPtr(0.95)}},
		{ID: "llm", Type: ComponentLLM, Data: NodeConfig{Model: "some-other-model"}},
		{ID: "out", Type: ComponentOutput},
	}
	edges := []Edge{
		{Source: "in", Target: "kb"},
		{Source: "kb", Target: "llm"},
		{Source: "llm", Target: "out"},
	}

	result := e.Execute(context.Background(), nodes, edges, map[string]any{"query": "what is alpha"})
	if result.Status != StatusCompleted {
		t.Fatalf("status = %q (error: %q)", result.Status, result.Error)
	}

	if len(search.calls) != 1 {
		t.Fatalf("expected 1 search call, got %d", len(search.calls))
	}
	sc := search.calls[0]
	if sc.threshold != 0.3 {
		t.Errorf("search threshold = %v, want the engine's fixed 0.3", sc.threshold)
	}
	if sc.collection != "docs" || sc.topK != 5 {
		t.Errorf("search call = %+v", sc)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("expected 1 generate call, got %d", len(gen.calls))
	}
	gc := gen.calls[0]
	if gc.model != "gpt-5-nano-2025-08-07" {
		t.Errorf("model = %q, want the engine's pinned model", gc.model)
	}
	if gc.maxTokens != 1000 {
		t.Errorf("maxTokens = %d, want default 1000", gc.maxTokens)
	}
	if !strings.Contains(gc.contextText, "Document: doc1.txt") || !strings.Contains(gc.contextText, "Content: alpha") {
		t.Errorf("context text missing document block: %q", gc.contextText)
	}

	llmResult := result.Output["llm"].(*LLMResult)
	if !llmResult.ContextUsed {
		t.Error("expected context_used to be true")
	}
}

func TestExecuteInvalidWorkflow(t *testing.T) {
	e := newTestExecutor(nil, nil)
	nodes := []Node{
		{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "x"}},
		{ID: "3", Type: ComponentOutput},
	}

	result := e.Execute(context.Background(), nodes, nil, map[string]any{"query": "hi"})
	if result.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if !strings.Contains(result.Error, "invalid workflow") || !strings.Contains(result.Error, "Missing required components") {
		t.Errorf("error = %q", result.Error)
	}
	if len(result.ExecutionLog.Steps) != 0 {
		t.Errorf("expected no steps, got %d", len(result.ExecutionLog.Steps))
	}
	if result.Output != nil {
		t.Errorf("expected no output, got %v", result.Output)
	}
}

func TestExecuteMissingInputQuery(t *testing.T) {
	e := newTestExecutor(nil, nil)
	nodes := []Node{
		{ID: "1", Type: ComponentInput},
		{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "x"}},
		{ID: "3", Type: ComponentOutput},
	}
	edges := []Edge{{Source: "1", Target: "2"}, {Source: "2", Target: "3"}}

	result := e.Execute(context.Background(), nodes, edges, map[string]any{})
	if result.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.Error != ErrMissingInput.Error() {
		t.Errorf("error = %q, want %q", result.Error, ErrMissingInput.Error())
	}
	if len(result.ExecutionLog.Steps) != 0 {
		t.Errorf("expected no steps before the input node failed, got %d", len(result.ExecutionLog.Steps))
	}
}

func TestExecuteFailurePreservesPartialLog(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend unavailable")}
	e := newTestExecutor(gen, nil)
	nodes := []Node{
		{ID: "1", Type: ComponentInput},
		{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "x"}},
		{ID: "3", Type: ComponentOutput},
	}
	edges := []Edge{{Source: "1", Target: "2"}, {Source: "2", Target: "3"}}

	result := e.Execute(context.Background(), nodes, edges, map[string]any{"query": "hi"})
	if result.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.Error != "backend unavailable" {
		t.Errorf("error = %q", result.Error)
	}
	// Only the input node completed before the llm node failed.
	if len(result.ExecutionLog.Steps) != 1 || result.ExecutionLog.Steps[0].NodeID != "1" {
		t.Errorf("partial log = %+v", result.ExecutionLog.Steps)
	}
	if result.ExecutionLog.Error != "backend unavailable" {
		t.Errorf("log error = %q", result.ExecutionLog.Error)
	}
}

func TestExecuteUnknownComponentType(t *testing.T) {
	e := newTestExecutor(nil, nil)
	nodes := []Node{
		{ID: "1", Type: ComponentInput},
		{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "x"}},
		{ID: "3", Type: ComponentOutput},
		{ID: "4", Type: ComponentType("magic")},
	}
	edges := []Edge{{Source: "1", Target: "2"}, {Source: "2", Target: "3"}}

	result := e.Execute(context.Background(), nodes, edges, map[string]any{"query": "hi"})
	if result.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if !strings.Contains(result.Error, "unknown component type") {
		t.Errorf("error = %q", result.Error)
	}
	// The three known nodes ran before the leftover-appended unknown one.
	if len(result.ExecutionLog.Steps) != 3 {
		t.Errorf("expected 3 steps, got %d", len(result.ExecutionLog.Steps))
	}
}

func TestRunKnowledgeSkipsWithoutQuery(t *testing.T) {
	search := &stubSearcher{}
	e := newTestExecutor(nil, search)
	ec := newExecutionContext(map[string]any{}, time.Now())

	result, err := e.runKnowledge(context.Background(), Node{ID: "kb", Type: ComponentKnowledge}, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kr, ok := result.(*KnowledgeResult)
	if !ok {
		t.Fatalf("result = %#v", result)
	}
	if kr.Status != "skipped" {
		t.Errorf("status = %q, want skipped", kr.Status)
	}
	if kr.Results == nil || len(kr.Results) != 0 {
		t.Errorf("results = %#v, want empty slice", kr.Results)
	}
	if len(search.calls) != 0 {
		t.Errorf("search should not have been called, got %d calls", len(search.calls))
	}
}

func TestRunKnowledgeFallsBackToInputPayload(t *testing.T) {
	search := &stubSearcher{}
	e := newTestExecutor(nil, search)
	ec := newExecutionContext(map[string]any{"query": "from payload"}, time.Now())

	_, err := e.runKnowledge(context.Background(), Node{ID: "kb", Type: ComponentKnowledge}, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(search.calls) != 1 || search.calls[0].query != "from payload" {
		t.Errorf("search calls = %+v", search.calls)
	}
	if search.calls[0].collection != "default" {
		t.Errorf("collection = %q, want default", search.calls[0].collection)
	}
}

func TestRunLLMMissingQuery(t *testing.T) {
	e := newTestExecutor(nil, nil)
	ec := newExecutionContext(map[string]any{}, time.Now())

	_, err := e.runLLM(context.Background(), Node{ID: "llm", Type: ComponentLLM}, ec)
	if !errors.Is(err, ErrMissingQuery) {
		t.Errorf("err = %v, want ErrMissingQuery", err)
	}
}

func TestRunLLMUsesLatestKnowledgeResult(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	e := newTestExecutor(gen, nil)
	ec := newExecutionContext(map[string]any{"query": "q"}, time.Now())
	ec.addResult("kb-1", &KnowledgeResult{Type: KindKnowledge, Results: []SearchResult{
		{Filename: "first.txt", Content: "old"},
	}})
	ec.addResult("kb-2", &KnowledgeResult{Type: KindKnowledge, Results: []SearchResult{
		{Filename: "second.txt", Content: "new"},
	}})

	_, err := e.runLLM(context.Background(), Node{ID: "llm", Type: ComponentLLM}, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctxText := gen.calls[0].contextText
	if !strings.Contains(ctxText, "second.txt") || strings.Contains(ctxText, "first.txt") {
		t.Errorf("llm should consume the latest knowledge result, got context %q", ctxText)
	}
}

func TestRunOutputFormats(t *testing.T) {
	e := newTestExecutor(nil, nil)

	tests := []struct {
		name         string
		format       string
		wantMetadata bool
	}{
		{"json format carries metadata", "json", true},
		{"text format is bare", "text", false},
		{"empty format defaults to text", "", false},
		{"unrecognized format is treated as text", "markdown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := newExecutionContext(map[string]any{}, time.Now())
			ec.addResult("llm", &LLMResult{Type: KindLLMResponse, Query: "q", Response: "r", ContextUsed: true})

			result, err := e.runOutput(Node{ID: "out", Type: ComponentOutput, Data: NodeConfig{Format: tt.format}}, ec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := result.(*OutputResult)
			if out.Response != "r" {
				t.Errorf("response = %q", out.Response)
			}
			if tt.wantMetadata {
				if out.Metadata == nil {
					t.Fatal("expected metadata")
				}
				if out.Metadata.Query != "q" || !out.Metadata.ContextUsed || out.Metadata.Format != "json" {
					t.Errorf("metadata = %+v", out.Metadata)
				}
			} else if out.Metadata != nil {
				t.Errorf("unexpected metadata %+v", out.Metadata)
			}
		})
	}
}

func TestRunOutputNoResponse(t *testing.T) {
	e := newTestExecutor(nil, nil)
	ec := newExecutionContext(map[string]any{}, time.Now())

	_, err := e.runOutput(Node{ID: "out", Type: ComponentOutput}, ec)
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("err = %v, want ErrNoResponse", err)
	}
}
