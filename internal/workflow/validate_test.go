package workflow

import (
	"reflect"
	"strings"
	"testing"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func linearChain() ([]Node, []Edge) {
	nodes := []Node{
		{ID: "input-id", Type: ComponentInput},
		{ID: "knowledge-id", Type: ComponentKnowledge, Data: NodeConfig{Collection: "docs"}},
		{ID: "llm-id", Type: ComponentLLM, Data: NodeConfig{Model: "gpt-4"}},
		{ID: "output-id", Type: ComponentOutput},
	}
	edges := []Edge{
		{ID: "e1", Source: "input-id", Target: "knowledge-id"},
		{ID: "e2", Source: "knowledge-id", Target: "llm-id"},
		{ID: "e3", Source: "llm-id", Target: "output-id"},
	}
	return nodes, edges
}

func TestValidateLinearChain(t *testing.T) {
	nodes, edges := linearChain()
	result := Validate(nodes, edges)

	if !result.IsValid {
		t.Fatalf("expected valid workflow, got errors: %v", result.Errors)
	}
	want := []string{"input-id", "knowledge-id", "llm-id", "output-id"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("execution order = %v, want %v", result.ExecutionOrder, want)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateMissingComponents(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []Node
		wantError string
	}{
		{
			name: "no input node",
			nodes: []Node{
				{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "gpt-4"}},
				{ID: "3", Type: ComponentOutput},
			},
			wantError: "input",
		},
		{
			name: "no llm node",
			nodes: []Node{
				{ID: "1", Type: ComponentInput},
				{ID: "3", Type: ComponentOutput},
			},
			wantError: "llm",
		},
		{
			name:      "empty graph",
			nodes:     nil,
			wantError: "input, llm, output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.nodes, nil)
			if result.IsValid {
				t.Fatal("expected invalid workflow")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e, "Missing required components") && strings.Contains(e, tt.wantError) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not mention missing %q", result.Errors, tt.wantError)
			}
			if len(result.ExecutionOrder) != 0 {
				t.Errorf("expected empty execution order, got %v", result.ExecutionOrder)
			}
		})
	}
}

func TestValidateCardinality(t *testing.T) {
	nodes := []Node{
		{ID: "1", Type: ComponentInput},
		{ID: "1b", Type: ComponentInput},
		{ID: "2", Type: ComponentLLM, Data: NodeConfig{Model: "gpt-4"}},
		{ID: "3", Type: ComponentOutput},
		{ID: "3b", Type: ComponentOutput},
	}
	result := Validate(nodes, nil)
	if result.IsValid {
		t.Fatal("expected invalid workflow")
	}
	wantErrors := []string{
		"Only one User Query component is allowed",
		"Only one Output component is allowed",
	}
	for _, want := range wantErrors {
		found := false
		for _, e := range result.Errors {
			if e == want {
				found = true
			}
		}
		if !found {
			t.Errorf("errors %v missing %q", result.Errors, want)
		}
	}
	// Cardinality failures block order computation.
	if len(result.ExecutionOrder) != 0 {
		t.Errorf("expected empty execution order, got %v", result.ExecutionOrder)
	}
}

func TestValidateNodeConfig(t *testing.T) {
	tests := []struct {
		name      string
		node      Node
		wantError string
	}{
		{
			name:      "llm without model",
			node:      Node{ID: "llm-1", Type: ComponentLLM},
			wantError: "LLM Engine node llm-1: Model is required",
		},
		{
			name:      "knowledge without collection",
			node:      Node{ID: "kb-1", Type: ComponentKnowledge},
			wantError: "Knowledge Base node kb-1: Collection name is required",
		},
		{
			name:      "knowledge topK too small",
			node:      Node{ID: "kb-2", Type: ComponentKnowledge, Data: NodeConfig{Collection: "docs", TopK: intPtr(0)}},
			wantError: "Knowledge Base node kb-2: TopK must be between 1 and 50",
		},
		{
			name:      "knowledge topK too large",
			node:      Node{ID: "kb-3", Type: ComponentKnowledge, Data: NodeConfig{Collection: "docs", TopK: intPtr(51)}},
			wantError: "Knowledge Base node kb-3: TopK must be between 1 and 50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateNodeConfig(tt.node)
			found := false
			for _, e := range errs {
				if e == tt.wantError {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", errs, tt.wantError)
			}
		})
	}
}

func TestValidateTopKBoundsAccepted(t *testing.T) {
	for _, k := range []int{1, 5, 50} {
		node := Node{ID: "kb", Type: ComponentKnowledge, Data: NodeConfig{Collection: "docs", TopK: intPtr(k)}}
		if errs := validateNodeConfig(node); len(errs) != 0 {
			t.Errorf("topK %d: unexpected errors %v", k, errs)
		}
	}
}

func TestValidateIdempotent(t *testing.T) {
	nodes, edges := linearChain()
	first := Validate(nodes, edges)
	second := Validate(nodes, edges)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("validation not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}

	// Also for an invalid graph.
	badNodes := []Node{{ID: "x", Type: ComponentLLM}}
	first = Validate(badNodes, nil)
	second = Validate(badNodes, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("validation not idempotent for invalid graph:\nfirst  %+v\nsecond %+v", first, second)
	}
}
