package workflow

import "time"

// ComponentType is the closed set of node kinds the engine knows how to run.
type ComponentType string

const (
	ComponentInput     ComponentType = "input"
	ComponentKnowledge ComponentType = "knowledge"
	ComponentLLM       ComponentType = "llm"
	ComponentOutput    ComponentType = "output"
)

// NodeConfig carries the per-type settings attached to a node. The set of
// fields matches what the workflow builder UI sends; fields that do not apply
// to a node's type are simply left empty.
type NodeConfig struct {
	Label            string   `json:"label,omitempty"`
	Placeholder      string   `json:"placeholder,omitempty"`
	Model            string   `json:"model,omitempty"`
	Collection       string   `json:"collection,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	Threshold        *float64 `json:"threshold,omitempty"`
	Format           string   `json:"format,omitempty"`
	Streaming        *bool    `json:"streaming,omitempty"`
	MaxTokens        *int     `json:"maxTokens,omitempty"`
	UseWebSearch     bool     `json:"use_web_search,omitempty"`
	WebSearchResults *int     `json:"webSearchResults,omitempty"`
}

// Node is a typed unit of work in the workflow graph. Position is layout data
// from the UI and is never read by the engine.
type Node struct {
	ID       string             `json:"id"`
	Type     ComponentType      `json:"type"`
	Position map[string]float64 `json:"position,omitempty"`
	Data     NodeConfig         `json:"data"`
}

// Edge is a directed connection between two nodes. Edges determine execution
// order and reachability only; data never flows along a specific edge. The
// handle fields belong to the UI and are ignored here.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Result discriminants. Downstream nodes locate their upstream data by
// scanning accumulated results for one of these tags.
const (
	KindUserQuery   = "user_query"
	KindKnowledge   = "knowledge_base"
	KindLLMResponse = "llm_response"
	KindOutput      = "output"
)

// Result is a tagged value produced by one node execution.
type Result interface {
	Kind() string
}

// UserQueryResult is produced by an input node.
type UserQueryResult struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

func (*UserQueryResult) Kind() string { return KindUserQuery }

// SearchResult is one retrieved document chunk.
type SearchResult struct {
	ID              string         `json:"id"`
	Filename        string         `json:"filename,omitempty"`
	Content         string         `json:"content"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	SimilarityScore float64        `json:"similarity_score"`
}

// KnowledgeResult is produced by a knowledge node. Status is "skipped" when
// no query was available and the search never ran.
type KnowledgeResult struct {
	Type    string         `json:"type"`
	Query   string         `json:"query,omitempty"`
	Results []SearchResult `json:"results"`
	Status  string         `json:"status,omitempty"`
}

func (*KnowledgeResult) Kind() string { return KindKnowledge }

// LLMResult is produced by an llm node.
type LLMResult struct {
	Type          string `json:"type"`
	Query         string `json:"query"`
	Response      string `json:"response"`
	ContextUsed   bool   `json:"context_used"`
	WebSearchUsed bool   `json:"web_search_used"`
}

func (*LLMResult) Kind() string { return KindLLMResponse }

// OutputMetadata is attached to an output result when the node's format is
// "json".
type OutputMetadata struct {
	Query       string `json:"query"`
	ContextUsed bool   `json:"context_used"`
	Format      string `json:"format"`
}

// OutputResult is produced by an output node.
type OutputResult struct {
	Type     string          `json:"type"`
	Response string          `json:"response"`
	Metadata *OutputMetadata `json:"metadata,omitempty"`
}

func (*OutputResult) Kind() string { return KindOutput }

// ValidationResult reports structural and configuration problems found in a
// graph. Warnings is reserved and currently always empty.
type ValidationResult struct {
	IsValid        bool     `json:"is_valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	ExecutionOrder []string `json:"execution_order"`
}

// LogStep records one executed node.
type LogStep struct {
	NodeID    string        `json:"node_id"`
	NodeType  ComponentType `json:"node_type"`
	Result    Result        `json:"result"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

// ExecutionLog is the ordered step log plus a summary.
type ExecutionLog struct {
	Steps         []LogStep `json:"steps"`
	TotalSteps    int       `json:"total_steps"`
	ExecutionTime int64     `json:"execution_time,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Execution statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExecutionResult is the outcome of one workflow run. A failed run carries
// the error message and the partial log; Execute never returns a Go error.
type ExecutionResult struct {
	Output        map[string]Result `json:"output,omitempty"`
	ExecutionLog  ExecutionLog      `json:"execution_log"`
	Status        string            `json:"status"`
	ExecutionTime int64             `json:"execution_time"`
	Error         string            `json:"error,omitempty"`
}

// executionContext is the per-run mutable state threaded through node
// execution. It has exactly one writer, the driver loop, and is discarded
// when the run returns.
type executionContext struct {
	input     map[string]any
	entries   []resultEntry
	log       []LogStep
	startTime time.Time
}

type resultEntry struct {
	nodeID string
	result Result
}

func newExecutionContext(input map[string]any, start time.Time) *executionContext {
	return &executionContext{input: input, startTime: start}
}

func (c *executionContext) addResult(nodeID string, r Result) {
	c.entries = append(c.entries, resultEntry{nodeID: nodeID, result: r})
}

// lastOfKind scans the accumulated results in insertion order and returns the
// most recently added result with the given discriminant, or nil. This is the
// data-routing mechanism: nodes consume the latest matching upstream result
// regardless of which edge pointed at them.
func (c *executionContext) lastOfKind(kind string) Result {
	var match Result
	for _, e := range c.entries {
		if e.result.Kind() == kind {
			match = e.result
		}
	}
	return match
}

// resolveQuery returns the query from the latest user_query result, falling
// back to the raw input payload.
func (c *executionContext) resolveQuery() string {
	if r, ok := c.lastOfKind(KindUserQuery).(*UserQueryResult); ok {
		return r.Query
	}
	q, _ := c.input["query"].(string)
	return q
}

func (c *executionContext) output() map[string]Result {
	out := make(map[string]Result, len(c.entries))
	for _, e := range c.entries {
		out[e.nodeID] = e.result
	}
	return out
}
