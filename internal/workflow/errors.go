package workflow

import "errors"

// Execution-time errors. Any of these aborts the remainder of a run; the
// driver converts them into a failed ExecutionResult rather than returning
// them to the caller. Validation problems are never raised as errors, they
// are reported through ValidationResult.
var (
	// ErrInvalidWorkflow wraps the validator's error list when Execute is
	// called with a graph that does not validate.
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrMissingInput means the input node found no query in the payload.
	ErrMissingInput = errors.New("no query provided")

	// ErrMissingQuery means the llm node could not resolve a query from any
	// prior result or from the input payload.
	ErrMissingQuery = errors.New("no query found for llm processing")

	// ErrNoResponse means the output node found no llm_response to format.
	ErrNoResponse = errors.New("no llm response found for output")

	// ErrUnknownComponentType means a node type arrived from an external
	// source that the dispatcher does not recognize.
	ErrUnknownComponentType = errors.New("unknown component type")
)
