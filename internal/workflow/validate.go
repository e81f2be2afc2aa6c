package workflow

import (
	"fmt"
	"strings"
)

var requiredComponents = []ComponentType{ComponentInput, ComponentLLM, ComponentOutput}

// Validate checks the structure and per-node configuration of a graph and
// computes its execution order as a byproduct. It is a pure function: two
// calls with the same nodes and edges produce the same result.
func Validate(nodes []Node, edges []Edge) ValidationResult {
	errs := []string{}
	order := []string{}

	present := make(map[ComponentType]bool, len(nodes))
	var inputCount, outputCount int
	for _, n := range nodes {
		present[n.Type] = true
		switch n.Type {
		case ComponentInput:
			inputCount++
		case ComponentOutput:
			outputCount++
		}
	}

	var missing []string
	for _, t := range requiredComponents {
		if !present[t] {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("Missing required components: %s", strings.Join(missing, ", ")))
	}
	if inputCount > 1 {
		errs = append(errs, "Only one User Query component is allowed")
	}
	if outputCount > 1 {
		errs = append(errs, "Only one Output component is allowed")
	}

	if len(errs) == 0 {
		order = resolveOrder(nodes, edges)
		if len(order) == 0 {
			errs = append(errs, "Invalid workflow connections - cannot determine execution order")
			order = []string{}
		}
	}

	for _, n := range nodes {
		errs = append(errs, validateNodeConfig(n)...)
	}

	return ValidationResult{
		IsValid:        len(errs) == 0,
		Errors:         errs,
		Warnings:       []string{},
		ExecutionOrder: order,
	}
}

func validateNodeConfig(n Node) []string {
	var errs []string
	switch n.Type {
	case ComponentLLM:
		if n.Data.Model == "" {
			errs = append(errs, fmt.Sprintf("LLM Engine node %s: Model is required", n.ID))
		}
	case ComponentKnowledge:
		if n.Data.Collection == "" {
			errs = append(errs, fmt.Sprintf("Knowledge Base node %s: Collection name is required", n.ID))
		}
		if n.Data.TopK != nil && (*n.Data.TopK < 1 || *n.Data.TopK > 50) {
			errs = append(errs, fmt.Sprintf("Knowledge Base node %s: TopK must be between 1 and 50", n.ID))
		}
	}
	return errs
}
