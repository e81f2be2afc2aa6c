package workflow

// resolveOrder computes the linear visitation order for a graph: a breadth
// first traversal from the single input node, followed by every node the
// traversal never reached, in the original listing order. The leftover append
// recovers nodes whose only inbound edges were not walked (for example a node
// fed by two converging branches) as well as fully disconnected nodes.
//
// This is an approximation of dependency order, not a topological sort: a
// node appended in the leftover step may run before all of its upstream
// producers. The driver uses the order as given and never re-checks edges at
// dispatch time. Callers depend on the exact order this produces, so it must
// not be replaced with a stricter sort.
//
// Returns nil when the graph has no input node.
func resolveOrder(nodes []Node, edges []Edge) []string {
	adjacency := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		adjacency[n.ID] = nil
	}
	for _, e := range edges {
		if _, ok := adjacency[e.Source]; ok {
			adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		}
	}

	var start string
	found := false
	for _, n := range nodes {
		if n.Type == ComponentInput {
			start = n.ID
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	visited := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		order = append(order, current)
		for _, neighbor := range adjacency[current] {
			if !visited[neighbor] {
				queue = append(queue, neighbor)
			}
		}
	}

	for _, n := range nodes {
		if !visited[n.ID] {
			order = append(order, n.ID)
		}
	}
	return order
}
