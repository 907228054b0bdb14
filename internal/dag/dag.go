package dag

import "fmt"

// Len returns the number of targets in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependencies returns the names of the targets the named target consumes
// outputs from.
func (g *Graph) Dependencies(name string) ([]string, error) {
	n, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("target not found: %s", name)
	}
	return names(n.deps), nil
}

// Dependents returns the names of the targets consuming outputs of the
// named target.
func (g *Graph) Dependents(name string) ([]string, error) {
	n, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("target not found: %s", name)
	}
	return names(n.dependents), nil
}

func names(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.target.Name
	}
	return out
}
