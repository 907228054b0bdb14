package dag

import "github.com/specialistvlad/contentgrid/internal/target"

// New builds the dependency graph of targets. Every path is mapped to the
// targets consuming it; each output then links its producer to those
// consumers. An edge is recorded once even when several paths connect the
// same pair.
func New(targets []*target.BuildTarget) *Graph {
	g := &Graph{
		nodes:  make([]*node, len(targets)),
		byName: make(map[string]*node, len(targets)),
	}
	for i, t := range targets {
		n := &node{pos: i, target: t}
		g.nodes[i] = n
		g.byName[t.Name] = n
	}

	consumers := make(map[string][]*node)
	for _, n := range g.nodes {
		for _, in := range n.target.Inputs {
			consumers[in] = append(consumers[in], n)
		}
	}

	for _, producer := range g.nodes {
		linked := make(map[*node]struct{})
		for _, out := range producer.target.Outputs {
			for _, consumer := range consumers[out] {
				if _, ok := linked[consumer]; ok {
					continue
				}
				linked[consumer] = struct{}{}
				producer.dependents = append(producer.dependents, consumer)
				consumer.deps = append(consumer.deps, producer)
			}
		}
	}

	return g
}
