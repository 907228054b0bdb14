package dag

import "github.com/specialistvlad/contentgrid/internal/target"

// Graph links targets through their input and output paths. It is built
// once and not modified afterwards.
type Graph struct {
	// nodes are in the order the targets were given.
	nodes  []*node
	byName map[string]*node
}

type node struct {
	pos    int
	target *target.BuildTarget
	// deps are the producers of this node's inputs.
	deps []*node
	// dependents are the consumers of this node's outputs.
	dependents []*node
}
