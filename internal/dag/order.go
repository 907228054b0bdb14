package dag

import (
	"container/heap"

	"github.com/specialistvlad/contentgrid/internal/target"
)

// Order returns targets in a valid build order. It fails with a
// *CyclicDependencyError when no such order exists and with a
// *DuplicateOutputError when two targets declare the same output.
func Order(targets []*target.BuildTarget) ([]*target.BuildTarget, error) {
	g := New(targets)
	ordered, err := g.Order()
	if err != nil {
		return nil, err
	}
	if err := CheckOutputs(ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

// Order runs Kahn's algorithm over the graph. Ready targets are taken in
// manifest order.
func (g *Graph) Order() ([]*target.BuildTarget, error) {
	inDegree := make([]int, len(g.nodes))
	ready := &readyQueue{}
	for _, n := range g.nodes {
		inDegree[n.pos] = len(n.deps)
		if inDegree[n.pos] == 0 {
			heap.Push(ready, n)
		}
	}

	ordered := make([]*target.BuildTarget, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		ordered = append(ordered, n.target)
		for _, dependent := range n.dependents {
			inDegree[dependent.pos]--
			if inDegree[dependent.pos] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(ordered) < len(g.nodes) {
		return nil, g.cycleError(inDegree)
	}
	return ordered, nil
}

// cycleError names a target that is on a cycle. Every target left with a
// positive in-degree has a producer that is also left over, so walking
// producers from any of them must eventually revisit a target; that target
// and the walk since its first visit form a cycle.
func (g *Graph) cycleError(inDegree []int) *CyclicDependencyError {
	var start *node
	for _, n := range g.nodes {
		if inDegree[n.pos] > 0 && (start == nil || before(n, start)) {
			start = n
		}
	}

	visited := make(map[*node]int)
	var walk []*node
	for n := start; ; {
		if at, seen := visited[n]; seen {
			loop := walk[at:]
			cycle := make([]string, 0, len(loop)+1)
			for i := len(loop) - 1; i >= 0; i-- {
				cycle = append(cycle, loop[i].target.Name)
			}
			cycle = append(cycle, cycle[0])
			witness := loop[len(loop)-1].target
			return &CyclicDependencyError{Target: witness.Name, Cycle: cycle, Loc: witness.Location}
		}
		visited[n] = len(walk)
		walk = append(walk, n)

		var next *node
		for _, dep := range n.deps {
			if inDegree[dep.pos] > 0 && (next == nil || before(dep, next)) {
				next = dep
			}
		}
		n = next
	}
}

func before(a, b *node) bool {
	if a.target.Index != b.target.Index {
		return a.target.Index < b.target.Index
	}
	return a.pos < b.pos
}

// readyQueue is a min-heap of nodes keyed by manifest position.
type readyQueue []*node

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return before(q[i], q[j]) }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(*node)) }
func (q *readyQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// CheckOutputs rejects two targets declaring the same output path.
func CheckOutputs(targets []*target.BuildTarget) error {
	owner := make(map[string]*target.BuildTarget)
	for _, t := range targets {
		for _, out := range t.Outputs {
			if first, ok := owner[out]; ok && first != t {
				return &DuplicateOutputError{Path: out, First: first.Name, Second: t.Name, Loc: t.Location}
			}
			owner[out] = t
		}
	}
	return nil
}

// Levels groups an ordered target list into waves. Targets in a wave do not
// depend on each other and only depend on targets of earlier waves. Within a
// wave the given order is kept.
func Levels(ordered []*target.BuildTarget) [][]*target.BuildTarget {
	producer := make(map[string]int)
	level := make(map[*target.BuildTarget]int, len(ordered))
	var waves [][]*target.BuildTarget

	for _, t := range ordered {
		lvl := 0
		for _, in := range t.Inputs {
			if p, ok := producer[in]; ok && p+1 > lvl {
				lvl = p + 1
			}
		}
		level[t] = lvl
		for _, out := range t.Outputs {
			producer[out] = lvl
		}
		for len(waves) <= lvl {
			waves = append(waves, nil)
		}
		waves[lvl] = append(waves[lvl], t)
	}
	return waves
}
