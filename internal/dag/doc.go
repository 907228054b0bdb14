// Package dag orders resolved targets by data dependency.
//
// There are no explicit dependency declarations: target A precedes target B
// whenever one of A's outputs is one of B's inputs. A target consuming its
// own output is a cycle. Order runs Kahn's algorithm and, among targets that
// become ready at the same time, always takes the one declared first in the
// manifest, so the build order is reproducible.
package dag
