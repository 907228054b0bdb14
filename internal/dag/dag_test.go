package dag

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/specialistvlad/contentgrid/internal/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namesOf(targets []*target.BuildTarget) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Name
	}
	return out
}

func TestOrder(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ordered, err := Order(nil)
		require.NoError(t, err)
		assert.Empty(t, ordered)
	})

	t.Run("producer before consumer", func(t *testing.T) {
		b := tgt("B", 0, []string{"/img.png"}, []string{"/sheet.bin"})
		a := tgt("A", 1, []string{"/a.svg"}, []string{"/img.png"})

		ordered, err := Order([]*target.BuildTarget{b, a})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, namesOf(ordered))
	})

	t.Run("independent targets keep manifest order", func(t *testing.T) {
		targets := []*target.BuildTarget{
			tgt("z", 0, []string{"/z.in"}, []string{"/z.out"}),
			tgt("y", 1, []string{"/y.in"}, []string{"/y.out"}),
			tgt("x", 2, []string{"/x.in"}, []string{"/x.out"}),
		}
		ordered, err := Order(targets)
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "y", "x"}, namesOf(ordered))
	})

	t.Run("ready targets are taken in manifest order", func(t *testing.T) {
		// root unlocks c (index 1) and b (index 3); d (index 2) is ready
		// from the start but comes after root.
		targets := []*target.BuildTarget{
			tgt("root", 0, []string{"/r.in"}, []string{"/r.out"}),
			tgt("c", 1, []string{"/r.out"}, []string{"/c.out"}),
			tgt("d", 2, []string{"/d.in"}, []string{"/d.out"}),
			tgt("b", 3, []string{"/r.out"}, []string{"/b.out"}),
		}
		ordered, err := Order(targets)
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "c", "d", "b"}, namesOf(ordered))
	})
}

func TestOrder_Cycles(t *testing.T) {
	t.Run("consumer also declares the shared output", func(t *testing.T) {
		a := tgt("A", 0, []string{"/a.svg"}, []string{"/img.png"})
		b := tgt("B", 1, []string{"/img.png"}, []string{"/sheet.bin", "/img.png"})

		_, err := Order([]*target.BuildTarget{a, b})
		var cycleErr *CyclicDependencyError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, "B", cycleErr.Target)
		assert.Equal(t, []string{"B", "B"}, cycleErr.Cycle)
		assert.Equal(t, 2, cycleErr.Location().Line)
	})

	t.Run("two-target loop", func(t *testing.T) {
		a := tgt("A", 0, []string{"/b.out"}, []string{"/a.out"})
		b := tgt("B", 1, []string{"/a.out"}, []string{"/b.out"})

		_, err := Order([]*target.BuildTarget{a, b})
		var cycleErr *CyclicDependencyError
		require.ErrorAs(t, err, &cycleErr)
		assert.Contains(t, []string{"A", "B"}, cycleErr.Target)
		assert.Len(t, cycleErr.Cycle, 3)
		assert.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[2])
	})

	t.Run("witness is on the loop, not downstream of it", func(t *testing.T) {
		// tail (index 0) only consumes the loop's output.
		tail := tgt("tail", 0, []string{"/c.out"}, []string{"/tail.out"})
		c := tgt("C", 1, []string{"/e.out"}, []string{"/c.out"})
		e := tgt("E", 2, []string{"/c.out"}, []string{"/e.out"})

		_, err := Order([]*target.BuildTarget{tail, c, e})
		var cycleErr *CyclicDependencyError
		require.ErrorAs(t, err, &cycleErr)
		assert.Contains(t, []string{"C", "E"}, cycleErr.Target)
		assert.NotContains(t, cycleErr.Cycle, "tail")
	})
}

func TestOrder_DuplicateOutputs(t *testing.T) {
	a := tgt("A", 0, []string{"/a.in"}, []string{"/same.out"})
	b := tgt("B", 1, []string{"/b.in"}, []string{"/same.out"})

	_, err := Order([]*target.BuildTarget{a, b})
	var dupErr *DuplicateOutputError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "A", dupErr.First)
	assert.Equal(t, "B", dupErr.Second)
	assert.Equal(t, "/same.out", dupErr.Path)
}

// TestOrder_RandomGraphs checks the ordering properties on generated
// acyclic graphs: every target follows its producers, and shuffling the
// input with unchanged manifest indexes yields the same order.
func TestOrder_RandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(12)
		targets := make([]*target.BuildTarget, n)
		// Edges only go from a lower rank to a higher one, so the graph is
		// acyclic; manifest indexes are an unrelated permutation.
		perm := rng.Perm(n)
		for rank := 0; rank < n; rank++ {
			inputs := []string{fmt.Sprintf("/src/%d.in", rank)}
			for dep := 0; dep < rank; dep++ {
				if rng.Intn(3) == 0 {
					inputs = append(inputs, fmt.Sprintf("/out/%d.out", dep))
				}
			}
			targets[rank] = tgt(fmt.Sprintf("t%d", rank), perm[rank], inputs, []string{fmt.Sprintf("/out/%d.out", rank)})
		}

		ordered, err := Order(targets)
		require.NoError(t, err)
		require.Len(t, ordered, n)

		position := make(map[string]int, n)
		for i, tt := range ordered {
			position[tt.Name] = i
		}
		g := New(targets)
		for _, tt := range targets {
			deps, err := g.Dependencies(tt.Name)
			require.NoError(t, err)
			for _, dep := range deps {
				assert.Less(t, position[dep], position[tt.Name], "round %d: %s must follow %s", round, tt.Name, dep)
			}
		}

		shuffled := append([]*target.BuildTarget(nil), targets...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again, err := Order(shuffled)
		require.NoError(t, err)
		assert.Equal(t, namesOf(ordered), namesOf(again), "round %d", round)
	}
}

func TestOrder_RandomCycles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 30; round++ {
		n := 2 + rng.Intn(8)
		targets := make([]*target.BuildTarget, n)
		for i := 0; i < n; i++ {
			// Ring: each target consumes its predecessor's output.
			prev := (i + n - 1) % n
			targets[i] = tgt(fmt.Sprintf("r%d", i), i,
				[]string{fmt.Sprintf("/ring/%d.out", prev)},
				[]string{fmt.Sprintf("/ring/%d.out", i)})
		}
		// Some acyclic hangers-on.
		extra := rng.Intn(4)
		for i := 0; i < extra; i++ {
			targets = append(targets, tgt(fmt.Sprintf("x%d", i), n+i,
				[]string{"/ring/0.out"}, []string{fmt.Sprintf("/x/%d.out", i)}))
		}

		_, err := Order(targets)
		var cycleErr *CyclicDependencyError
		require.ErrorAs(t, err, &cycleErr, "round %d", round)
		assert.Regexp(t, `^r\d+$`, cycleErr.Target, "round %d", round)
		assert.Len(t, cycleErr.Cycle, n+1, "round %d", round)
	}
}

func TestLevels(t *testing.T) {
	a := tgt("A", 0, []string{"/a.svg"}, []string{"/a.png"})
	b := tgt("B", 1, []string{"/b.svg"}, []string{"/b.png"})
	c := tgt("C", 2, []string{"/a.png", "/b.png"}, []string{"/sheet.bin"})
	d := tgt("D", 3, []string{"/a.png"}, []string{"/thumb.png"})
	e := tgt("E", 4, []string{"/sheet.bin"}, []string{"/pack.zip"})

	ordered, err := Order([]*target.BuildTarget{e, d, c, b, a})
	require.NoError(t, err)

	waves := Levels(ordered)
	require.Len(t, waves, 3)
	assert.Equal(t, []string{"A", "B"}, namesOf(waves[0]))
	assert.Equal(t, []string{"C", "D"}, namesOf(waves[1]))
	assert.Equal(t, []string{"E"}, namesOf(waves[2]))

	assert.Empty(t, Levels(nil))
}
