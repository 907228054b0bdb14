package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// RecordingCompiler is a test compiler. Every output it writes holds the
// concatenated content of the inputs. It records each invocation.
type RecordingCompiler struct {
	Desc registry.Descriptor

	// Sleep delays every compile.
	Sleep time.Duration
	// Fail makes the compile of the named targets return the error.
	Fail map[string]error
	// Panic makes the compile of the named targets panic with the value.
	Panic map[string]any
	// SkipOutputs makes the compile of the named targets succeed without
	// writing anything.
	SkipOutputs map[string]bool

	mu      sync.Mutex
	calls   []string
	records map[string]ExecutionRecord
	jobs    map[string]*registry.Job
}

// NewRecordingCompiler creates a compiler named name mapping .in files to
// .out files and .out files to .pkg files. It takes an optional numeric
// target-level parameter "Level".
func NewRecordingCompiler(name string) *RecordingCompiler {
	return &RecordingCompiler{
		Desc: registry.Descriptor{
			Name:        name,
			Description: "Concatenates its inputs into every output.",
			Extensions: []registry.Extension{
				{Inputs: []string{".in"}, Outputs: []string{".out"}},
				{Inputs: []string{".out"}, Outputs: []string{".pkg"}},
			},
			TargetParams: registry.Schema{
				Optional: map[string]registry.Optional{
					"Level": {Type: cty.Number, Default: cty.NumberIntVal(0), Description: "Ignored."},
				},
			},
		},
		records: make(map[string]ExecutionRecord),
		jobs:    make(map[string]*registry.Job),
	}
}

// Register implements registry.Module.
func (c *RecordingCompiler) Register(r *registry.Registry) {
	r.MustRegister(c)
}

// Descriptor implements registry.Compiler.
func (c *RecordingCompiler) Descriptor() registry.Descriptor {
	return c.Desc
}

// Compile implements registry.Compiler.
func (c *RecordingCompiler) Compile(ctx context.Context, job *registry.Job) error {
	start := time.Now()
	if c.Sleep > 0 {
		select {
		case <-time.After(c.Sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	c.calls = append(c.calls, job.Target)
	c.jobs[job.Target] = job
	fail := c.Fail[job.Target]
	skip := c.SkipOutputs[job.Target]
	p, panics := c.Panic[job.Target]
	c.mu.Unlock()

	if panics {
		panic(p)
	}
	if fail != nil {
		return fail
	}
	if !skip {
		var sb strings.Builder
		for _, in := range job.Inputs {
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			sb.Write(data)
		}
		for _, out := range job.Outputs {
			if err := os.WriteFile(out, []byte(sb.String()), 0o644); err != nil {
				return err
			}
		}
	}

	c.mu.Lock()
	c.records[job.Target] = ExecutionRecord{Start: start, End: time.Now()}
	c.mu.Unlock()
	return nil
}

// Calls returns the compiled target names in invocation order.
func (c *RecordingCompiler) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Record returns the execution record of a target.
func (c *RecordingCompiler) Record(target string) (ExecutionRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[target]
	return r, ok
}

// Job returns the last job passed for a target.
func (c *RecordingCompiler) Job(target string) *registry.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[target]
}

// Reset forgets every recorded invocation.
func (c *RecordingCompiler) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
	c.records = make(map[string]ExecutionRecord)
	c.jobs = make(map[string]*registry.Job)
}
