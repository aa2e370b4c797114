package domain

import "time"

// Runtime facts that deferred variables can be bound to. Each scheduler
// adapter translates these into values known only inside the allocation.
const (
	// FactNodes is the number of nodes actually allocated to the job.
	FactNodes = "nodes"

	// FactNodeList is the backend's list of allocated node names.
	FactNodeList = "nodelist"

	// FactJobID is the backend job identifier.
	FactJobID = "job_id"
)

// Variable declares one template variable. A variable with more than one
// value is permutable: expansion produces one instance per value. A deferred
// variable has no values at all; it is bound to a runtime fact inside the
// allocation, immediately before the test command runs.
type Variable struct {
	Name     string
	Values   []string
	Deferred bool

	// From names the runtime fact a deferred variable resolves to
	// (FactNodes, FactNodeList, FactJobID).
	From string
}

// BuildSpec is the build recipe of a template. Commands run inside a fresh
// artifact directory with GANTRY_SRC pointing at the template root.
type BuildSpec struct {
	Source   []string
	Commands []string
	Env      map[string]string
}

// RunSpec is the run recipe of a template. Commands run inside the
// instance's run directory with GANTRY_BUILD pointing at the artifact.
type RunSpec struct {
	Commands []string
	Env      map[string]string
	Timeout  time.Duration
}

// Template is an immutable parsed test definition: a build recipe, a run
// recipe and a variable space. It is never mutated after parse; expansion
// reads it and produces instances.
type Template struct {
	Suite     string
	Name      string
	Scheduler string

	Nodes        int
	Partition    string
	IncludeNodes []string
	ExcludeNodes []string

	Variables []Variable
	Build     BuildSpec
	Run       RunSpec

	// Root is the directory the suite file was loaded from. Build source
	// paths are relative to it.
	Root string
}

// FullName returns the suite-qualified test name.
func (t *Template) FullName() string {
	if t.Suite == "" {
		return t.Name
	}
	return t.Suite + "." + t.Name
}

// Variable returns the declaration for the given name, if any.
func (t *Template) Variable(name string) (Variable, bool) {
	for _, v := range t.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}
