package config

// SuiteFile represents the structure of a suite YAML file.
type SuiteFile struct {
	Version string             `yaml:"version"`
	Suite   string             `yaml:"suite"`
	Tests   map[string]TestDTO `yaml:"tests"`
}

// TestDTO represents a test template definition in the suite file.
type TestDTO struct {
	Scheduler    string        `yaml:"scheduler"`
	Nodes        int           `yaml:"nodes"`
	Partition    string        `yaml:"partition"`
	IncludeNodes []string      `yaml:"include_nodes"`
	ExcludeNodes []string      `yaml:"exclude_nodes"`
	Variables    []VariableDTO `yaml:"variables"`
	Build        BuildDTO      `yaml:"build"`
	Run          RunDTO        `yaml:"run"`
}

// VariableDTO is one variable declaration. Declaration order matters: it
// fixes the permutation order of the expanded instances, so variables are
// a list rather than a map.
type VariableDTO struct {
	Name     string   `yaml:"name"`
	Values   []string `yaml:"values"`
	Deferred bool     `yaml:"deferred"`
	From     string   `yaml:"from"`
}

// BuildDTO is the build recipe of a test.
type BuildDTO struct {
	Source   []string          `yaml:"source"`
	Env      map[string]string `yaml:"env"`
	Commands []string          `yaml:"commands"`
}

// RunDTO is the run recipe of a test.
type RunDTO struct {
	Env      map[string]string `yaml:"env"`
	Commands []string          `yaml:"commands"`
	Timeout  string            `yaml:"timeout"`
}
