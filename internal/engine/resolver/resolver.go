// Package resolver expands test templates into concrete test instances.
package resolver

import (
	"fmt"
	"regexp"

	"github.com/gantryproject/gantry/internal/core/domain"
	"go.trai.ch/zerr"
)

// refPattern matches {{name}} variable references inside recipe strings.
var refPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// knownFacts are the runtime facts deferred variables may bind to.
var knownFacts = map[string]struct{}{
	domain.FactNodes:    {},
	domain.FactNodeList: {},
	domain.FactJobID:    {},
}

// Resolver expands templates. Expansion is deterministic and restartable:
// the same template always yields the same instance IDs in the same order.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Expand produces one instance per combination of the template's permutable
// variables, in lexicographic permutation order: variables permute in
// declaration order with later variables varying fastest.
func (r *Resolver) Expand(tmpl *domain.Template) ([]*domain.Instance, error) {
	if err := validateVariables(tmpl); err != nil {
		return nil, err
	}
	if err := validateReferences(tmpl); err != nil {
		return nil, err
	}

	// Non-deferred variables participate in the permutation product.
	// Single-valued variables contribute a factor of one.
	var permutable []domain.Variable
	total := 1
	for _, v := range tmpl.Variables {
		if v.Deferred {
			continue
		}
		permutable = append(permutable, v)
		total *= len(v.Values)
	}

	instances := make([]*domain.Instance, 0, total)
	for i := range total {
		vars := make(map[string]domain.Value, len(tmpl.Variables))

		// Later variables vary fastest, so walk the index from the last
		// declared variable backwards.
		rem := i
		for j := len(permutable) - 1; j >= 0; j-- {
			n := len(permutable[j].Values)
			vars[permutable[j].Name] = domain.NewValue(permutable[j].Values[rem%n])
			rem /= n
		}

		deferred := make(map[string]string)
		for _, v := range tmpl.Variables {
			if v.Deferred {
				vars[v.Name] = domain.NewDeferredValue(v.Name)
				deferred[v.Name] = v.From
			}
		}

		inst := &domain.Instance{
			ID:           fmt.Sprintf("%s.%04d", tmpl.FullName(), i),
			Template:     tmpl,
			Vars:         vars,
			DeferredVars: deferred,
		}

		var err error
		if inst.BuildCommands, err = substituteAll(tmpl.Build.Commands, vars, false); err != nil {
			return nil, err
		}
		if inst.BuildEnv, err = substituteEnv(tmpl.Build.Env, vars, false); err != nil {
			return nil, err
		}
		if inst.RunCommands, err = substituteAll(tmpl.Run.Commands, vars, true); err != nil {
			return nil, err
		}
		if inst.RunEnv, err = substituteEnv(tmpl.Run.Env, vars, true); err != nil {
			return nil, err
		}

		instances = append(instances, inst)
	}

	return instances, nil
}

func validateVariables(tmpl *domain.Template) error {
	seen := make(map[string]struct{}, len(tmpl.Variables))
	for _, v := range tmpl.Variables {
		if _, dup := seen[v.Name]; dup {
			return zerr.With(domain.ErrDuplicateVariable, "variable", v.Name)
		}
		seen[v.Name] = struct{}{}

		if v.Deferred {
			if v.From == "" {
				return zerr.With(domain.ErrMissingFact, "variable", v.Name)
			}
			if _, ok := knownFacts[v.From]; !ok {
				return zerr.With(zerr.With(domain.ErrUnknownFact, "variable", v.Name), "fact", v.From)
			}
			continue
		}
		if len(v.Values) == 0 {
			return zerr.With(domain.ErrEmptyVariable, "variable", v.Name)
		}
	}
	return nil
}

// validateReferences checks every reference in the recipes against the
// declarations, and rejects deferred references in the build recipe before
// any instance is created.
func validateReferences(tmpl *domain.Template) error {
	check := func(s string, build bool) error {
		for _, m := range refPattern.FindAllStringSubmatch(s, -1) {
			name := m[1]
			v, ok := tmpl.Variable(name)
			if !ok {
				return zerr.With(domain.ErrUndeclaredVariable, "variable", name)
			}
			if build && v.Deferred {
				return zerr.With(domain.ErrDeferredInBuild, "variable", name)
			}
		}
		return nil
	}

	for _, c := range tmpl.Build.Commands {
		if err := check(c, true); err != nil {
			return err
		}
	}
	for _, v := range tmpl.Build.Env {
		if err := check(v, true); err != nil {
			return err
		}
	}
	for _, c := range tmpl.Run.Commands {
		if err := check(c, false); err != nil {
			return err
		}
	}
	for _, v := range tmpl.Run.Env {
		if err := check(v, false); err != nil {
			return err
		}
	}
	return nil
}

// substitute replaces {{name}} references. Resolved values substitute their
// text; deferred values render as environment references when allowed.
func substitute(s string, vars map[string]domain.Value, allowDeferred bool) (string, error) {
	var substErr error
	out := refPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := refPattern.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			substErr = zerr.With(domain.ErrUndeclaredVariable, "variable", name)
			return m
		}
		if v.Deferred() {
			if !allowDeferred {
				substErr = zerr.With(domain.ErrDeferredInBuild, "variable", name)
				return m
			}
			return v.EnvRef()
		}
		return v.Text()
	})
	return out, substErr
}

func substituteAll(in []string, vars map[string]domain.Value, allowDeferred bool) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		sub, err := substitute(s, vars, allowDeferred)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}

func substituteEnv(in map[string]string, vars map[string]domain.Value, allowDeferred bool) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for k, s := range in {
		sub, err := substitute(s, vars, allowDeferred)
		if err != nil {
			return nil, err
		}
		out[k] = sub
	}
	return out, nil
}
