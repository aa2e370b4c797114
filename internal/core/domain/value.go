package domain

import "strings"

// Value is one resolved or deferred variable binding. Resolved values carry
// their literal text; deferred values stay symbolic until the executing
// environment binds them, so they must never reach the build path.
type Value struct {
	text     string
	deferred bool
}

// NewValue creates a resolved Value.
func NewValue(text string) Value {
	return Value{text: text}
}

// NewDeferredValue creates a deferred Value for the named variable.
func NewDeferredValue(name string) Value {
	return Value{text: name, deferred: true}
}

// Deferred reports whether the value is still symbolic.
func (v Value) Deferred() bool {
	return v.deferred
}

// Text returns the literal text of a resolved value. For deferred values it
// returns the variable name.
func (v Value) Text() string {
	return v.text
}

// EnvRef returns the shell environment reference a deferred value renders to
// inside run commands. The scheduler adapter exports the variable in the job
// environment before the test command runs.
func (v Value) EnvRef() string {
	return "${" + EnvVarName(v.text) + "}"
}

// EnvVarName returns the environment variable a deferred variable is
// exported as inside the allocation.
func EnvVarName(variable string) string {
	return "GANTRY_" + strings.ToUpper(variable)
}
