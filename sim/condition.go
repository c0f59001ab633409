package sim

import (
	"fmt"
)

// CompareOp names a threshold comparison in a rule condition.
type CompareOp string

const (
	OpGT CompareOp = "gt"
	OpGE CompareOp = "ge"
	OpLT CompareOp = "lt"
	OpLE CompareOp = "le"
	OpEQ CompareOp = "eq"
)

var validOps = map[CompareOp]bool{OpGT: true, OpGE: true, OpLT: true, OpLE: true, OpEQ: true}

// Condition is a declarative rule predicate over the dispatcher's observed
// state: either a single threshold comparison (Field/Op/Value), a
// conjunction (All), a disjunction (Any), or the constant true (Always).
// Conditions are data, not code, so they can be expressed in YAML and
// validated at Build time.
type Condition struct {
	All    []Condition `yaml:"all,omitempty"`
	Any    []Condition `yaml:"any,omitempty"`
	Field  string      `yaml:"field,omitempty"`
	Op     CompareOp   `yaml:"op,omitempty"`
	Value  float64     `yaml:"value,omitempty"`
	Always bool        `yaml:"always,omitempty"`
}

// Validate checks the condition is exactly one of the four forms and that
// comparison operators are known.
func (c Condition) Validate() error {
	forms := 0
	if len(c.All) > 0 {
		forms++
	}
	if len(c.Any) > 0 {
		forms++
	}
	if c.Field != "" || c.Op != "" {
		forms++
	}
	if c.Always {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("condition must be exactly one of all/any/comparison/always")
	}
	switch {
	case len(c.All) > 0:
		for i, sub := range c.All {
			if err := sub.Validate(); err != nil {
				return fmt.Errorf("all[%d]: %w", i, err)
			}
		}
	case len(c.Any) > 0:
		for i, sub := range c.Any {
			if err := sub.Validate(); err != nil {
				return fmt.Errorf("any[%d]: %w", i, err)
			}
		}
	case c.Field != "" || c.Op != "":
		if c.Field == "" {
			return fmt.Errorf("comparison is missing a field")
		}
		if !validOps[c.Op] {
			return fmt.Errorf("unknown comparison op %q", c.Op)
		}
	}
	return nil
}

// Eval evaluates the condition against the observed values. A comparison on
// a field that has not been observed yet is false, never an error: rules
// simply do not fire before their inputs exist.
func (c Condition) Eval(observed map[string]float64) bool {
	switch {
	case c.Always:
		return true
	case len(c.All) > 0:
		for _, sub := range c.All {
			if !sub.Eval(observed) {
				return false
			}
		}
		return true
	case len(c.Any) > 0:
		for _, sub := range c.Any {
			if sub.Eval(observed) {
				return true
			}
		}
		return false
	}
	v, ok := observed[c.Field]
	if !ok {
		return false
	}
	switch c.Op {
	case OpGT:
		return v > c.Value
	case OpGE:
		return v >= c.Value
	case OpLT:
		return v < c.Value
	case OpLE:
		return v <= c.Value
	case OpEQ:
		return v == c.Value
	default:
		return false
	}
}
