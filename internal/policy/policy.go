// Package policy enforces per-operation required-field rules and a global
// minimum-confidence floor before a mutation reaches storage.
package policy

import (
	"sync"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
)

// Op names the mutating operations the policy engine gates.
type Op string

const (
	OpStore        Op = "store"
	OpUpdate       Op = "update"
	OpRelate       Op = "relate"
	OpUpdateTriple Op = "update_triple"
	OpUpsert       Op = "upsert_triple"
	OpEntity       Op = "upsert_entity"
)

// Params is the subset of an operation's input fields the policy engine
// inspects. Absent fields are the zero value; Confidence is nil when the
// caller did not supply one.
type Params struct {
	Topic      string
	Content    string
	Subject    string
	Predicate  string
	Object     string
	Name       string
	Confidence *float64
}

var defaultRequired = map[Op][]string{
	OpStore:        {"topic", "content"},
	OpUpdate:       {},
	OpRelate:       {"subject", "predicate", "object"},
	OpUpdateTriple: {},
	OpUpsert:       {"subject", "predicate", "object"},
	OpEntity:       {"name"},
}

// Engine is a process-level mutable policy singleton: required fields per
// operation and a global minimum-confidence floor. Tests reset it between
// cases with Reset.
type Engine struct {
	mu            sync.RWMutex
	required      map[Op][]string
	minConfidence float64
}

// Default is the shared policy engine used by the server.
var Default = New(0)

// New constructs an Engine seeded with the standard required-field rules
// and the given minimum-confidence floor.
func New(minConfidence float64) *Engine {
	e := &Engine{required: map[Op][]string{}, minConfidence: minConfidence}
	e.Reset(minConfidence)
	return e
}

// Reset restores the standard required-field rules and sets the
// minimum-confidence floor. Intended for test setup.
func (e *Engine) Reset(minConfidence float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.required = map[Op][]string{}
	for op, fields := range defaultRequired {
		cp := make([]string, len(fields))
		copy(cp, fields)
		e.required[op] = cp
	}
	e.minConfidence = minConfidence
}

// SetRequiredFields overrides the required-field list for an operation.
func (e *Engine) SetRequiredFields(op Op, fields []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.required[op] = fields
}

// SetMinConfidence overrides the global minimum-confidence floor.
func (e *Engine) SetMinConfidence(min float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minConfidence = min
}

// Check validates params against the required-field rule for op and the
// global confidence floor, returning a *errs.Error of kind Policy on
// violation.
func (e *Engine) Check(op Op, p Params) error {
	e.mu.RLock()
	fields := e.required[op]
	minConfidence := e.minConfidence
	e.mu.RUnlock()

	for _, f := range fields {
		if fieldEmpty(p, f) {
			return errs.Policyf("%s requires field %q", op, f)
		}
	}
	if p.Confidence != nil && *p.Confidence < minConfidence {
		return errs.Policyf("confidence %.3f below policy floor %.3f", *p.Confidence, minConfidence)
	}
	return nil
}

func fieldEmpty(p Params, name string) bool {
	switch name {
	case "topic":
		return p.Topic == ""
	case "content":
		return p.Content == ""
	case "subject":
		return p.Subject == ""
	case "predicate":
		return p.Predicate == ""
	case "object":
		return p.Object == ""
	case "name":
		return p.Name == ""
	default:
		return false
	}
}
