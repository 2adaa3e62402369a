// Package filter selects annotations with boolean expressions such as
// `type == "lemma" && start >= 10` or `type == "lemma" && value.lemma startsWith "hund"`.
package filter

import (
	"encoding/json"
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/motheatensoul/tei-scribe/internal/domain"
)

// Filter is a compiled annotation predicate
type Filter struct {
	program    *exprvm.Program
	expression string
}

// Compile parses expression. Unknown variables are rejected at compile time.
func Compile(expression string) (*Filter, error) {
	if expression == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(environment(domain.Annotation{Target: domain.WordTarget(0), Value: domain.NoteValue{}})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("while compiling filter %q: %w", expression, err)
	}
	return &Filter{program: program, expression: expression}, nil
}

func (f *Filter) String() string {
	return f.expression
}

// Match evaluates the filter against one annotation
func (f *Filter) Match(a domain.Annotation) (bool, error) {
	result, err := exprlang.Run(f.program, environment(a))
	if err != nil {
		return false, fmt.Errorf("while evaluating filter %q on %s: %w", f.expression, a.ID, err)
	}
	matched, _ := result.(bool)
	return matched, nil
}

// Select returns the annotations matching the filter, in order
func (f *Filter) Select(annotations []domain.Annotation) ([]domain.Annotation, error) {
	ret := []domain.Annotation{}
	for _, a := range annotations {
		ok, err := f.Match(a)
		if err != nil {
			return nil, err
		}
		if ok {
			ret = append(ret, a)
		}
	}
	return ret, nil
}

// environment exposes an annotation to expressions. The value is seen through
// its JSON form so every variant reads the same way.
func environment(a domain.Annotation) map[string]any {
	start, end := a.Target.Bounds()
	env := map[string]any{
		"id":         a.ID,
		"type":       string(a.Type),
		"target":     string(a.Target.Type),
		"start":      start,
		"end":        end,
		"kind":       "",
		"value":      map[string]any{},
		"author":     "",
		"source":     "",
		"confidence": 0.0,
	}
	if a.Value != nil {
		env["kind"] = string(a.Value.Kind())
		if data, err := domain.MarshalValue(a.Value); err == nil {
			var value map[string]any
			if json.Unmarshal(data, &value) == nil {
				env["value"] = value
			}
		}
	}
	if md := a.Metadata; md != nil {
		env["author"] = md.Author
		env["source"] = md.Source
		if md.Confidence != nil {
			env["confidence"] = *md.Confidence
		}
	}
	return env
}
