// Package expreval compiles and evaluates the restricted
// arithmetic/boolean eligibility expressions used by rule-based
// events: a row-shaped environment of named pool and state columns,
// with event-parameter placeholders substituted into the expression
// text before compilation, since those are event-level constants
// rather than per-row values.
package expreval

import (
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/js-arias/fcarbon"
)

// Expr is a compiled eligibility or sort-value expression, evaluated
// once per stand row against a [map[string]float64] environment.
type Expr struct {
	program *vm.Program
	source  string
}

// Compile parses expr after substituting "{name}" placeholders from
// params with their values (formatted with the ecosystem's default
// float conversion), and compiles it to run over a float64-valued
// environment, rejecting expressions with free variables outside the
// declared column set.
func Compile(source string, params map[string]float64, columns []string) (*Expr, error) {
	const op = "expreval.Compile"
	text := substitute(source, params)

	env := make(map[string]float64, len(columns))
	for _, c := range columns {
		env[c] = 0
	}
	prog, err := expr.Compile(text, expr.Env(env), expr.AsBool())
	if err != nil {
		// Many eligibility expressions are boolean-valued, but
		// sort-value expressions are numeric; retry without the
		// boolean constraint before giving up.
		prog, err = expr.Compile(text, expr.Env(env))
		if err != nil {
			return nil, fcarbon.NewError(op, fcarbon.Configuration, "expression %q: %v", source, err)
		}
	}
	return &Expr{program: prog, source: text}, nil
}

func substitute(source string, params map[string]float64) string {
	if len(params) == 0 {
		return source
	}
	var b strings.Builder
	b.Grow(len(source))
	for i := 0; i < len(source); {
		if source[i] == '{' {
			if j := strings.IndexByte(source[i:], '}'); j >= 0 {
				name := source[i+1 : i+j]
				if v, ok := params[name]; ok {
					b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
					i += j + 1
					continue
				}
			}
		}
		b.WriteByte(source[i])
		i++
	}
	return b.String()
}

// Eval runs the compiled expression against one stand's row
// environment, returning a float64 (booleans convert to 1/0).
func (e *Expr) Eval(row map[string]float64) (float64, error) {
	const op = "expreval.Expr.Eval"
	env := make(map[string]interface{}, len(row))
	for k, v := range row {
		env[k] = v
	}
	out, err := expr.Run(e.program, env)
	if err != nil {
		return 0, fcarbon.NewError(op, fcarbon.Domain, "expression %q: %v", e.source, err)
	}
	switch v := out.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fcarbon.NewError(op, fcarbon.Domain, "expression %q: non-numeric result", e.source)
	}
}

// EvalBool runs the compiled expression and interprets the result as
// an eligibility mask entry (nonzero/true is eligible).
func (e *Expr) EvalBool(row map[string]float64) (bool, error) {
	v, err := e.Eval(row)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
