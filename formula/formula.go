// Package formula implements the minimal arithmetic expression language
// metric engines consult optionally per spec §4.M, atop
// github.com/expr-lang/expr (formerly github.com/antonmedv/expr) — grounded on sghctoma-sst/gosst/formats' use of
// the same library for exactly this shape of problem.
package formula

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"

	"github.com/lucasjlepore/trainload/scalar"
)

// Evaluator compiles and runs a user-supplied expression over a named
// variable environment, returning a D. expr has no native decimal support,
// so the environment and result cross the float64 boundary at the edges of
// this one evaluation, per spec §3's floating-point exception — the result
// is rounded back to D with banker's rounding before being returned.
type Evaluator struct{}

// NewEvaluator builds an Evaluator.
func NewEvaluator() *Evaluator { return &Evaluator{} }

// Eval compiles exprStr and evaluates it against env. Division by zero and
// references to undefined variables are returned as errors, per spec §4.M;
// callers (§4.G, §4.J) are expected to fall back to their built-in formula
// and mark a quality flag on error rather than propagate it further.
func (e *Evaluator) Eval(exprStr string, env map[string]scalar.D) (scalar.D, error) {
	floatEnv := make(map[string]any, len(env))
	for k, v := range env {
		floatEnv[k] = v.Float64()
	}

	program, err := expr.Compile(exprStr, expr.Env(floatEnv))
	if err != nil {
		return scalar.Zero, fmt.Errorf("formula: compile %q: %w", exprStr, err)
	}

	out, err := expr.Run(program, floatEnv)
	if err != nil {
		return scalar.Zero, fmt.Errorf("formula: eval %q: %w", exprStr, err)
	}

	switch v := out.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return scalar.Zero, fmt.Errorf("formula: expression %q produced a non-finite result (division by zero)", exprStr)
		}
		return scalar.NewFromFloat(v).RoundDefault(), nil
	case int:
		return scalar.NewFromInt(int64(v)), nil
	default:
		return scalar.Zero, fmt.Errorf("formula: expression %q produced non-numeric result %T", exprStr, out)
	}
}
