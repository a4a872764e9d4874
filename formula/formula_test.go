package formula

import (
	"testing"

	"github.com/lucasjlepore/trainload/scalar"
)

func TestEvalClassicTSS(t *testing.T) {
	e := NewEvaluator()
	env := map[string]scalar.D{
		"duration": scalar.NewFromInt(1),
		"IF":       scalar.MustParse("0.8"),
	}
	got, err := e.Eval("(duration * IF ^ 2) * 100", env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.String() != "64" {
		t.Fatalf("got %s, want 64", got.String())
	}
}

func TestEvalUndefinedVariableErrors(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Eval("x + 1", map[string]scalar.D{})
	if err == nil {
		t.Fatal("expected error for undefined variable")
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	e := NewEvaluator()
	env := map[string]scalar.D{"a": scalar.NewFromInt(1), "b": scalar.Zero}
	_, err := e.Eval("a / b", env)
	if err == nil {
		t.Fatal("expected error for division by zero")
	}
}
