package tools

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorBasics(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2 + 2", 4},
		{"10 - 3 * 2", 4},
		{"(10 - 3) * 2", 14},
		{"7 / 2", 3.5},
		{"10 % 3", 1},
		{"2^10", 1024},
		{"2^3^2", 512},
		{"-4 + 6", 2},
		{"3 * -2", -6},
		{"sqrt(16)", 4},
		{"abs(-5)", 5},
		{"min(3, 7)", 3},
		{"max(3, 7)", 7},
		{"pow(2, 8)", 256},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"round(2.5)", 3},
		{"ln(e)", 1},
		{"log(1000)", 3},
		{"1.5e2 + 1", 151},
	}
	for _, tc := range cases {
		got, err := evalExpression(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.InDelta(t, tc.want, got, 1e-9, tc.expr)
	}
}

func TestCalculatorConstants(t *testing.T) {
	got, err := evalExpression("sin(pi / 2)")
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-9)

	got, err = evalExpression("cos(0) + e")
	require.NoError(t, err)
	assert.InDelta(t, 1+math.E, got, 1e-9)
}

func TestCalculatorErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"2 +",
		"(1 + 2",
		"1 / 0",
		"10 % 0",
		"sqrt(-1)",
		"nope(3)",
		"foo",
		"2 2",
		"min(1)",
	} {
		_, err := evalExpression(expr)
		assert.Error(t, err, "expr %q", expr)
	}
}

func TestCalculatorExecute(t *testing.T) {
	calc := &Calculator{}
	out, err := calc.Execute(context.Background(), json.RawMessage(`{"expression":"2 + 2"}`))
	require.NoError(t, err)
	assert.Equal(t, "2 + 2 = 4", out)

	_, err = calc.Execute(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expression")
}
