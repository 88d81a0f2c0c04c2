package condition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func callCtx(tool string, args map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"server":    "files",
		"tool":      tool,
		"arguments": args,
	}
}

func TestEvaluate_EmptyExpressionIsTrue(t *testing.T) {
	eval := New()
	ok, err := eval.Evaluate("", callCtx("read", nil))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluate_Comparisons(t *testing.T) {
	eval := New()

	tests := []struct {
		expr string
		want bool
	}{
		{`tool == "read"`, true},
		{`tool != "read"`, false},
		{`server == "files" && tool == "read"`, true},
		{`tool == "write" || server == "files"`, true},
		{`arguments.depth > 2`, true},
		{`arguments.depth > 5`, false},
	}

	ctx := callCtx("read", map[string]interface{}{"depth": 3})
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr, ctx)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_HelperFunctions(t *testing.T) {
	eval := New()
	ctx := callCtx("write", map[string]interface{}{
		"tags":  []string{"prod", "critical"},
		"paths": map[string]interface{}{"target": "/tmp/x"},
		"note":  "deploy to staging",
	})

	ok, err := eval.Evaluate(`has(arguments.tags, "prod")`, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = eval.Evaluate(`includes(arguments.paths, "target")`, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = eval.Evaluate(`has(arguments.note, "staging")`, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = eval.Evaluate(`length(arguments.tags) == 2`, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = eval.Evaluate(`has(arguments.tags, "dev")`, ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluate_CompileError(t *testing.T) {
	eval := New()
	_, err := eval.Evaluate(`tool ==`, callCtx("read", nil))
	require.Error(t, err)
}

func TestEvaluate_NonBooleanResult(t *testing.T) {
	eval := New()
	// AsBool rejects non-boolean expressions at compile time.
	_, err := eval.Evaluate(`1 + 1`, callCtx("read", nil))
	require.Error(t, err)
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	eval := New()
	require.Equal(t, 0, eval.CacheSize())

	_, err := eval.Evaluate(`tool == "read"`, callCtx("read", nil))
	require.NoError(t, err)
	require.Equal(t, 1, eval.CacheSize())

	_, err = eval.Evaluate(`tool == "read"`, callCtx("write", nil))
	require.NoError(t, err)
	require.Equal(t, 1, eval.CacheSize())

	eval.ClearCache()
	require.Equal(t, 0, eval.CacheSize())
}
