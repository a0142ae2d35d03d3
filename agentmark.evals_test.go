package agentmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exactMatch(_ context.Context, params EvalParams) (EvalResult, error) {
	if params.Output == params.ExpectedOutput {
		return EvalResult{Score: 1, Label: "match", Passed: true}, nil
	}
	return EvalResult{Score: 0, Label: "mismatch", Reason: "output differs"}, nil
}

func TestEvalRegistry_RegisterAndRun(t *testing.T) {
	r := NewEvalRegistry(nil)
	require.NoError(t, r.Register(exactMatch, "exact", "exact_alias"))

	assert.True(t, r.Has("exact"))
	assert.True(t, r.Has("exact_alias"))
	assert.Equal(t, []string{"exact", "exact_alias"}, r.Names())

	results, err := r.Run(context.Background(), []string{"exact"}, EvalParams{
		Input:          map[string]any{"q": "2+2"},
		Output:         "4",
		ExpectedOutput: "4",
	})
	require.NoError(t, err)
	assert.Equal(t, EvalResult{Score: 1, Label: "match", Passed: true}, results["exact"])
}

func TestEvalRegistry_RegisterOverwrites(t *testing.T) {
	r := NewEvalRegistry(nil)
	r.MustRegister(exactMatch, "check")
	r.MustRegister(func(context.Context, EvalParams) (EvalResult, error) {
		return EvalResult{Score: 0.5}, nil
	}, "check")

	results, err := r.Run(context.Background(), []string{"check"}, EvalParams{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, results["check"].Score, 1e-9)
}

func TestEvalRegistry_InvalidRegistration(t *testing.T) {
	r := NewEvalRegistry(nil)

	err := r.Register(nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNilEval)

	err = r.Register(exactMatch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgInvalidEvalName)

	err = r.Register(exactMatch, "ok", "")
	require.Error(t, err)
	assert.False(t, r.Has("ok"), "a failed registration stores nothing")

	assert.Panics(t, func() { r.MustRegister(nil, "x") })
}

func TestEvalRegistry_RemoveAndClear(t *testing.T) {
	r := NewEvalRegistry(nil)
	r.MustRegister(exactMatch, "a", "b")

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, []string{"b"}, r.Names())

	r.Clear()
	assert.Empty(t, r.Names())
}

func TestEvalRegistry_RunErrors(t *testing.T) {
	r := NewEvalRegistry(nil)
	boom := errors.New("judge unavailable")
	r.MustRegister(func(context.Context, EvalParams) (EvalResult, error) {
		return EvalResult{}, boom
	}, "judge")

	_, err := r.Run(context.Background(), []string{"missing"}, EvalParams{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Run(context.Background(), []string{"judge"}, EvalParams{})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, []string{"judge"}, EvalParams{})
	assert.ErrorIs(t, err, context.Canceled)
}
