package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultDigest_Stable(t *testing.T) {
	a, err := ResultDigest(map[string]any{"ids": []int64{1, 2, 3}})
	require.NoError(t, err)
	b, err := ResultDigest(map[string]any{"ids": []any{int64(1), 2, int64(3)}})
	require.NoError(t, err)

	assert.Equal(t, a, b, "equal canonical forms share a digest")
	assert.Len(t, a, 64)
}

func TestResultDigest_Differs(t *testing.T) {
	a, err := ResultDigest(map[string]any{"ids": []int64{1, 2}})
	require.NoError(t, err)
	b, err := ResultDigest(map[string]any{"ids": []int64{2, 1}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "order is significant")
}

func TestDigest_DomainSeparation(t *testing.T) {
	v := map[string]any{"ids": []int64{1}}
	a, err := Digest(DomainResult, v)
	require.NoError(t, err)
	b, err := Digest(DomainScenario, v)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDigest_Error(t *testing.T) {
	_, err := Digest(DomainResult, map[string]any{"x": 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest varq/result/v1")
}
