package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThinkToolIsIdentity(t *testing.T) {
	think := NewThinkTool()
	out, err := think.Invoke(context.Background(), map[string]any{"thought": "check the docs first"})
	require.NoError(t, err)
	assert.Equal(t, "check the docs first", out)
}

func TestThinkToolRejectsNonString(t *testing.T) {
	think := NewThinkTool()
	_, err := think.Invoke(context.Background(), map[string]any{"thought": 42})
	te, ok := AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryMalformedArguments, te.Category)
}

func TestThinkToolBindsBareString(t *testing.T) {
	r, err := NewRegistry(NewThinkTool())
	require.NoError(t, err)

	args, err := r.NormalizeArguments("think", "just a plain reasoning step")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"thought": "just a plain reasoning step"}, args)
}
