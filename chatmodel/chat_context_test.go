package chatmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatContext_Basics(t *testing.T) {
	t.Parallel()
	c := NewChatContext("cid", 123)
	require.NotNil(t, c)
	assert.Equal(t, "cid", c.GetChatID())
	assert.Equal(t, 123, c.AppData())

	val, ok := c.GetMetadata("not-found")
	assert.Nil(t, val)
	assert.False(t, ok)
	c.SetMetadata("foo", 1)
	v, ok := c.GetMetadata("foo")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestNewChatContext_DefaultID(t *testing.T) {
	t.Parallel()
	c := NewChatContext("", nil)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.GetChatID())
}

func TestContextPlumbing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Nil(t, GetChatContext(ctx))
	assert.Empty(t, GetChatID(ctx))
	assert.Empty(t, GetRunID(ctx))

	c := NewChatContext("x", nil)
	ctx = WithChatContext(ctx, c)
	assert.Equal(t, c, GetChatContext(ctx))
	assert.Equal(t, "x", GetChatID(ctx))

	rctx := WithRunID(ctx, "run1")
	assert.Equal(t, "run1", GetRunID(rctx))
	assert.Equal(t, "x", GetChatID(rctx))

	rctx = WithRunID(ctx, "")
	assert.Len(t, GetRunID(rctx), 36)
}

func TestNewIDs_Unique(t *testing.T) {
	t.Parallel()
	assert.NotEqual(t, NewChatID(), NewChatID())
	assert.NotEqual(t, NewRunID(), NewRunID())
}
