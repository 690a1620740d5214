package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatContextClone(t *testing.T) {
	ctx := NewChatContext()
	ctx.SetLock("office", "Miami", true)
	ctx.LastPerson = "john doe"
	ctx.PDFUser = &PDFUser{ID: "42", Name: "John"}

	clone := ctx.Clone()
	clone.SetLock("office", "Orlando", false)
	clone.PDFUser.Name = "Jane"

	assert.Equal(t, "Miami", ctx.Filters["office"].Value, "clone must not alias filters")
	assert.True(t, ctx.Filters["office"].Exact)
	assert.Equal(t, "John", ctx.PDFUser.Name, "clone must not alias pdf user")
}

func TestChatContextCloneNil(t *testing.T) {
	var ctx *ChatContext
	clone := ctx.Clone()
	assert.NotNil(t, clone)
	assert.NotNil(t, clone.Filters)
}

func TestSetAndClearLock(t *testing.T) {
	ctx := &ChatContext{}
	ctx.SetLock("team", "Alpha", false)
	lock, ok := ctx.Filters["team"]
	assert.True(t, ok)
	assert.True(t, lock.Locked)
	assert.False(t, lock.Exact)

	ctx.ClearLock("team")
	_, ok = ctx.Filters["team"]
	assert.False(t, ok)
}
