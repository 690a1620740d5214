package chatstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

func pendingFixture() *models.PendingPick {
	return &models.PendingPick{
		Type:   "person",
		DimKey: "person",
		Options: []models.PickOption{
			{ID: 1, Label: "ana garcia", Sub: "12 cases", Value: "ana garcia"},
			{ID: 2, Label: "ana lopez", Sub: "7 cases", Value: "ana lopez"},
			{ID: 3, Label: "ana maria soto", Sub: "7 cases", Value: "ana maria soto"},
		},
		OriginalMessage: "cases of ana",
	}
}

func TestResolvePickByNumber(t *testing.T) {
	p := pendingFixture()

	tests := []struct {
		reply string
		want  string
	}{
		{"2", "ana lopez"},
		{" 2 ", "ana lopez"},
		{"#2", "ana lopez"},
		{"2.", "ana lopez"},
		{"1", "ana garcia"},
		{"3", "ana maria soto"},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got := ResolvePick(p, tt.reply)
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, got.Value)
			}
		})
	}
}

func TestResolvePickOutOfRange(t *testing.T) {
	p := pendingFixture()
	assert.Nil(t, ResolvePick(p, "0"))
	assert.Nil(t, ResolvePick(p, "4"))
	assert.Nil(t, ResolvePick(p, "99"))
}

func TestResolvePickByText(t *testing.T) {
	p := pendingFixture()

	got := ResolvePick(p, "ana lopez")
	if assert.NotNil(t, got) {
		assert.Equal(t, "ana lopez", got.Value)
	}

	// Substring in either direction.
	got = ResolvePick(p, "lopez")
	if assert.NotNil(t, got) {
		assert.Equal(t, "ana lopez", got.Value)
	}
	got = ResolvePick(p, "the second one is ana lopez")
	if assert.NotNil(t, got) {
		assert.Equal(t, "ana lopez", got.Value)
	}
}

func TestResolvePickAmbiguousSubstring(t *testing.T) {
	p := pendingFixture()
	// "ana" is a substring of every option.
	assert.Nil(t, ResolvePick(p, "ana"))
}

func TestResolvePickNilAndEmpty(t *testing.T) {
	assert.Nil(t, ResolvePick(nil, "1"))
	assert.Nil(t, ResolvePick(pendingFixture(), "  "))
	assert.Nil(t, ResolvePick(&models.PendingPick{}, "1"))
}

func TestLooksLikePickReply(t *testing.T) {
	assert.True(t, LooksLikePickReply("2"))
	assert.True(t, LooksLikePickReply(" #3 "))
	assert.False(t, LooksLikePickReply("cases of ana"))
	assert.False(t, LooksLikePickReply("2 cases"))
}
