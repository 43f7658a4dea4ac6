package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestonePatchPresence(t *testing.T) {
	var p MilestonePatch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"completed","dueDate":null}`), &p))

	assert.False(t, p.Title.Set)
	assert.False(t, p.Description.Set)
	assert.False(t, p.Category.Set)

	assert.True(t, p.Status.Set)
	assert.False(t, p.Status.Null)
	assert.Equal(t, StatusCompleted, p.Status.Value)

	assert.True(t, p.DueDate.Set)
	assert.True(t, p.DueDate.Null)
}

func TestOptionalWrongType(t *testing.T) {
	var p MilestonePatch
	err := json.Unmarshal([]byte(`{"title":42}`), &p)
	assert.Error(t, err)
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusCompleted} {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []Status{"", "archived", "Pending"} {
		assert.False(t, s.Valid(), s)
	}
}

func TestPublicUserHidesHash(t *testing.T) {
	u := &User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "secret-hash"}
	b, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret-hash")
	assert.JSONEq(t, `{"id":"u1","name":"Ada","email":"ada@example.com"}`, string(b))
}

func TestMilestoneNullDueDate(t *testing.T) {
	b, err := json.Marshal(Milestone{ID: "m1"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"dueDate":null`)
}
