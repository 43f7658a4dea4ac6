// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestone-tracker/internal/model"
	"milestone-tracker/internal/store"
)

// Run exercises s. newStore must return an empty store each call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("milestones", func(t *testing.T) { testMilestones(t, newStore(t)) })
	t.Run("update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("concurrent updates", func(t *testing.T) { testConcurrentUpdates(t, newStore(t)) })
}

func NewUser(email string) *model.User {
	return &model.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func NewMilestone(userID, title string) *model.Milestone {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Milestone{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Status:    model.StatusPending,
		Category:  model.DefaultCategory,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func uniqueEmail() string {
	return fmt.Sprintf("test-%s@test.com", uuid.NewString()[:8])
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	users := s.Users()

	u := NewUser(uniqueEmail())
	require.NoError(t, users.Create(ctx, u))

	got, err := users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	got, err = users.ByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// email match is case-sensitive
	upper := NewUser(u.Email)
	upper.Email = "UPPER-" + u.Email
	_, err = users.ByEmail(ctx, upper.Email)
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, users.Create(ctx, upper))

	dup := NewUser(u.Email)
	assert.ErrorIs(t, users.Create(ctx, dup), store.ErrDuplicate)

	_, err = users.ByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testMilestones(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := NewUser(uniqueEmail())
	b := NewUser(uniqueEmail())
	require.NoError(t, s.Users().Create(ctx, a))
	require.NoError(t, s.Users().Create(ctx, b))

	ms := s.Milestones()
	first := NewMilestone(a.ID, "first")
	due := "2030-01-02"
	first.DueDate = &due
	require.NoError(t, ms.Create(ctx, first))
	require.NoError(t, ms.Create(ctx, NewMilestone(b.ID, "other")))
	require.NoError(t, ms.Create(ctx, NewMilestone(a.ID, "second")))

	assert.ErrorIs(t, ms.Create(ctx, first), store.ErrDuplicate)

	list, err := ms.ListByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Title, "insertion order")
	assert.Equal(t, "second", list[1].Title)
	require.NotNil(t, list[0].DueDate)
	assert.Equal(t, due, *list[0].DueDate)

	none, err := ms.ListByUser(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := ms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := ms.ByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.UserID)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, ms.Delete(ctx, first.ID))
	_, err = ms.ByID(ctx, first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, ms.Delete(ctx, first.ID), store.ErrNotFound)

	list, err = ms.ListByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Title)
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(uniqueEmail())
	require.NoError(t, s.Users().Create(ctx, u))

	ms := s.Milestones()
	m := NewMilestone(u.ID, "before")
	require.NoError(t, ms.Create(ctx, m))

	later := m.UpdatedAt.Add(time.Minute)
	got, err := ms.Update(ctx, m.ID, func(m *model.Milestone) {
		m.Title = "after"
		m.Status = model.StatusCompleted
		m.UpdatedAt = later
	})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)

	stored, err := ms.ByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Title)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.True(t, later.Equal(stored.UpdatedAt))
	assert.True(t, m.CreatedAt.Equal(stored.CreatedAt))

	_, err = ms.Update(ctx, uuid.NewString(), func(*model.Milestone) {})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// Each goroutine appends to the description; a lost update would drop a mark.
func testConcurrentUpdates(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(uniqueEmail())
	require.NoError(t, s.Users().Create(ctx, u))
	m := NewMilestone(u.ID, "counter")
	require.NoError(t, s.Milestones().Create(ctx, m))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Milestones().Update(ctx, m.ID, func(m *model.Milestone) {
				m.Description += "x"
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Milestones().ByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, got.Description, n)
}
