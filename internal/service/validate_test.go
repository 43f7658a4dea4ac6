package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/model"
)

func TestValidate(t *testing.T) {
	s := func(v string) *string { return &v }
	st := func(v model.Status) *model.Status { return &v }

	tests := []struct {
		name string
		f    fields
		ok   bool
	}{
		{"nothing supplied", fields{}, true},
		{"title", fields{title: s("x")}, true},
		{"empty title", fields{title: s("")}, false},
		{"valid status", fields{status: st(model.StatusInProgress)}, true},
		{"bad status", fields{status: st("archived")}, false},
		{"date", fields{dueDate: s("2030-01-31")}, true},
		{"timestamp", fields{dueDate: s("2030-01-31T10:00:00Z")}, true},
		{"bad date", fields{dueDate: s("2030-02-30")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.f)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestSuppliedStatus(t *testing.T) {
	assert.Nil(t, suppliedStatus(""))
	got := suppliedStatus(model.StatusCompleted)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusCompleted, *got)
}

// Unknown-email logins compare against this hash, so it must cost what a real one does.
func TestDummyHashMatchesRealCost(t *testing.T) {
	cost, err := bcrypt.Cost([]byte(dummyHash()))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.False(t, auth.CheckPassword(dummyHash(), "testpass123"))
}
