// Package store defines the persistence contract for users and milestones.
// Backends live in subpackages: filestore (JSON arrays on disk), memstore
// and pgstore.
package store

import (
	"context"
	"errors"

	"milestone-tracker/internal/model"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate entry")
)

type Users interface {
	List(ctx context.Context) ([]model.User, error)
	ByID(ctx context.Context, id string) (*model.User, error)
	// ByEmail matches the stored email exactly (case-sensitive).
	ByEmail(ctx context.Context, email string) (*model.User, error)
	// Create fails with ErrDuplicate if the id or email is taken.
	Create(ctx context.Context, u *model.User) error
}

// Mutation edits a stored milestone in place during Update.
type Mutation func(m *model.Milestone)

type Milestones interface {
	List(ctx context.Context) ([]model.Milestone, error)
	// ListByUser returns the user's milestones in insertion order.
	ListByUser(ctx context.Context, userID string) ([]model.Milestone, error)
	ByID(ctx context.Context, id string) (*model.Milestone, error)
	Create(ctx context.Context, m *model.Milestone) error
	// Update applies fn to the stored record and persists it, returning the result.
	Update(ctx context.Context, id string, fn Mutation) (*model.Milestone, error)
	Delete(ctx context.Context, id string) error
}

// Store bundles both collections of one backend.
type Store interface {
	Users() Users
	Milestones() Milestones
	Ping(ctx context.Context) error
	Close() error
}
