// Package memstore is an in-process Store used by tests and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"slices"
	"sync"

	"milestone-tracker/internal/model"
	"milestone-tracker/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	users      []model.User
	milestones []model.Milestone
}

var _ store.Store = (*Store)(nil)

func New() *Store { return &Store{} }

func (s *Store) Users() store.Users           { return userRepo{s} }
func (s *Store) Milestones() store.Milestones { return milestoneRepo{s} }
func (s *Store) Ping(context.Context) error   { return nil }
func (s *Store) Close() error                 { return nil }

type userRepo struct{ s *Store }

func (r userRepo) List(context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.users), nil
}

func (r userRepo) find(match func(model.User) bool) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := slices.IndexFunc(r.s.users, match); i >= 0 {
		u := r.s.users[i]
		return &u, nil
	}
	return nil, store.ErrNotFound
}

func (r userRepo) ByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r userRepo) ByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if slices.ContainsFunc(r.s.users, func(x model.User) bool { return x.ID == u.ID || x.Email == u.Email }) {
		return store.ErrDuplicate
	}
	r.s.users = append(r.s.users, *u)
	return nil
}

type milestoneRepo struct{ s *Store }

func (r milestoneRepo) List(context.Context) ([]model.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneAll(r.s.milestones), nil
}

func (r milestoneRepo) ListByUser(_ context.Context, userID string) ([]model.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Milestone{}
	for _, m := range r.s.milestones {
		if m.UserID == userID {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (r milestoneRepo) ByID(_ context.Context, id string) (*model.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		m := clone(r.s.milestones[i])
		return &m, nil
	}
	return nil, store.ErrNotFound
}

func (r milestoneRepo) Create(_ context.Context, m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.index(m.ID) >= 0 {
		return store.ErrDuplicate
	}
	r.s.milestones = append(r.s.milestones, clone(*m))
	return nil
}

func (r milestoneRepo) Update(_ context.Context, id string, fn store.Mutation) (*model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	m := clone(r.s.milestones[i])
	fn(&m)
	r.s.milestones[i] = clone(m)
	return &m, nil
}

func (r milestoneRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return store.ErrNotFound
	}
	r.s.milestones = slices.Delete(r.s.milestones, i, i+1)
	return nil
}

// index expects the caller to hold the lock.
func (r milestoneRepo) index(id string) int {
	return slices.IndexFunc(r.s.milestones, func(m model.Milestone) bool { return m.ID == id })
}

// clone detaches the due date pointer so callers cannot edit stored state.
func clone(m model.Milestone) model.Milestone {
	if m.DueDate != nil {
		d := *m.DueDate
		m.DueDate = &d
	}
	return m
}

func cloneAll(ms []model.Milestone) []model.Milestone {
	out := make([]model.Milestone, len(ms))
	for i, m := range ms {
		out[i] = clone(m)
	}
	return out
}
