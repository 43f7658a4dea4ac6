// Package filestore keeps users and milestones as two JSON array files.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"milestone-tracker/internal/model"
	"milestone-tracker/internal/store"
)

const (
	UsersFile      = "users.json"
	MilestonesFile = "milestones.json"
)

type Store struct {
	dir        string
	users      *collection[model.User]
	milestones *collection[model.Milestone]
}

var _ store.Store = (*Store)(nil)

// Open creates dir and seeds empty collections if they are missing.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	log = log.With(zap.String("store", "file"))

	users, err := newCollection[model.User](filepath.Join(dir, UsersFile), log)
	if err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	milestones, err := newCollection[model.Milestone](filepath.Join(dir, MilestonesFile), log)
	if err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	log.Info("file store opened", zap.String("dir", dir))
	return &Store{dir: dir, users: users, milestones: milestones}, nil
}

func (s *Store) Users() store.Users           { return userRepo{s.users} }
func (s *Store) Milestones() store.Milestones { return milestoneRepo{s.milestones} }

func (s *Store) Ping(context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *Store) Close() error { return nil }

type userRepo struct{ c *collection[model.User] }

func (r userRepo) List(context.Context) ([]model.User, error) {
	return r.c.all(), nil
}

func (r userRepo) ByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.c.find(func(u *model.User) bool { return u.ID == id })
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (r userRepo) ByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := r.c.find(func(u *model.User) bool { return u.Email == email })
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (r userRepo) Create(_ context.Context, u *model.User) error {
	return r.c.mutate(func(users []model.User) ([]model.User, error) {
		for _, existing := range users {
			if existing.ID == u.ID || existing.Email == u.Email {
				return nil, store.ErrDuplicate
			}
		}
		return append(users, *u), nil
	})
}

type milestoneRepo struct{ c *collection[model.Milestone] }

func (r milestoneRepo) List(context.Context) ([]model.Milestone, error) {
	return r.c.all(), nil
}

func (r milestoneRepo) ListByUser(_ context.Context, userID string) ([]model.Milestone, error) {
	out := []model.Milestone{}
	for _, m := range r.c.all() {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r milestoneRepo) ByID(_ context.Context, id string) (*model.Milestone, error) {
	m, ok := r.c.find(func(m *model.Milestone) bool { return m.ID == id })
	if !ok {
		return nil, store.ErrNotFound
	}
	return m, nil
}

func (r milestoneRepo) Create(_ context.Context, m *model.Milestone) error {
	return r.c.mutate(func(ms []model.Milestone) ([]model.Milestone, error) {
		if slices.ContainsFunc(ms, func(x model.Milestone) bool { return x.ID == m.ID }) {
			return nil, store.ErrDuplicate
		}
		return append(ms, *m), nil
	})
}

func (r milestoneRepo) Update(_ context.Context, id string, fn store.Mutation) (*model.Milestone, error) {
	var out model.Milestone
	err := r.c.mutate(func(ms []model.Milestone) ([]model.Milestone, error) {
		i := slices.IndexFunc(ms, func(x model.Milestone) bool { return x.ID == id })
		if i < 0 {
			return nil, store.ErrNotFound
		}
		fn(&ms[i])
		out = ms[i]
		return ms, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r milestoneRepo) Delete(_ context.Context, id string) error {
	return r.c.mutate(func(ms []model.Milestone) ([]model.Milestone, error) {
		i := slices.IndexFunc(ms, func(x model.Milestone) bool { return x.ID == id })
		if i < 0 {
			return nil, store.ErrNotFound
		}
		return slices.Delete(ms, i, i+1), nil
	})
}
