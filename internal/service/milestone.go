package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/model"
	"milestone-tracker/internal/store"
)

type MilestoneService struct {
	milestones store.Milestones
	users      store.Users
	log        *zap.Logger
	now        func() time.Time
}

func NewMilestoneService(milestones store.Milestones, users store.Users, log *zap.Logger) *MilestoneService {
	return &MilestoneService{milestones: milestones, users: users, log: log, now: time.Now}
}

func (s *MilestoneService) List(ctx context.Context, caller auth.Identity) ([]model.Milestone, error) {
	ms, err := s.milestones.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.log.Error("list milestones failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, internal(err)
	}
	return ms, nil
}

func (s *MilestoneService) Get(ctx context.Context, caller auth.Identity, id string) (*model.Milestone, error) {
	return s.owned(ctx, caller, id)
}

func (s *MilestoneService) Create(ctx context.Context, caller auth.Identity, in model.MilestoneInput) (*model.Milestone, error) {
	f := fields{title: &in.Title, status: suppliedStatus(in.Status)}
	if in.DueDate != nil && *in.DueDate != "" {
		f.dueDate = in.DueDate
	}
	if err := validate(f); err != nil {
		return nil, err
	}

	if _, err := s.users.ByID(ctx, caller.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(ErrUnauthorized, "User not found")
		}
		return nil, internal(err)
	}

	now := s.now().UTC()
	m := &model.Milestone{
		ID:          uuid.NewString(),
		UserID:      caller.UserID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Category:    in.Category,
		DueDate:     f.dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if m.Status == "" {
		m.Status = model.StatusPending
	}
	if m.Category == "" {
		m.Category = model.DefaultCategory
	}

	if err := s.milestones.Create(ctx, m); err != nil {
		s.log.Error("create milestone failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, internal(err)
	}
	s.log.Info("milestone created", zap.String("id", m.ID), zap.String("user_id", m.UserID))
	return m, nil
}

func (s *MilestoneService) Update(ctx context.Context, caller auth.Identity, id string, p model.MilestonePatch) (*model.Milestone, error) {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}

	var f fields
	if p.Title.Set {
		if p.Title.Null {
			return nil, invalid("Title is required")
		}
		f.title = &p.Title.Value
	}
	if p.Status.Set {
		if p.Status.Null {
			return nil, invalid("Invalid status")
		}
		if f.status = suppliedStatus(p.Status.Value); f.status == nil {
			p.Status = model.Optional[model.Status]{}
		}
	}
	if p.DueDate.Set && !p.DueDate.Null && p.DueDate.Value != "" {
		f.dueDate = &p.DueDate.Value
	}
	if err := validate(f); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m, err := s.milestones.Update(ctx, id, func(m *model.Milestone) {
		applyPatch(m, p)
		m.UpdatedAt = now
	})
	if err != nil {
		// deleted between the ownership check and the write
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(ErrNotFound, "Milestone not found")
		}
		s.log.Error("update milestone failed", zap.String("id", id), zap.Error(err))
		return nil, internal(err)
	}
	s.log.Info("milestone updated", zap.String("id", id))
	return m, nil
}

func (s *MilestoneService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.milestones.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newErr(ErrNotFound, "Milestone not found")
		}
		s.log.Error("delete milestone failed", zap.String("id", id), zap.Error(err))
		return internal(err)
	}
	s.log.Info("milestone deleted", zap.String("id", id))
	return nil
}

// owned loads id and checks that caller owns it.
func (s *MilestoneService) owned(ctx context.Context, caller auth.Identity, id string) (*model.Milestone, error) {
	m, err := s.milestones.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newErr(ErrNotFound, "Milestone not found")
		}
		s.log.Error("load milestone failed", zap.String("id", id), zap.Error(err))
		return nil, internal(err)
	}
	if m.UserID != caller.UserID {
		s.log.Warn("milestone access denied",
			zap.String("id", id), zap.String("user_id", caller.UserID))
		return nil, newErr(ErrForbidden, "Access denied")
	}
	return m, nil
}

func applyPatch(m *model.Milestone, p model.MilestonePatch) {
	if p.Title.Set {
		m.Title = p.Title.Value
	}
	if p.Description.Set {
		m.Description = p.Description.Value
	}
	if p.Status.Set {
		m.Status = p.Status.Value
	}
	if p.Category.Set {
		m.Category = p.Category.Value
		if p.Category.Null {
			m.Category = model.DefaultCategory
		}
	}
	if p.DueDate.Set {
		if p.DueDate.Null || p.DueDate.Value == "" {
			m.DueDate = nil
		} else {
			d := p.DueDate.Value
			m.DueDate = &d
		}
	}
}
