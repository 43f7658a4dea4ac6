package service

import (
	"time"

	"milestone-tracker/internal/model"
)

// fields holds the milestone values a request supplies. nil means "not supplied".
type fields struct {
	title   *string
	status  *model.Status
	dueDate *string
}

// validate is shared by create and update.
func validate(f fields) error {
	if f.title != nil && *f.title == "" {
		return invalid("Title is required")
	}
	if f.status != nil && !f.status.Valid() {
		return invalid("Invalid status")
	}
	if f.dueDate != nil && !validDate(*f.dueDate) {
		return invalid("Invalid due date")
	}
	return nil
}

// suppliedStatus treats an empty status as not supplied, on create and update alike.
func suppliedStatus(s model.Status) *model.Status {
	if s == "" {
		return nil
	}
	return &s
}

// validDate accepts a calendar date or a full RFC 3339 timestamp.
func validDate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
