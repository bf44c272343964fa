package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// DefaultUndatedReminderTTL is how long undated reminders are kept.
const DefaultUndatedReminderTTL = 7 * 24 * time.Hour

type ReminderService struct {
	store ports.ReminderStore
	ttl   time.Duration
	now   func() time.Time
}

func NewReminderService(store ports.ReminderStore, ttl time.Duration) *ReminderService {
	if ttl <= 0 {
		ttl = DefaultUndatedReminderTTL
	}
	return &ReminderService{store: store, ttl: ttl, now: time.Now}
}

func (s *ReminderService) WithClock(now func() time.Time) *ReminderService {
	s.now = now
	return s
}

func (s *ReminderService) CreateReminder(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	r.Description = strings.TrimSpace(r.Description)
	if r.At != nil {
		if r.At.IsZero() {
			r.At = nil
		} else {
			at := r.At.UTC()
			r.At = &at
		}
	}
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}
	saved, err := s.store.CreateReminder(ctx, r)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	return saved, nil
}

// ListForPeriod returns the owner's dated reminders inside the month.
func (s *ReminderService) ListForPeriod(ctx context.Context, owner string, year, month int) ([]core.Reminder, error) {
	p, err := resolve(year, month)
	if err != nil {
		return nil, err
	}
	rs, err := s.store.ListDatedReminders(ctx, owner, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return rs, nil
}

func (s *ReminderService) ListUndated(ctx context.Context, owner string) ([]core.Reminder, error) {
	rs, err := s.store.ListUndatedReminders(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list undated reminders: %w", err)
	}
	return rs, nil
}

// UpdateUndated changes the description of an undated reminder.
func (s *ReminderService) UpdateUndated(ctx context.Context, owner, id, description string) (core.Reminder, error) {
	r, err := s.store.GetReminder(ctx, owner, id)
	if err != nil {
		return core.Reminder{}, err
	}
	if r.IsDated() {
		return core.Reminder{}, fmt.Errorf("reminder %s: %w", id, ErrReminderDated)
	}
	r.Description = strings.TrimSpace(description)
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}
	if err := s.store.UpdateReminder(ctx, r); err != nil {
		return core.Reminder{}, fmt.Errorf("update reminder: %w", err)
	}
	return r, nil
}

func (s *ReminderService) DeleteReminder(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteReminder(ctx, owner, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// CleanupUndated removes undated reminders older than the TTL.
func (s *ReminderService) CleanupUndated(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	n, err := s.store.DeleteUndatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup undated reminders: %w", err)
	}
	slog.DebugContext(ctx, "Undated reminder cleanup finished",
		log.FieldComponent, log.ComponentReminder,
		log.FieldOperation, log.OpCleanup,
		"removed", n,
		"cutoff", cutoff)
	return n, nil
}
