// Package memory is a non-transactional in-process implementation of
// ports.Store used by the "memory" backend and by service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	transactions map[string]core.Transaction
	categories   map[string]core.Category
	contracts    map[string]core.Contract
	reminders    map[string]core.Reminder
}

func New() *Store {
	return &Store{
		now:          time.Now,
		transactions: map[string]core.Transaction{},
		categories:   map[string]core.Category{},
		contracts:    map[string]core.Contract{},
		reminders:    map[string]core.Reminder{},
	}
}

// WithClock replaces the clock used for CreatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.OwnerKey != owner {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[t.ID]
	if !ok || cur.OwnerKey != t.OwnerKey {
		return fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	t.CreatedAt = cur.CreatedAt
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.OwnerKey != owner {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, owner string, start, end time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.OwnerKey != owner || t.OccurredAt.Before(start) || t.OccurredAt.After(end) {
			continue
		}
		out = append(out, t)
	}
	sortTransactions(out)
	return out, nil
}

func (s *Store) ListTransactionsByContract(_ context.Context, owner, contractID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.OwnerKey == owner && t.ContractID == contractID {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, owner string, kind core.Kind) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerKey == owner && c.Kind == kind {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateCategories skips names the owner already has for the same kind.
func (s *Store) CreateCategories(_ context.Context, cats []core.Category) ([]core.Category, error) {
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if s.hasCategory(c) {
			continue
		}
		c.ID = uuid.NewString()
		s.categories[c.ID] = c
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) hasCategory(c core.Category) bool {
	for _, cur := range s.categories {
		if cur.OwnerKey == c.OwnerKey && cur.Kind == c.Kind && cur.Name == c.Name {
			return true
		}
	}
	return false
}

func (s *Store) DeleteCategory(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.OwnerKey != owner {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CreateContract(_ context.Context, c core.Contract) (core.Contract, error) {
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	c.Version = 1
	c.CreatedAt = s.now().UTC()
	s.contracts[c.ID] = c
	return c, nil
}

func (s *Store) GetContract(_ context.Context, owner, id string) (core.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.OwnerKey != owner {
		return core.Contract{}, fmt.Errorf("contract %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListContracts(_ context.Context, owner string) ([]core.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Contract
	for _, c := range s.contracts {
		if c.OwnerKey == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateContract(_ context.Context, c core.Contract) (core.Contract, error) {
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.contracts[c.ID]
	if !ok || cur.OwnerKey != c.OwnerKey {
		return core.Contract{}, fmt.Errorf("contract %s: %w", c.ID, core.ErrNotFound)
	}
	if cur.Version != c.Version {
		return core.Contract{}, fmt.Errorf("contract %s at version %d: %w", c.ID, c.Version, core.ErrConflict)
	}
	c.Version++
	c.CreatedAt = cur.CreatedAt
	s.contracts[c.ID] = c
	return c, nil
}

func (s *Store) DeleteContract(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.OwnerKey != owner {
		return fmt.Errorf("contract %s: %w", id, core.ErrNotFound)
	}
	delete(s.contracts, id)
	return nil
}

func (s *Store) CreateReminder(_ context.Context, r core.Reminder) (core.Reminder, error) {
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = s.now().UTC()
	s.reminders[r.ID] = r
	return r, nil
}

func (s *Store) GetReminder(_ context.Context, owner, id string) (core.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.OwnerKey != owner {
		return core.Reminder{}, fmt.Errorf("reminder %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) UpdateReminder(_ context.Context, r core.Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reminders[r.ID]
	if !ok || cur.OwnerKey != r.OwnerKey {
		return fmt.Errorf("reminder %s: %w", r.ID, core.ErrNotFound)
	}
	r.CreatedAt = cur.CreatedAt
	s.reminders[r.ID] = r
	return nil
}

func (s *Store) DeleteReminder(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.OwnerKey != owner {
		return fmt.Errorf("reminder %s: %w", id, core.ErrNotFound)
	}
	delete(s.reminders, id)
	return nil
}

func (s *Store) ListDatedReminders(_ context.Context, owner string, start, end time.Time) ([]core.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Reminder
	for _, r := range s.reminders {
		if r.OwnerKey != owner || !r.IsDated() || r.At.Before(start) || r.At.After(end) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(*out[j].At) })
	return out, nil
}

func (s *Store) ListUndatedReminders(_ context.Context, owner string) ([]core.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Reminder
	for _, r := range s.reminders {
		if r.OwnerKey == owner && !r.IsDated() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteUndatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.reminders {
		if !r.IsDated() && r.CreatedAt.Before(cutoff) {
			delete(s.reminders, id)
			n++
		}
	}
	return n, nil
}

func sortTransactions(txs []core.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].OccurredAt.Equal(txs[j].OccurredAt) {
			return txs[i].OccurredAt.Before(txs[j].OccurredAt)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}
