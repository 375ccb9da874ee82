package assignmate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMutationInFlight is returned when a record already has an unsettled
// mutation; the caller should disable further actions on that row.
var ErrMutationInFlight = errors.New("a mutation for this assignment is already in flight")

// API is the subset of the server surface the Syncer mutates through.
// *Client satisfies it.
type API interface {
	ListAssignments(ctx context.Context) ([]Assignment, error)
	CreateAssignment(ctx context.Context, input CreateAssignmentInput) (*Assignment, error)
	UpdateAssignment(ctx context.Context, id string, input UpdateAssignmentInput) (*Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

// Syncer keeps an in-memory copy of one user's assignments. Mutations are
// applied optimistically, then reconciled with the server-confirmed record;
// on failure the previous local state is restored. Derived views (upcoming,
// recent, stats) are computed locally to avoid extra round trips.
//
// At most one mutation per record id may be in flight. Two clients editing
// the same record concurrently race at the store: the last write the store
// observes wins.
type Syncer struct {
	api API

	mu          sync.Mutex
	assignments []Assignment
	inflight    map[string]struct{}
}

// NewSyncer creates a Syncer over the given API.
func NewSyncer(api API) *Syncer {
	return &Syncer{
		api:      api,
		inflight: make(map[string]struct{}),
	}
}

// Refresh replaces the local list with a one-shot server fetch.
func (s *Syncer) Refresh(ctx context.Context) error {
	assignments, err := s.api.ListAssignments(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = assignments
	return nil
}

// Assignments returns a copy of the local list, due date ascending.
func (s *Syncer) Assignments() []Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// InFlight reports whether a mutation for the given id has not settled yet.
func (s *Syncer) InFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}

// Create optimistically inserts a placeholder, requests the create, and
// replaces the placeholder with the server-confirmed record. On failure the
// placeholder is removed and the list is as before.
func (s *Syncer) Create(ctx context.Context, input CreateAssignmentInput) (*Assignment, error) {
	placeholder := Assignment{
		ID:          "local-" + uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Subject:     input.Subject,
		Priority:    input.Priority,
		Status:      StatusPending,
	}
	if due, err := time.Parse(time.RFC3339, input.DueDate); err == nil {
		placeholder.DueDate = due
	}

	s.mu.Lock()
	s.assignments = append(s.assignments, placeholder)
	s.inflight[placeholder.ID] = struct{}{}
	s.mu.Unlock()

	created, err := s.api.CreateAssignment(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, placeholder.ID)
	s.removeLocked(placeholder.ID)
	if err != nil {
		return nil, err
	}
	s.upsertLocked(*created)
	return created, nil
}

// Update optimistically patches the local record, requests the update, and
// merges the server-confirmed record. On failure the previous record is
// restored.
func (s *Syncer) Update(ctx context.Context, id string, input UpdateAssignmentInput) (*Assignment, error) {
	s.mu.Lock()
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return nil, ErrMutationInFlight
	}
	previous, ok := s.findLocked(id)
	if ok {
		patched := previous
		applyUpdate(&patched, input)
		s.upsertLocked(patched)
	}
	s.inflight[id] = struct{}{}
	s.mu.Unlock()

	updated, err := s.api.UpdateAssignment(ctx, id, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
	if err != nil {
		if ok {
			s.upsertLocked(previous)
		}
		return nil, err
	}
	s.upsertLocked(*updated)
	return updated, nil
}

// Delete optimistically removes the local record and requests the delete.
// On failure the record is restored.
func (s *Syncer) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	previous, ok := s.findLocked(id)
	s.removeLocked(id)
	s.inflight[id] = struct{}{}
	s.mu.Unlock()

	err := s.api.DeleteAssignment(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
	if err != nil {
		if ok {
			s.upsertLocked(previous)
		}
		return err
	}
	return nil
}

// Run consumes a live snapshot feed and replaces the local list wholesale
// on each event, until the feed closes or ctx is cancelled. Feed events
// settle any divergence left by failed or foreign mutations.
func (s *Syncer) Run(ctx context.Context, feed <-chan []Assignment) {
	for {
		select {
		case snapshot, ok := <-feed:
			if !ok {
				return
			}
			s.mu.Lock()
			s.assignments = snapshot
			s.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Stats summarizes the local list for the dashboard.
type Stats struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

// ComputeStats counts the local list the way the dashboard buckets it:
// completed by status, overdue as past-due and not completed, pending as
// open work that is not yet due.
func (s *Syncer) ComputeStats(now time.Time) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Total: len(s.assignments)}
	for _, a := range s.assignments {
		switch {
		case a.Status == StatusCompleted:
			stats.Completed++
		case a.DueDate.Before(now):
			stats.Overdue++
		case a.Status == StatusPending || a.Status == StatusInProgress:
			stats.Pending++
		}
	}
	return stats
}

// Upcoming returns open assignments due at or after now, due date
// ascending, capped to limit.
func (s *Syncer) Upcoming(now time.Time, limit int) []Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	upcoming := make([]Assignment, 0, limit)
	for _, a := range s.snapshotLocked() {
		if a.Status != StatusPending && a.Status != StatusInProgress {
			continue
		}
		if a.DueDate.Before(now) {
			continue
		}
		upcoming = append(upcoming, a)
		if len(upcoming) == limit {
			break
		}
	}
	return upcoming
}

// Recent returns the most recently created assignments, capped to limit.
func (s *Syncer) Recent(limit int) []Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]Assignment, len(s.assignments))
	copy(recent, s.assignments)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

func (s *Syncer) snapshotLocked() []Assignment {
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	sort.Slice(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

func (s *Syncer) findLocked(id string) (Assignment, bool) {
	for _, a := range s.assignments {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

func (s *Syncer) upsertLocked(assignment Assignment) {
	for i, a := range s.assignments {
		if a.ID == assignment.ID {
			s.assignments[i] = assignment
			return
		}
	}
	s.assignments = append(s.assignments, assignment)
}

func (s *Syncer) removeLocked(id string) {
	for i, a := range s.assignments {
		if a.ID == id {
			s.assignments = append(s.assignments[:i], s.assignments[i+1:]...)
			return
		}
	}
}

func applyUpdate(a *Assignment, input UpdateAssignmentInput) {
	if input.Title != nil {
		a.Title = *input.Title
	}
	if input.Description != nil {
		a.Description = *input.Description
	}
	if input.Subject != nil {
		a.Subject = *input.Subject
	}
	if input.DueDate != nil {
		if due, err := time.Parse(time.RFC3339, *input.DueDate); err == nil {
			a.DueDate = due
		}
	}
	if input.Priority != nil {
		a.Priority = *input.Priority
	}
	if input.Status != nil {
		a.Status = *input.Status
	}
}
