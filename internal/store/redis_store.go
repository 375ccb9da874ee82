package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/assignmate/assignmate/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisAssignmentStore is the document implementation of AssignmentStore.
// Each assignment is one JSON document; a per-user set indexes ownership and
// a per-user pub/sub channel carries change notifications, so every durable
// mutation is visible to live watchers within Redis's normal propagation
// latency. No buffering or batching happens in this layer.
type RedisAssignmentStore struct {
	client *redis.Client
	prefix string
}

// NewRedisAssignmentStore creates a Redis-backed AssignmentStore.
func NewRedisAssignmentStore(client *redis.Client, prefix string) *RedisAssignmentStore {
	return &RedisAssignmentStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisAssignmentStore) docKey(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *RedisAssignmentStore) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

func (s *RedisAssignmentStore) feedKey(userID string) string {
	return fmt.Sprintf("%s:feed:%s", s.prefix, userID)
}

// Create persists a new assignment document with status pending.
func (s *RedisAssignmentStore) Create(ctx context.Context, userID string, fields CreateFields) (*models.Assignment, error) {
	if err := validateCreate(fields); err != nil {
		return nil, err
	}

	now := time.Now()
	assignment := models.Assignment{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Subject:     fields.Subject,
		DueDate:     fields.DueDate,
		Priority:    fields.Priority,
		Status:      models.StatusPending,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.write(ctx, &assignment); err != nil {
		return nil, err
	}

	s.notify(ctx, userID)
	return &assignment, nil
}

// GetByID returns the assignment document with the given id.
func (s *RedisAssignmentStore) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}

	var assignment models.Assignment
	if err := json.Unmarshal(data, &assignment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assignment: %w", err)
	}
	return &assignment, nil
}

// ListByUser returns the user's assignments ordered by due date ascending.
func (s *RedisAssignmentStore) ListByUser(ctx context.Context, userID string) ([]models.Assignment, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment ids: %w", err)
	}
	if len(ids) == 0 {
		return []models.Assignment{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	assignments := make([]models.Assignment, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry with no document; the set is repaired on delete.
			continue
		}
		var assignment models.Assignment
		if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].DueDate.Before(assignments[j].DueDate)
	})
	return assignments, nil
}

// Update merges the supplied fields into the stored document.
func (s *RedisAssignmentStore) Update(ctx context.Context, id string, fields UpdateFields) (*models.Assignment, error) {
	assignment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merge(assignment, fields)
	assignment.UpdatedAt = time.Now()

	if err := s.write(ctx, assignment); err != nil {
		return nil, err
	}

	s.notify(ctx, assignment.UserID)
	return assignment, nil
}

// Delete removes the assignment document and its ownership index entry.
func (s *RedisAssignmentStore) Delete(ctx context.Context, id string) error {
	assignment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.docKey(id))
	pipe.SRem(ctx, s.userKey(assignment.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.notify(ctx, assignment.UserID)
	return nil
}

// Watch subscribes to the user's feed channel and emits a fresh list
// snapshot per notification until ctx is cancelled.
func (s *RedisAssignmentStore) Watch(ctx context.Context, userID string) (<-chan []models.Assignment, error) {
	pubsub := s.client.Subscribe(ctx, s.feedKey(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to feed: %w", err)
	}

	messages := pubsub.Channel()
	out := make(chan []models.Assignment, 1)
	go func() {
		defer pubsub.Close()
		defer close(out)

		for {
			snapshot, err := s.ListByUser(ctx, userID)
			if err != nil {
				return
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}

			select {
			case _, ok := <-messages:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *RedisAssignmentStore) write(ctx context.Context, assignment *models.Assignment) error {
	data, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("failed to marshal assignment: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(assignment.ID), data, 0)
	pipe.SAdd(ctx, s.userKey(assignment.UserID), assignment.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store assignment: %w", err)
	}
	return nil
}

func (s *RedisAssignmentStore) notify(ctx context.Context, userID string) {
	// Watchers re-read the full list, so the payload only has to wake them.
	s.client.Publish(ctx, s.feedKey(userID), "changed")
}
