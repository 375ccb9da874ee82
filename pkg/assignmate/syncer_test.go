package assignmate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI scripts server responses for the Syncer.
type fakeAPI struct {
	mu sync.Mutex

	listResult   []Assignment
	createResult *Assignment
	updateResult *Assignment

	failCreate bool
	failUpdate bool
	failDelete bool

	// release, when set, blocks mutations until closed.
	release chan struct{}

	deleted []string
}

var errServer = errors.New("server rejected the request")

func (f *fakeAPI) wait() {
	f.mu.Lock()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
}

func (f *fakeAPI) ListAssignments(ctx context.Context) ([]Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listResult, nil
}

func (f *fakeAPI) CreateAssignment(ctx context.Context, input CreateAssignmentInput) (*Assignment, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, errServer
	}
	return f.createResult, nil
}

func (f *fakeAPI) UpdateAssignment(ctx context.Context, id string, input UpdateAssignmentInput) (*Assignment, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return nil, errServer
	}
	return f.updateResult, nil
}

func (f *fakeAPI) DeleteAssignment(ctx context.Context, id string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errServer
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func serverAssignment(id, title string, due time.Time) Assignment {
	return Assignment{
		ID:        id,
		Title:     title,
		Subject:   "Math",
		DueDate:   due,
		Priority:  PriorityMedium,
		Status:    StatusPending,
		UserID:    "user-1",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestSyncer_Refresh(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{listResult: []Assignment{
		serverAssignment("a-2", "Later", now.Add(48*time.Hour)),
		serverAssignment("a-1", "Sooner", now.Add(24*time.Hour)),
	}}
	syncer := NewSyncer(api)

	require.NoError(t, syncer.Refresh(context.Background()))

	assignments := syncer.Assignments()
	require.Len(t, assignments, 2)
	assert.Equal(t, "Sooner", assignments[0].Title)
	assert.Equal(t, "Later", assignments[1].Title)
}

func TestSyncer_Create_ReplacesPlaceholderWithConfirmed(t *testing.T) {
	now := time.Now()
	confirmed := serverAssignment("server-id", "Essay", now.Add(24*time.Hour))
	api := &fakeAPI{createResult: &confirmed}
	syncer := NewSyncer(api)

	created, err := syncer.Create(context.Background(), CreateAssignmentInput{
		Title:    "Essay",
		Subject:  "Math",
		DueDate:  now.Add(24 * time.Hour).Format(time.RFC3339),
		Priority: PriorityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, "server-id", created.ID)

	assignments := syncer.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, "server-id", assignments[0].ID)
	assert.False(t, syncer.InFlight("server-id"))
}

func TestSyncer_Create_FailureRemovesPlaceholder(t *testing.T) {
	api := &fakeAPI{failCreate: true}
	syncer := NewSyncer(api)

	_, err := syncer.Create(context.Background(), CreateAssignmentInput{
		Title:    "Essay",
		Subject:  "Math",
		DueDate:  time.Now().Format(time.RFC3339),
		Priority: PriorityMedium,
	})
	require.ErrorIs(t, err, errServer)
	assert.Empty(t, syncer.Assignments())
}

func TestSyncer_Update_OptimisticThenConfirmed(t *testing.T) {
	now := time.Now()
	current := serverAssignment("a-1", "Essay", now.Add(24*time.Hour))
	confirmed := current
	confirmed.Status = StatusCompleted
	api := &fakeAPI{
		listResult:   []Assignment{current},
		updateResult: &confirmed,
	}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	status := StatusCompleted
	updated, err := syncer.Update(context.Background(), "a-1", UpdateAssignmentInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	assignments := syncer.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, StatusCompleted, assignments[0].Status)
}

func TestSyncer_Update_FailureRollsBack(t *testing.T) {
	now := time.Now()
	current := serverAssignment("a-1", "Essay", now.Add(24*time.Hour))
	api := &fakeAPI{
		listResult: []Assignment{current},
		failUpdate: true,
	}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	status := StatusCompleted
	_, err := syncer.Update(context.Background(), "a-1", UpdateAssignmentInput{Status: &status})
	require.ErrorIs(t, err, errServer)

	assignments := syncer.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, StatusPending, assignments[0].Status)
	assert.False(t, syncer.InFlight("a-1"))
}

func TestSyncer_Delete_FailureRestoresRecord(t *testing.T) {
	now := time.Now()
	current := serverAssignment("a-1", "Essay", now.Add(24*time.Hour))
	api := &fakeAPI{
		listResult: []Assignment{current},
		failDelete: true,
	}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	err := syncer.Delete(context.Background(), "a-1")
	require.ErrorIs(t, err, errServer)

	assignments := syncer.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, "a-1", assignments[0].ID)
}

func TestSyncer_Delete_Success(t *testing.T) {
	now := time.Now()
	current := serverAssignment("a-1", "Essay", now.Add(24*time.Hour))
	api := &fakeAPI{listResult: []Assignment{current}}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	require.NoError(t, syncer.Delete(context.Background(), "a-1"))
	assert.Empty(t, syncer.Assignments())
	assert.Equal(t, []string{"a-1"}, api.deleted)
}

func TestSyncer_OneMutationPerRecord(t *testing.T) {
	now := time.Now()
	current := serverAssignment("a-1", "Essay", now.Add(24*time.Hour))
	confirmed := current
	confirmed.Status = StatusCompleted

	release := make(chan struct{})
	api := &fakeAPI{
		listResult:   []Assignment{current},
		updateResult: &confirmed,
		release:      release,
	}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	status := StatusCompleted
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := syncer.Update(context.Background(), "a-1", UpdateAssignmentInput{Status: &status})
		assert.NoError(t, err)
	}()

	// Wait for the first mutation to register as in flight.
	require.Eventually(t, func() bool {
		return syncer.InFlight("a-1")
	}, time.Second, 5*time.Millisecond)

	_, err := syncer.Update(context.Background(), "a-1", UpdateAssignmentInput{Status: &status})
	assert.ErrorIs(t, err, ErrMutationInFlight)
	assert.ErrorIs(t, syncer.Delete(context.Background(), "a-1"), ErrMutationInFlight)

	close(release)
	<-done
	assert.False(t, syncer.InFlight("a-1"))
}

func TestSyncer_Run_ReplacesListWholesale(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{listResult: []Assignment{serverAssignment("stale", "Stale", now)}}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	feed := make(chan []Assignment)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		syncer.Run(ctx, feed)
	}()

	feed <- []Assignment{
		serverAssignment("a-1", "Fresh", now.Add(24*time.Hour)),
		serverAssignment("a-2", "Fresher", now.Add(48*time.Hour)),
	}

	require.Eventually(t, func() bool {
		return len(syncer.Assignments()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Fresh", syncer.Assignments()[0].Title)

	close(feed)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after feed close")
	}
}

func TestSyncer_DerivedViews(t *testing.T) {
	now := time.Now()

	completed := serverAssignment("a-1", "Done", now.Add(24*time.Hour))
	completed.Status = StatusCompleted
	open := serverAssignment("a-2", "Open", now.Add(48*time.Hour))
	open.CreatedAt = now.Add(-time.Hour)
	started := serverAssignment("a-3", "Started", now.Add(72*time.Hour))
	started.Status = StatusInProgress
	started.CreatedAt = now.Add(-2 * time.Hour)
	late := serverAssignment("a-4", "Late", now.Add(-24*time.Hour))
	late.CreatedAt = now.Add(-3 * time.Hour)

	api := &fakeAPI{listResult: []Assignment{completed, open, started, late}}
	syncer := NewSyncer(api)
	require.NoError(t, syncer.Refresh(context.Background()))

	stats := syncer.ComputeStats(now)
	assert.Equal(t, Stats{Total: 4, Completed: 1, Pending: 2, Overdue: 1}, stats)

	upcoming := syncer.Upcoming(now, 5)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Open", upcoming[0].Title)
	assert.Equal(t, "Started", upcoming[1].Title)

	capped := syncer.Upcoming(now, 1)
	require.Len(t, capped, 1)
	assert.Equal(t, "Open", capped[0].Title)

	recent := syncer.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "Done", recent[0].Title)
	assert.Equal(t, "Open", recent[1].Title)
}
