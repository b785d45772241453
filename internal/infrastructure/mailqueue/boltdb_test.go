package mailqueue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndGetBatch(t *testing.T) {
	store := openTestStore(t)

	err := store.Enqueue(Job{To: "a@example.com", Template: "welcome"})
	require.NoError(t, err)
	err = store.Enqueue(Job{To: "b@example.com", Template: "otp", Params: map[string]string{"otp": "123456"}})
	require.NoError(t, err)

	jobs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "a@example.com", jobs[0].To)
	assert.Equal(t, "b@example.com", jobs[1].To)
	assert.Equal(t, "123456", jobs[1].Params["otp"])
	assert.NotEmpty(t, jobs[0].ID)
	assert.False(t, jobs[0].Timestamp.IsZero())
}

func TestGetBatchHonorsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Enqueue(Job{To: "x@example.com", Template: "welcome"}))
	}

	jobs, err := store.GetBatch(3)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 5, size, "GetBatch must not consume jobs")
}

func TestRemoveDeletesJob(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Job{To: "x@example.com", Template: "welcome"}))

	jobs, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, store.Remove(jobs[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeuePushesToBack(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Job{To: "first@example.com", Template: "welcome"}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Enqueue(Job{To: "second@example.com", Template: "welcome"}))

	jobs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	head := jobs[0]
	require.NoError(t, store.Remove(head))
	head.Retries++
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Requeue(head))

	jobs, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "second@example.com", jobs[0].To)
	assert.Equal(t, "first@example.com", jobs[1].To)
	assert.Equal(t, 1, jobs[1].Retries)
}

func TestCleanupRemovesStaleJobs(t *testing.T) {
	store := openTestStore(t)

	old := Job{To: "stale@example.com", Template: "welcome", Timestamp: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, store.Enqueue(old))
	require.NoError(t, store.Enqueue(Job{To: "fresh@example.com", Template: "welcome"}))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))

	jobs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "fresh@example.com", jobs[0].To)
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")

	store, err := Open(path, "outbox")
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(Job{To: "x@example.com", Template: "password_reset"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, "outbox")
	require.NoError(t, err)
	defer reopened.Close()

	jobs, err := reopened.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "password_reset", jobs[0].Template)
}
