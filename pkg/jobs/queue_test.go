package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobsEnqueuedBeforeStart(t *testing.T) {
	processed := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, j Job) error {
		processed <- j
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	// Enqueueing ahead of Start parks the job in the buffer.
	require.NoError(t, q.Enqueue(Job{ID: "early", Type: "noop"}))

	q.Start(context.Background())
	defer q.Stop()

	select {
	case j := <-processed:
		assert.Equal(t, "early", j.ID)
		assert.False(t, j.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job enqueued before start was never processed")
	}
}

func TestQueueEnqueueBeforeStartFullBuffer(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil },
		QueueConfig{Workers: 1, BufferSize: 1})

	require.NoError(t, q.Enqueue(Job{ID: "a"}))

	err := q.Enqueue(Job{ID: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
}

func TestQueueStartIsIdempotent(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil },
		QueueConfig{Workers: 1, BufferSize: 1})

	q.Start(context.Background())
	q.Start(context.Background())
	q.Stop()
}
