package sink

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"maps-api/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error { return m.Called().Error(0) }

// mockReader serves queued messages, then blocks until the context ends.
type mockReader struct {
	messages  chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newMockReader(msgs ...kafka.Message) *mockReader {
	r := &mockReader{messages: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.messages <- m
	}
	return r
}

func (r *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg := <-r.messages:
		return msg, nil
	}
}

func (r *mockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *mockReader) Close() error { return nil }

func (r *mockReader) offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type mockApplier struct {
	mock.Mock
}

func (m *mockApplier) UpdateCoordinates(ctx context.Context, model string, updates []models.CoordinateUpdate) error {
	return m.Called(ctx, model, updates).Error(0)
}

func TestPublisher_UpdateCoordinates(t *testing.T) {
	updates := []models.CoordinateUpdate{{ID: 10, Latitude: -0.5, Longitude: 101.4}}
	resolved := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "res.partner" {
			return false
		}
		var b Batch
		return json.Unmarshal(msgs[0].Value, &b) == nil &&
			b.Model == "res.partner" && assert.ObjectsAreEqual(updates, b.Updates) && b.ResolvedAt.Equal(resolved)
	})).Return(nil)

	p := NewPublisherWithWriter(w)
	p.now = func() time.Time { return resolved }

	require.NoError(t, p.UpdateCoordinates(context.Background(), "res.partner", updates))
	require.NoError(t, p.UpdateCoordinates(context.Background(), "res.partner", nil))
	w.AssertNumberOfCalls(t, "WriteMessages", 1)
}

func TestPublisher_WriteError(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(assert.AnError)

	err := NewPublisherWithWriter(w).UpdateCoordinates(context.Background(), "res.partner",
		[]models.CoordinateUpdate{{ID: 1, Latitude: 1, Longitude: 1}})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestConsumer_Run(t *testing.T) {
	updates := []models.CoordinateUpdate{{ID: 10, Latitude: -0.5, Longitude: 101.4}}
	good, err := json.Marshal(Batch{Model: "res.partner", Updates: updates})
	require.NoError(t, err)

	reader := newMockReader(
		kafka.Message{Offset: 1, Value: []byte("not json")},
		kafka.Message{Offset: 2, Value: good},
	)
	applier := new(mockApplier)
	applier.On("UpdateCoordinates", mock.Anything, "res.partner", updates).Return(assert.AnError).Once()
	applier.On("UpdateCoordinates", mock.Anything, "res.partner", updates).Return(nil).Once()

	c := NewConsumerWithReader(reader, applier)
	c.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(reader.offsets()) == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{1, 2}, reader.offsets())
	applier.AssertNumberOfCalls(t, "UpdateCoordinates", 2)
}
