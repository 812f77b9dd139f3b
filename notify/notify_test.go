package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStampsIDAndTime(t *testing.T) {
	n := New(LevelError, "add", 3, "Error adding product")

	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.False(t, n.Time.IsZero())
	assert.Equal(t, 3, n.ProductID)
	assert.Equal(t, "Error adding product", n.Message)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(0)
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(New(LevelError, "add", 1, "first"))
	r.Notify(New(LevelInfo, "add", 1, "second"))

	require.Equal(t, 2, r.Len())
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.Message)

	all := r.All()
	all[0].Message = "changed"
	assert.Equal(t, "first", r.All()[0].Message)

	r.Reset()
	assert.Zero(t, r.Len())
}

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	var calls int
	sink := Multi(a, nil, b, SinkFunc(func(Notification) { calls++ }))

	sink.Notify(New(LevelError, "remove", 2, "Error removing product"))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 1, calls)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.Out = &buf
	log.Formatter = &logrus.JSONFormatter{}

	NewLogSink(logrus.NewEntry(log)).Notify(New(LevelError, "update", 4, "Error changing product quantity"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "Error changing product quantity", entry["msg"])
	assert.Equal(t, "update", entry["operation"])
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSinkPublishesJSON(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, logrus.NewEntry(logrus.New()))

	n := New(LevelError, "add", 7, "Requested quantity is out of stock")
	sink.Notify(n)
	require.NoError(t, sink.Close())

	require.Len(t, w.msgs, 1)
	assert.True(t, w.closed)
	assert.Equal(t, "7", string(w.msgs[0].Key))

	var got Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Message, got.Message)
}

func TestKafkaSinkSwallowsPublishErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := newKafkaSink(w, logrus.NewEntry(logrus.New()))

	assert.NotPanics(t, func() {
		sink.Notify(New(LevelError, "add", 1, "Error adding product"))
		require.NoError(t, sink.Close())
	})
	assert.Len(t, w.msgs, 1)
}

func TestRecorderEvictsOldest(t *testing.T) {
	r := NewRecorder(3)
	for i := 1; i <= 5; i++ {
		r.Notify(New(LevelError, "add", i, "Error adding product"))
	}

	require.Equal(t, 3, r.Len())
	var ids []int
	for _, n := range r.All() {
		ids = append(ids, n.ProductID)
	}
	assert.Equal(t, []int{3, 4, 5}, ids)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, 5, last.ProductID)
}
