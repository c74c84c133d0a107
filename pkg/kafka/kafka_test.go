package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/dressrental/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
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
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Message(nil), r.committed...)
}

type fakeDLQ struct {
	mu   sync.Mutex
	msgs []kafka.Message
	errs []error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	d.errs = append(d.errs, lastErr)
	return nil
}

type mapStore struct {
	seen       map[string]bool
	lookupErr  error
	addedCalls int
}

func (s *mapStore) Contains(_ context.Context, id string) (bool, error) {
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	return s.seen[id], nil
}

func (s *mapStore) Add(_ context.Context, id string) error {
	s.addedCalls++
	s.seen[id] = true
	return nil
}

func mustEvent(t *testing.T, eventType string, data any) *Event {
	t.Helper()
	e, err := NewEvent(context.Background(), eventType, "dress", "7", "catalog", data)
	require.NoError(t, err)
	return e
}

func encoded(t *testing.T, topic string, e *Event) kafka.Message {
	t.Helper()
	b, err := e.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Value: b, Offset: 42}
}

func TestNewEvent_CopiesRequestContext(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithUserID(ctx, "user-9")

	e, err := NewEvent(ctx, "wishlist.item_added", "wishlist", "w-1", "wishlist", map[string]int64{"dress_id": 7})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.Equal(t, "user-9", e.Metadata["user_id"])
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, 2*time.Second)
	assert.JSONEq(t, `{"dress_id":7}`, string(e.Data))
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent(context.Background(), "x", "dress", "1", "catalog", make(chan int))
	require.Error(t, err)
}

func TestUnmarshalEvent(t *testing.T) {
	original := mustEvent(t, "dress.created", map[string]string{"name": "Scarlet"})
	original.WithMetadata("k", "v")
	b, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(b)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "v", restored.Metadata["k"])

	var payload map[string]string
	require.NoError(t, restored.DecodeData(&payload))
	assert.Equal(t, "Scarlet", payload["name"])

	_, err = UnmarshalEvent([]byte(`{broken`))
	require.Error(t, err)
	_, err = UnmarshalEvent([]byte(`{"event_id":"1"}`))
	require.Error(t, err)
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "dressrental.dress.created", Topic("dress", "created"))
	assert.Equal(t, "dressrental.dlq.dressrental.dress.created", DLQTopic(Topic("dress", "created")))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, discardLogger())

	e := mustEvent(t, "dress.updated", map[string]bool{"available": true})
	e.CorrelationID = "corr-2"
	topic := Topic("dress", "updated")
	require.NoError(t, p.Publish(context.Background(), topic, e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, []byte("7"), msg.Key)
	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "dress.updated", carrier.Get("event_type"))
	assert.Equal(t, "catalog", carrier.Get("source"))
	assert.Equal(t, "corr-2", carrier.Get("correlation_id"))
	assert.Equal(t, float64(1), testutil.ToFloat64(producerPublished.WithLabelValues(topic)))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, discardLogger())
	topic := Topic("rental", "created")

	err := p.Publish(context.Background(), topic, mustEvent(t, "rental.created", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), topic)
	assert.Equal(t, float64(1), testutil.ToFloat64(producerErrors.WithLabelValues(topic)))
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "1", c.Get("a"))
	assert.Empty(t, c.Get("missing"))

	c.Set("a", "2")
	c.Set("traceparent", "00-abc")
	assert.Equal(t, "2", c.Get("a"))
	assert.ElementsMatch(t, []string{"a", "traceparent"}, c.Keys())
	assert.Len(t, headers, 2)
}

func TestDLQProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: discardLogger()}

	orig := kafka.Message{
		Topic:     "dressrental.dress.created",
		Partition: 2,
		Offset:    99,
		Key:       []byte("7"),
		Value:     []byte(`{}`),
		Headers:   []kafka.Header{{Key: "event_type", Value: []byte("dress.created")}},
	}
	require.NoError(t, d.Publish(context.Background(), orig, errors.New("smtp down"), "notify"))

	require.Len(t, w.msgs, 1)
	got := w.msgs[0]
	assert.Equal(t, "dressrental.dlq.dressrental.dress.created", got.Topic)
	assert.Equal(t, orig.Value, got.Value)
	c := NewHeaderCarrier(&got.Headers)
	assert.Equal(t, "dress.created", c.Get("event_type"))
	assert.Equal(t, "2", c.Get("dlq.original_partition"))
	assert.Equal(t, "99", c.Get("dlq.original_offset"))
	assert.Equal(t, "notify", c.Get("dlq.consumer_group"))
	assert.Equal(t, "smtp down", c.Get("dlq.error"))
}

func TestIdempotentHandler(t *testing.T) {
	store := &mapStore{seen: map[string]bool{}}
	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, discardLogger())

	e := mustEvent(t, "dress.created", nil)
	require.NoError(t, h(context.Background(), e))
	require.NoError(t, h(context.Background(), e))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, store.addedCalls)
}

func TestIdempotentHandler_FailureIsNotRecorded(t *testing.T) {
	store := &mapStore{seen: map[string]bool{}}
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		return errors.New("boom")
	}, discardLogger())

	require.Error(t, h(context.Background(), mustEvent(t, "dress.created", nil)))
	assert.Zero(t, store.addedCalls)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := &mapStore{seen: map[string]bool{}, lookupErr: errors.New("redis down")}
	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, discardLogger())

	require.NoError(t, h(context.Background(), mustEvent(t, "dress.created", nil)))
	assert.Equal(t, 1, calls)
}

func noWait(int) time.Duration { return 0 }

func TestConsumer_ProcessSuccess(t *testing.T) {
	r := &fakeReader{}
	var got *Event
	c := newConsumer(r, "notify", []string{"t"}, func(_ context.Context, e *Event) error {
		got = e
		return nil
	}, discardLogger())

	e := mustEvent(t, "dress.created", map[string]string{"name": "Ruby"})
	require.NoError(t, c.process(context.Background(), encoded(t, "t", e)))

	require.NotNil(t, got)
	assert.Equal(t, e.EventID, got.EventID)
	assert.Len(t, r.commits(), 1)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	attempts := 0
	c := newConsumer(r, "notify", []string{"t"}, func(context.Context, *Event) error {
		attempts++
		return errors.New("sender unavailable")
	}, discardLogger(), WithDeadLetter(dlq))
	c.retryWait = noWait

	require.NoError(t, c.process(context.Background(), encoded(t, "t", mustEvent(t, "dress.created", nil))))

	assert.Equal(t, maxHandlerRetries, attempts)
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.errs[0], "sender unavailable")
	assert.Len(t, r.commits(), 1)
}

func TestConsumer_RecoversOnRetry(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	attempts := 0
	c := newConsumer(r, "notify", []string{"t"}, func(context.Context, *Event) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}, discardLogger(), WithDeadLetter(dlq))
	c.retryWait = noWait

	require.NoError(t, c.process(context.Background(), encoded(t, "t", mustEvent(t, "dress.created", nil))))
	assert.Equal(t, 2, attempts)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_UndecodableMessage(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	called := false
	c := newConsumer(r, "notify", []string{"t"}, func(context.Context, *Event) error {
		called = true
		return nil
	}, discardLogger(), WithDeadLetter(dlq))

	require.NoError(t, c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte("garbage")}))
	assert.False(t, called)
	assert.Len(t, dlq.msgs, 1)
	assert.Len(t, r.commits(), 1)
}

func TestConsumer_CancelledDuringRetryLeavesOffset(t *testing.T) {
	r := &fakeReader{}
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(r, "notify", []string{"t"}, func(context.Context, *Event) error {
		cancel()
		return errors.New("fail")
	}, discardLogger())
	c.retryWait = func(int) time.Duration { return time.Hour }

	err := c.process(ctx, encoded(t, "t", mustEvent(t, "dress.created", nil)))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.commits())
}

func TestConsumer_StartDrainsUntilCancelled(t *testing.T) {
	var payloads []json.RawMessage
	var mu sync.Mutex
	r := &fakeReader{}
	for i := 0; i < 3; i++ {
		r.queue = append(r.queue, encoded(t, "t", mustEvent(t, "dress.created", i)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(r, "notify", []string{"t"}, func(_ context.Context, e *Event) error {
		mu.Lock()
		defer mu.Unlock()
		payloads = append(payloads, e.Data)
		if len(payloads) == 3 {
			cancel()
		}
		return nil
	}, discardLogger())

	require.NoError(t, c.Start(ctx))
	assert.Len(t, payloads, 3)
	assert.Len(t, r.commits(), 3)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
