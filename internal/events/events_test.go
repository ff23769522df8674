package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, Event) error { return f.err }

type countingSink struct{ n int }

func (c *countingSink) Publish(context.Context, Event) error {
	c.n++
	return nil
}

func TestNewRecordStored(t *testing.T) {
	ev := NewRecordStored("test_prophecy", "oracle.near", 42)

	assert.Equal(t, TypeRecordStored, ev.Type)
	assert.Equal(t, "test_prophecy", ev.RecordID)
	assert.Equal(t, "oracle.near", ev.Creator)
	assert.Equal(t, uint64(42), ev.Timestamp)

	parsed, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewRecordStored_UniqueIDs(t *testing.T) {
	a := NewRecordStored("x", "o", 1)
	b := NewRecordStored("x", "o", 1)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestLogSink_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, sink.Publish(context.Background(), NewRecordStored("test_prophecy", "oracle.near", 7)))

	out := buf.String()
	assert.Contains(t, out, "type=record.stored")
	assert.Contains(t, out, "record_id=test_prophecy")
	assert.Contains(t, out, "component=events")
}

func TestMulti_AttemptsAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	errB := errors.New("b down")
	counter := &countingSink{}

	m := Multi{failingSink{errA}, counter, failingSink{errB}}
	err := m.Publish(context.Background(), Event{})

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, counter.n)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(context.Background(), Event{}))
	assert.NoError(t, Discard{}.Publish(context.Background(), Event{}))
}

func TestRedisSink_DefaultChannel(t *testing.T) {
	s := NewRedisSinkFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer s.Close()
	assert.Equal(t, DefaultChannel, s.Channel())
}

func TestRedisSink_UnreachableReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisSinkFromClient(client, "test.events")
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.Publish(ctx, NewRecordStored("x", "o", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis publish test.events")
}
