package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/events"
)

func TestRecordingSink_CapturesInOrder(t *testing.T) {
	sink := &RecordingSink{}
	ctx := context.Background()

	assert.NoError(t, sink.Publish(ctx, events.Event{RecordID: "a"}))
	assert.NoError(t, sink.Publish(ctx, events.Event{RecordID: "b"}))

	got := sink.Events()
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RecordID)
	assert.Equal(t, "b", got[1].RecordID)
}

func TestRecordingSink_ReturnsConfiguredError(t *testing.T) {
	boom := errors.New("sink down")
	sink := &RecordingSink{Err: boom}

	err := sink.Publish(context.Background(), events.Event{RecordID: "a"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, sink.Events(), 1)
}
