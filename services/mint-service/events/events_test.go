package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishKeysByMaterial(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "material-mint-events"}

	require.NoError(t, p.Publish(context.Background(), Event{Type: MaterialMinted, AttemptID: "a1", MaterialID: "m1", TokenID: "42"}))
	require.NoError(t, p.Publish(context.Background(), Event{Type: MintFailed, AttemptID: "a2"}))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "m1", string(w.msgs[0].Key))
	assert.Equal(t, "a2", string(w.msgs[1].Key))
	assert.Equal(t, "material.minted", string(w.msgs[0].Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, MaterialMinted, got.Type)
	assert.Equal(t, "42", got.TokenID)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestPublishError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t"}
	err := p.Publish(context.Background(), Event{Type: ReconciliationGap, AttemptID: "a1"})
	assert.ErrorContains(t, err, "broker down")
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{}))
}
