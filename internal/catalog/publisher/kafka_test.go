package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublish_WritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)

	event := ProductChangedEvent{ID: 7, Name: "Widget v2", ImageURL: "https://cdn.example.com/v2.png", Price: 12.00}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, w.messages, 1)
	assert.Equal(t, []byte("7"), w.messages[0].Key)

	var decoded ProductChangedEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestPublish_WireFormat(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)

	require.NoError(t, p.Publish(context.Background(), ProductChangedEvent{ID: 1, Name: "Widget", Price: 9.99}))

	require.Len(t, w.messages, 1)
	assert.JSONEq(t,
		`{"id":1,"name":"Widget","imageUrl":"","price":9.99}`,
		string(w.messages[0].Value))
}

func TestPublish_SurfacesWriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := newKafkaPublisher(w)

	err := p.Publish(context.Background(), ProductChangedEvent{ID: 1, Name: "Widget", Price: 1})
	assert.Error(t, err)
}

func TestPublish_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := newKafkaPublisher(w)

	event := ProductChangedEvent{ID: 1, Name: "Widget", Price: 1}
	for i := 0; i < 10; i++ {
		_ = p.Publish(context.Background(), event)
	}

	err := p.Publish(context.Background(), event)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
