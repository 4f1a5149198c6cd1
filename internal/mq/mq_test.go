package mq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cookshare/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	closed  bool
}

func (b *recordingBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.channel = channel
	b.data = data
	b.attrs = attrs
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, _ string, handler Handler) error {
	return handler(ctx, Message{ID: "msg-1", Data: b.data, Attributes: b.attrs})
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return nil
}

func TestPublishJSONSetsContentType(t *testing.T) {
	backend := &recordingBackend{}
	queue := New(backend)

	attrs := map[string]string{AttrOrderingKey: "recipe-1"}
	id, err := queue.PublishJSON(context.Background(), "recipe-events", map[string]int{"n": 1}, attrs)
	require.NoError(t, err)

	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "recipe-events", backend.channel)
	assert.JSONEq(t, `{"n":1}`, string(backend.data))
	assert.Equal(t, "application/json", backend.attrs[AttrContentType])
	assert.Equal(t, "recipe-1", backend.attrs[AttrOrderingKey])
	assert.NotContains(t, attrs, AttrContentType, "caller attributes must not be mutated")
}

func TestPublishJSONRejectsUnencodableValue(t *testing.T) {
	queue := New(&recordingBackend{})

	_, err := queue.PublishJSON(context.Background(), "c", make(chan int), nil)
	assert.Error(t, err)
}

func TestSubscribeDelegatesToBackend(t *testing.T) {
	backend := &recordingBackend{data: []byte(`{"ok":true}`)}
	queue := New(backend)

	var got map[string]bool
	err := queue.Subscribe(context.Background(), "c", func(_ context.Context, msg Message) error {
		return json.Unmarshal(msg.Data, &got)
	})
	require.NoError(t, err)
	assert.True(t, got["ok"])

	require.NoError(t, queue.Close())
	assert.True(t, backend.closed)
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "none"})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, `unknown mq backend "kafka"`)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "rabbitmq url is required")

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "pubsub"})
	assert.ErrorContains(t, err, "pubsub project id is required")
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))

	attrs := headersToAttributes(map[string]any{
		"kind":  "recipe.created",
		"raw":   []byte("bytes"),
		"count": 3,
	})
	assert.Equal(t, map[string]string{
		"kind":  "recipe.created",
		"raw":   "bytes",
		"count": "3",
	}, attrs)
}
