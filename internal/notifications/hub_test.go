package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.Count())

	_, open := <-a.Send
	assert.False(t, open, "send channel is closed on unregister")

	hub.Unregister(b)
	assert.Zero(t, hub.Count())
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for range maxConnsPerUser {
		_, err := hub.Register(9, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(9, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(10, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastAllAndDropOnFull(t *testing.T) {
	hub := NewHub()
	fast, err := hub.Register(1, nil)
	require.NoError(t, err)
	slow, err := hub.Register(2, nil)
	require.NoError(t, err)

	for range sendBuffer {
		require.True(t, slow.TrySend([]byte("filler")))
	}

	hub.BroadcastAll(`{"type":"post_created"}`)

	assert.Equal(t, `{"type":"post_created"}`, string(<-fast.Send))
	assert.Len(t, slow.Send, sendBuffer)
	assert.False(t, slow.TrySend([]byte("overflow")))
}

func TestHub_PublishWithoutRedisBroadcastsLocally(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	hub.Publish(context.Background(), NewNotifier(nil), Event{Type: "post_deleted", Payload: map[string]any{"id": 3}})
	assert.JSONEq(t, `{"type":"post_deleted","payload":{"id":3}}`, string(<-c.Send))
}

func TestHub_PublishThroughRedis(t *testing.T) {
	hub := NewHub()
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	hub.Publish(context.Background(), n, Event{Type: "comment_created", Payload: map[string]any{"post_id": 5}})

	select {
	case msg := <-c.Send:
		assert.JSONEq(t, `{"type":"comment_created","payload":{"post_id":5}}`, string(msg))
	case <-time.After(testEventuallyTimeout):
		t.Fatal("event never reached the hub")
	}
	assert.Never(t, func() bool { return len(c.Send) > 0 }, 100*time.Millisecond, testPollInterval, "delivered exactly once")

	cancel()
	time.Sleep(20 * time.Millisecond)
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.Count())

	_, err = hub.Register(2, nil)
	assert.ErrorIs(t, err, ErrServerConnLimit)

	assert.False(t, c.TrySend([]byte("late")), "send after shutdown is dropped")
}
