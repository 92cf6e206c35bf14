package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := &Connection{UserID: "u1", Send: make(chan []byte, 1)}
	hub.Register(conn)

	require.Eventually(t, func() bool { return hub.HasSubscriber("u1") }, time.Second, 10*time.Millisecond)
	assert.False(t, hub.HasSubscriber("u2"))

	hub.Unregister(conn)
	require.Eventually(t, func() bool { return !hub.HasSubscriber("u1") }, time.Second, 10*time.Millisecond)

	_, open := <-conn.Send
	assert.False(t, open)
}

func TestHub_PushToUser(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := &Connection{UserID: "u1", Send: make(chan []byte, 1)}
	hub.Register(conn)
	require.Eventually(t, func() bool { return hub.HasSubscriber("u1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.PushToUser("u1", map[string]string{"type": "processing"}))

	select {
	case data := <-conn.Send:
		assert.Contains(t, string(data), "processing")
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

// TestHub_PrunesBlockedConnection 发送缓冲满的连接在广播时被关闭并移除
func TestHub_PrunesBlockedConnection(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := &Connection{UserID: "u1", Send: make(chan []byte)}
	hub.Register(conn)
	require.Eventually(t, func() bool { return hub.HasSubscriber("u1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.PushToUser("u1", "ping"))

	require.Eventually(t, func() bool { return !hub.HasSubscriber("u1") }, time.Second, 10*time.Millisecond)

	_, open := <-conn.Send
	assert.False(t, open)
}
