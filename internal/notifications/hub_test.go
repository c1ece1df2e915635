package notifications

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	h := NewHub()

	c1, err := h.Register("user-1", nil)
	require.NoError(t, err)
	c2, err := h.Register("user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.ConnectionCount())

	h.UnregisterClient(c1)
	assert.Equal(t, 1, h.ConnectionCount())

	// unregistering twice is harmless
	h.UnregisterClient(c1)
	assert.Equal(t, 1, h.ConnectionCount())

	h.UnregisterClient(c2)
	assert.Equal(t, 0, h.ConnectionCount())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	h := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register("user-1", nil)
		require.NoError(t, err)
	}

	_, err := h.Register("user-1", nil)
	assert.Error(t, err)

	// other users are unaffected
	_, err = h.Register("user-2", nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()

	clients := make([]*Client, 0, 3)
	for i := 0; i < 3; i++ {
		c, err := h.Register(fmt.Sprintf("user-%d", i), nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}

	h.BroadcastAll(`{"type":"post_submitted"}`)

	for _, c := range clients {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"post_submitted"}`, string(msg))
		default:
			t.Fatalf("client %s received nothing", c.UserID)
		}
	}
}

func TestClient_TrySend_DropsWhenFull(t *testing.T) {
	h := NewHub()
	c, err := h.Register("user-1", nil)
	require.NoError(t, err)

	for i := 0; i < cap(c.Send); i++ {
		c.TrySend([]byte("fill"))
	}

	// channel is full; this drop must not block or panic
	c.TrySend([]byte("overflow"))
	assert.Equal(t, cap(c.Send), len(c.Send))
}
