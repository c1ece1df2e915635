package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"socialflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoOp(t *testing.T) {
	n := NewNotifier(nil)

	err := n.PublishWorkflowEvent(context.Background(), WorkflowEvent{Type: EventPostSubmitted})
	assert.NoError(t, err)

	err = n.StartSubscriber(context.Background(), func(string) {})
	assert.NoError(t, err)
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb)
	received := make(chan string, 1)
	require.NoError(t, n.StartSubscriber(ctx, func(payload string) {
		received <- payload
	}))

	// the subscriber goroutine needs a moment to attach
	time.Sleep(50 * time.Millisecond)

	event := WorkflowEvent{
		Type:   EventPostApproved,
		PostID: "p1",
		Status: models.StatusApproved,
		Actor:  "admin@example.com",
	}
	require.NoError(t, n.PublishWorkflowEvent(ctx, event))

	select {
	case payload := <-received:
		var got WorkflowEvent
		require.NoError(t, json.Unmarshal([]byte(payload), &got))
		assert.Equal(t, EventPostApproved, got.Type)
		assert.Equal(t, "p1", got.PostID)
		assert.False(t, got.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("workflow event was not delivered")
	}
}

func TestEventForTransition(t *testing.T) {
	cases := []struct {
		to   models.PostStatus
		want string
	}{
		{models.StatusSubmitted, EventPostSubmitted},
		{models.StatusUnderReview, EventPostSubmitted},
		{models.StatusApproved, EventPostApproved},
		{models.StatusReadyToPublish, EventPostApproved},
		{models.StatusFeedback, EventPostFeedback},
		{models.StatusPublished, EventPostPublished},
		{models.StatusDraft, EventPostDrafted},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EventForTransition(tc.to), string(tc.to))
	}
}
