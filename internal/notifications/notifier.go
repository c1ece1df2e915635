// Package notifications delivers workflow events to connected review
// dashboards in real time.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"socialflow/internal/models"

	"github.com/redis/go-redis/v9"
)

// WorkflowChannel is the Redis pub/sub channel workflow events flow through.
// Publishing through Redis lets every API instance fan events out to its own
// websocket clients.
const WorkflowChannel = "workflow:events"

// Event types carried on WorkflowChannel.
const (
	EventPostCreated   = "post_created"
	EventPostSubmitted = "post_submitted"
	EventPostApproved  = "post_approved"
	EventPostFeedback  = "post_feedback"
	EventPostPublished = "post_published"
	EventPostDrafted   = "post_drafted"
	EventPostDeleted   = "post_deleted"
)

// WorkflowEvent is the payload broadcast when a post changes state.
type WorkflowEvent struct {
	Type       string            `json:"type"`
	PostID     string            `json:"postId"`
	Title      string            `json:"title,omitempty"`
	Status     models.PostStatus `json:"status,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// EventForTransition maps a workflow target status to its event type.
func EventForTransition(to models.PostStatus) string {
	switch to {
	case models.StatusSubmitted, models.StatusUnderReview:
		return EventPostSubmitted
	case models.StatusApproved, models.StatusReadyToPublish:
		return EventPostApproved
	case models.StatusFeedback:
		return EventPostFeedback
	case models.StatusPublished:
		return EventPostPublished
	case models.StatusDraft:
		return EventPostDrafted
	default:
		return EventPostSubmitted
	}
}

// Notifier publishes workflow events into the Redis channel. A nil Redis
// client turns every publish into a no-op, which keeps single-instance and
// test deployments working without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishWorkflowEvent sends an event to every subscribed API instance.
func (n *Notifier) PublishWorkflowEvent(ctx context.Context, event WorkflowEvent) error {
	if n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal workflow event: %w", err)
	}
	return n.rdb.Publish(ctx, WorkflowChannel, string(payload)).Err()
}

// StartSubscriber subscribes to the workflow channel and calls onMessage for
// each incoming payload until ctx is cancelled.
func (n *Notifier) StartSubscriber(
	ctx context.Context, onMessage func(payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, WorkflowChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in workflow subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
