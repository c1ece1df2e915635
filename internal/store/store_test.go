package store

import (
	"context"
	"errors"
	"testing"

	"socialflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *MemoryPersistence) {
	t.Helper()
	p := NewMemoryPersistence()
	return New(p, nil), p
}

func draftInput() CreateInput {
	return CreateInput{
		Title:       "Launch day",
		Description: "We are live!",
		Hashtags:    []string{"#launch", "go lang"},
		Platform:    models.PlatformInstagram,
		Tone:        models.ToneFriendly,
		ImageOption: models.ImagePlatformDefault,
	}
}

func TestStore_Create(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	post := s.Create(ctx, draftInput())

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, models.StatusDraft, post.Status)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)
	assert.Equal(t, []string{"launch", "golang"}, post.Hashtags)

	second := s.Create(ctx, draftInput())
	assert.NotEqual(t, post.ID, second.ID)

	// most-recent-first ordering
	list := s.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, post.ID, list[1].ID)
}

func TestStore_Update(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	post := s.Create(ctx, draftInput())

	title := "Revised title"
	updated, err := s.Update(ctx, post.ID, UpdateInput{
		Title:    &title,
		Hashtags: []string{"#news", "big day"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Revised title", updated.Title)
	assert.Equal(t, "We are live!", updated.Description, "untouched fields survive the merge")
	assert.Equal(t, []string{"news", "bigday"}, updated.Hashtags)
	assert.Equal(t, models.StatusDraft, updated.Status, "update never changes status")
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))
}

func TestStore_Update_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	title := "x"
	_, err := s.Update(context.Background(), "nope", UpdateInput{Title: &title})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestStore_Transition_Workflow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	post := s.Create(ctx, draftInput())

	// submit with a reviewer
	p, err := s.Transition(ctx, post.ID, models.StatusUnderReview, TransitionDetails{ReviewedBy: "content-team"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, p.Status)
	assert.Equal(t, "content-team", p.ReviewedBy)

	// request changes records the notes
	p, err = s.Transition(ctx, post.ID, models.StatusFeedback, TransitionDetails{FeedbackNotes: "Tone it down"})
	require.NoError(t, err)
	assert.Equal(t, "Tone it down", p.FeedbackNotes)

	// resubmitting clears the notes and keeps the reviewer
	p, err = s.Transition(ctx, post.ID, models.StatusUnderReview, TransitionDetails{})
	require.NoError(t, err)
	assert.Empty(t, p.FeedbackNotes)
	assert.Equal(t, "content-team", p.ReviewedBy)

	// approve then publish
	p, err = s.Transition(ctx, post.ID, models.StatusReadyToPublish, TransitionDetails{})
	require.NoError(t, err)
	p, err = s.Transition(ctx, post.ID, models.StatusPublished, TransitionDetails{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, p.Status)

	// published is terminal
	_, err = s.Transition(ctx, post.ID, models.StatusDraft, TransitionDetails{})
	require.Error(t, err)
}

func TestStore_Transition_FeedbackRequiresNotes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	post := s.Create(ctx, draftInput())

	_, err := s.Transition(ctx, post.ID, models.StatusUnderReview, TransitionDetails{})
	require.NoError(t, err)

	_, err = s.Transition(ctx, post.ID, models.StatusFeedback, TransitionDetails{FeedbackNotes: "   "})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	// the rejected transition left the record unchanged
	got, err := s.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, got.Status)
	assert.Empty(t, got.FeedbackNotes)
}

func TestStore_Transition_InvalidEdge(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	post := s.Create(ctx, draftInput())

	_, err := s.Transition(ctx, post.ID, models.StatusPublished, TransitionDetails{})
	require.Error(t, err)

	_, err = s.Transition(ctx, post.ID, models.PostStatus("Archived"), TransitionDetails{})
	require.Error(t, err)

	_, err = s.Transition(ctx, "missing", models.StatusUnderReview, TransitionDetails{})
	assert.True(t, models.IsNotFound(err))
}

func TestStore_Delete_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	post := s.Create(ctx, draftInput())

	s.Delete(ctx, post.ID)
	assert.Zero(t, s.Len())

	// deleting again, or deleting an unknown id, is a no-op
	s.Delete(ctx, post.ID)
	s.Delete(ctx, "never-existed")
	assert.Zero(t, s.Len())
}

func TestStore_PersistRoundTrip(t *testing.T) {
	p := NewMemoryPersistence()
	ctx := context.Background()

	first := New(p, nil)
	created := first.Create(ctx, draftInput())
	_, err := first.Transition(ctx, created.ID, models.StatusUnderReview, TransitionDetails{ReviewedBy: "marketing"})
	require.NoError(t, err)
	want := first.List(ctx)

	// a second store loading from the same persistence sees an identical collection
	second := New(p, nil)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, want, second.List(ctx))
}

func TestStore_PersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	p.FailSaves = errors.New("quota exceeded")
	post := s.Create(ctx, draftInput())

	// the mutation survives in memory even though the durable write failed
	got, err := s.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

// Exercises Create returning its copy while another goroutine rewrites the
// same records. Meaningful under the race detector.
func TestStore_ConcurrentCreateAndUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			for _, p := range s.List(ctx) {
				title := "rewritten"
				_, _ = s.Update(ctx, p.ID, UpdateInput{Title: &title})
			}
		}
	}()

	for i := 0; i < 50; i++ {
		post := s.Create(ctx, draftInput())
		assert.NotEmpty(t, post.ID)
	}
	<-done

	assert.Equal(t, 50, s.Len())
}

func TestStore_ListReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	post := s.Create(ctx, draftInput())

	list := s.List(ctx)
	list[0].Title = "mutated"
	list[0].Hashtags[0] = "mutated"

	got, err := s.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch day", got.Title)
	assert.Equal(t, "launch", got.Hashtags[0])
}
