package seed

import (
	"context"
	"testing"

	"socialflow/internal/models"
	"socialflow/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosts_CoversEveryStatus(t *testing.T) {
	st := store.New(store.NewMemoryPersistence(), nil)

	n, err := Posts(context.Background(), st, Options{NumPosts: 21, Deterministic: true})
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	assert.Equal(t, 21, st.Len())

	byStatus := make(map[models.PostStatus]int)
	for _, p := range st.List(context.Background()) {
		byStatus[p.Status]++
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Description)
		require.True(t, p.Status.Valid())

		switch p.Status {
		case models.StatusFeedback:
			assert.NotEmpty(t, p.FeedbackNotes, "feedback posts carry notes")
		case models.StatusDraft:
			assert.Empty(t, p.ReviewedBy)
		default:
			assert.NotEmpty(t, p.ReviewedBy, "reviewed posts record a reviewer")
		}
	}

	// 21 posts over 7 states, round-robin.
	for _, status := range models.PostStatusValues {
		assert.Equal(t, 3, byStatus[status], "status %s", status)
	}
}

func TestPosts_DefaultCount(t *testing.T) {
	st := store.New(store.NewMemoryPersistence(), nil)

	n, err := Posts(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, 25, st.Len())
}
