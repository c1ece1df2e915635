package store

import (
	"context"
	"testing"
	"time"

	"socialflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPersistence_EmptyKey(t *testing.T) {
	p := NewRedisPersistence(newTestRedis(t), "")

	posts, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, posts, "an absent blob reads as an empty collection")
}

func TestRedisPersistence_RoundTrip(t *testing.T) {
	p := NewRedisPersistence(newTestRedis(t), "")
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := []models.Post{{
		ID:        "p1",
		Title:     "Summer drop",
		Hashtags:  []string{"summer", "sale"},
		Platform:  models.PlatformTwitter,
		Tone:      models.ToneHumorous,
		Status:    models.StatusUnderReview,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	require.NoError(t, p.Save(ctx, want))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisPersistence_SaveOverwrites(t *testing.T) {
	p := NewRedisPersistence(newTestRedis(t), "custom:key")
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, []models.Post{{ID: "a"}, {ID: "b"}}))
	require.NoError(t, p.Save(ctx, []models.Post{{ID: "b"}}))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
