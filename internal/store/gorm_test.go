package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"socialflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestGorm(t *testing.T) *GormPersistence {
	t.Helper()
	db, err := OpenSQLite("file::memory:")
	require.NoError(t, err)
	p, err := NewGormPersistence(db, "")
	require.NoError(t, err)
	return p
}

func TestGormPersistence_EmptyKey(t *testing.T) {
	p := newTestGorm(t)

	posts, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, posts)
}

func TestGormPersistence_RoundTrip(t *testing.T) {
	p := newTestGorm(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := []models.Post{{
		ID:        "p1",
		Title:     "Behind the scenes",
		Hashtags:  []string{"studio"},
		Platform:  models.PlatformLinkedIn,
		Tone:      models.ToneInspirational,
		Status:    models.StatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	require.NoError(t, p.Save(ctx, want))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a second save upserts the same row rather than inserting another
	require.NoError(t, p.Save(ctx, want[:0]))
	got, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGormPersistence_LoadError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WillReturnError(assert.AnError)

	p := &GormPersistence{db: db, key: BlobKey}
	_, err = p.Load(context.Background())
	require.Error(t, err)
}
