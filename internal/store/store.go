package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"socialflow/internal/models"
	"socialflow/internal/observability"

	"github.com/google/uuid"
)

// CreateInput carries the caller-supplied fields for a new post. ID, status
// and timestamps are assigned by the store.
type CreateInput struct {
	Title       string
	Description string
	Hashtags    []string
	Platform    models.SocialPlatform
	Tone        models.PostTone
	ImageOption models.ImageOption
	ImageURL    string
}

// UpdateInput is a partial merge: nil fields are left untouched. Status is
// deliberately absent; status changes go through Transition.
type UpdateInput struct {
	Title       *string
	Description *string
	Hashtags    []string
	Platform    *models.SocialPlatform
	Tone        *models.PostTone
	ImageOption *models.ImageOption
	ImageURL    *string
}

// TransitionDetails carries the optional metadata a status change may record.
type TransitionDetails struct {
	FeedbackNotes string
	ReviewedBy    string
}

// Store is the single source of truth for all Post records. The collection
// lives in memory, ordered most-recent-first, and is written through to the
// injected Persistence after every mutation. Save failures are logged and do
// not roll back the in-memory change; memory stays authoritative for the
// session.
type Store struct {
	mu          sync.RWMutex
	posts       []*models.Post
	persistence Persistence
	logger      *slog.Logger
}

// New creates a Store backed by the given persistence. A nil logger falls
// back to slog.Default().
func New(p Persistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{persistence: p, logger: logger}
}

// Load reads the persisted collection into memory. It is meant to be called
// once at startup; a load failure leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	posts, err := s.persistence.Load(ctx)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = make([]*models.Post, 0, len(posts))
	for i := range posts {
		p := posts[i]
		s.posts = append(s.posts, &p)
	}
	return nil
}

// Create assigns a fresh ID, sets the status to Draft with equal timestamps,
// and prepends the record so the collection stays most-recent-first.
func (s *Store) Create(ctx context.Context, in CreateInput) models.Post {
	now := time.Now().UTC()
	post := &models.Post{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Hashtags:    models.NormalizeHashtags(in.Hashtags),
		Platform:    in.Platform,
		Tone:        in.Tone,
		ImageOption: in.ImageOption,
		ImageURL:    in.ImageURL,
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.posts = append([]*models.Post{post}, s.posts...)
	created := clone(post)
	s.mu.Unlock()

	s.persist(ctx)
	return created
}

// Update merges the provided fields into an existing record and refreshes
// updatedAt. It never touches status.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (models.Post, error) {
	s.mu.Lock()
	post := s.find(id)
	if post == nil {
		s.mu.Unlock()
		return models.Post{}, models.NewNotFoundError("post", id)
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Description != nil {
		post.Description = *in.Description
	}
	if in.Hashtags != nil {
		post.Hashtags = models.NormalizeHashtags(in.Hashtags)
	}
	if in.Platform != nil {
		post.Platform = *in.Platform
	}
	if in.Tone != nil {
		post.Tone = *in.Tone
	}
	if in.ImageOption != nil {
		post.ImageOption = *in.ImageOption
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	post.UpdatedAt = time.Now().UTC()
	updated := clone(post)
	s.mu.Unlock()

	s.persist(ctx)
	return updated, nil
}

// Transition applies the workflow state machine. Entering Feedback requires
// non-empty feedback notes; entering any other state clears them so stale
// review comments never resurface. Entering review records the reviewer when
// one is supplied, and that assignment sticks until the next submission
// overwrites it.
func (s *Store) Transition(ctx context.Context, id string, target models.PostStatus, details TransitionDetails) (models.Post, error) {
	if !target.Valid() {
		return models.Post{}, models.NewValidationError(fmt.Sprintf("Unknown post status %q", target))
	}

	s.mu.Lock()
	post := s.find(id)
	if post == nil {
		s.mu.Unlock()
		return models.Post{}, models.NewNotFoundError("post", id)
	}

	if !models.CanTransition(post.Status, target) {
		from := post.Status
		s.mu.Unlock()
		return models.Post{}, models.NewValidationError(
			fmt.Sprintf("Cannot move post from %q to %q", from, target))
	}

	if target == models.StatusFeedback {
		if strings.TrimSpace(details.FeedbackNotes) == "" {
			s.mu.Unlock()
			return models.Post{}, models.NewValidationError("Feedback notes are required when requesting changes")
		}
		post.FeedbackNotes = details.FeedbackNotes
	} else {
		post.FeedbackNotes = ""
	}

	if (target == models.StatusSubmitted || target == models.StatusUnderReview) && details.ReviewedBy != "" {
		post.ReviewedBy = details.ReviewedBy
	}

	post.Status = target
	post.UpdatedAt = time.Now().UTC()
	updated := clone(post)
	s.mu.Unlock()

	s.persist(ctx)
	return updated, nil
}

// Delete removes the record permanently. It is idempotent: deleting an
// unknown ID leaves the collection unchanged and is not an error.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	removed := false
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.persist(ctx)
	}
}

// Get returns a copy of the record.
func (s *Store) Get(_ context.Context, id string) (models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post := s.find(id)
	if post == nil {
		return models.Post{}, models.NewNotFoundError("post", id)
	}
	return clone(post), nil
}

// List returns copies of all records in store order, most recent first.
func (s *Store) List(_ context.Context) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, clone(p))
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// find returns the live record for id. Callers must hold s.mu.
func (s *Store) find(id string) *models.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// persist snapshots the collection and writes it through. Failures are
// logged and counted, never propagated.
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	snapshot := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		snapshot = append(snapshot, clone(p))
	}
	s.mu.RUnlock()

	if err := s.persistence.Save(ctx, snapshot); err != nil {
		observability.StorePersistFailures.Inc()
		s.logger.ErrorContext(ctx, "failed to persist posts", slog.Int("posts", len(snapshot)), slog.String("error", err.Error()))
	}
}

// clone copies a post, including its hashtag slice, so callers can never
// mutate the canonical record.
func clone(p *models.Post) models.Post {
	out := *p
	if p.Hashtags != nil {
		out.Hashtags = append([]string(nil), p.Hashtags...)
	}
	return out
}
