// Package seed creates demo content for development and testing. It drives
// posts through the real workflow transitions so every state carries the
// metadata a real post would have.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"socialflow/internal/models"
	"socialflow/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configuration for the seeder
type Options struct {
	NumPosts int
	// Deterministic seeds gofakeit with a fixed value so repeated runs
	// produce the same content.
	Deterministic bool
}

var reviewerNames = []string{
	"content-team", "brand-desk", "dana@example.com", "sam@example.com",
}

var feedbackSamples = []string{
	"Tone this down a little, it reads too salesy.",
	"Swap the second sentence for a customer quote.",
	"Hashtags feel off-topic, tighten them up.",
	"Great hook, but the CTA is buried. Move it up.",
}

// statusPaths maps each workflow state to the transitions that reach it
// from a fresh draft.
var statusPaths = map[models.PostStatus][]models.PostStatus{
	models.StatusDraft:       {},
	models.StatusSubmitted:   {models.StatusSubmitted},
	models.StatusUnderReview: {models.StatusSubmitted, models.StatusUnderReview},
	models.StatusFeedback: {
		models.StatusSubmitted, models.StatusUnderReview, models.StatusFeedback},
	models.StatusApproved: {
		models.StatusSubmitted, models.StatusUnderReview, models.StatusApproved},
	models.StatusReadyToPublish: {
		models.StatusSubmitted, models.StatusUnderReview,
		models.StatusApproved, models.StatusReadyToPublish},
	models.StatusPublished: {
		models.StatusSubmitted, models.StatusUnderReview,
		models.StatusApproved, models.StatusReadyToPublish, models.StatusPublished},
}

// Posts fills the store with generated posts spread across every workflow
// state. It returns the number of posts created.
func Posts(ctx context.Context, st *store.Store, opts Options) (int, error) {
	if opts.NumPosts <= 0 {
		opts.NumPosts = 25
	}
	if opts.Deterministic {
		gofakeit.Seed(1)
	} else {
		gofakeit.Seed(time.Now().UnixNano())
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	if opts.Deterministic {
		r = rand.New(rand.NewSource(1))
	}

	for i := 0; i < opts.NumPosts; i++ {
		target := models.PostStatusValues[i%len(models.PostStatusValues)]

		post := st.Create(ctx, buildDraft(r))
		if err := advanceTo(ctx, st, post.ID, target, r); err != nil {
			return i, fmt.Errorf("seed post %d: %w", i, err)
		}
	}
	return opts.NumPosts, nil
}

func buildDraft(r *rand.Rand) store.CreateInput {
	platform := models.SocialPlatforms[r.Intn(len(models.SocialPlatforms))]
	tone := models.PostTones[r.Intn(len(models.PostTones))]

	in := store.CreateInput{
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Paragraph(1, 3, 8, " "),
		Hashtags:    fakeHashtags(r),
		Platform:    platform,
		Tone:        tone,
		ImageOption: models.ImagePlatformDefault,
	}

	// A third of the demo posts come with a stock image attached.
	if r.Intn(3) == 0 {
		in.ImageOption = models.ImageUpload
		in.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/450", gofakeit.UUID())
	}
	return in
}

func fakeHashtags(r *rand.Rand) []string {
	n := 2 + r.Intn(4)
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, gofakeit.BuzzWord())
	}
	return models.NormalizeHashtags(tags)
}

func advanceTo(ctx context.Context, st *store.Store, id string, target models.PostStatus, r *rand.Rand) error {
	for _, step := range statusPaths[target] {
		details := store.TransitionDetails{}
		switch step {
		case models.StatusSubmitted:
			details.ReviewedBy = reviewerNames[r.Intn(len(reviewerNames))]
		case models.StatusFeedback:
			details.FeedbackNotes = feedbackSamples[r.Intn(len(feedbackSamples))]
		}
		if _, err := st.Transition(ctx, id, step, details); err != nil {
			return err
		}
	}
	return nil
}
