package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    PostStatus
		to      PostStatus
		allowed bool
	}{
		{"submit draft", StatusDraft, StatusUnderReview, true},
		{"submit draft via submitted", StatusDraft, StatusSubmitted, true},
		{"submitted enters review", StatusSubmitted, StatusUnderReview, true},
		{"approve under review", StatusUnderReview, StatusReadyToPublish, true},
		{"approve hop", StatusUnderReview, StatusApproved, true},
		{"approved ready", StatusApproved, StatusReadyToPublish, true},
		{"request changes", StatusUnderReview, StatusFeedback, true},
		{"resubmit feedback", StatusFeedback, StatusUnderReview, true},
		{"publish", StatusReadyToPublish, StatusPublished, true},
		{"edit back to draft", StatusFeedback, StatusDraft, true},
		{"edit ready post", StatusReadyToPublish, StatusDraft, true},
		{"published is terminal", StatusPublished, StatusDraft, false},
		{"published cannot resubmit", StatusPublished, StatusUnderReview, false},
		{"no skipping review", StatusDraft, StatusPublished, false},
		{"no feedback from draft", StatusDraft, StatusFeedback, false},
		{"unknown target", StatusDraft, PostStatus("Archived"), false},
		{"unknown source", PostStatus(""), StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPostStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range PostStatusValues {
		assert.True(t, s.Valid(), "expected %q to be valid", s)
	}
	assert.False(t, PostStatus("Pending").Valid())
	assert.True(t, StatusPublished.Terminal())
	assert.False(t, StatusDraft.Terminal())
}

func TestNormalizeHashtags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"strips marker", []string{"a", "#b", "c d"}, []string{"a", "b", "cd"}},
		{"drops empties", []string{"", "#", "  "}, nil},
		{"trims outer space", []string{" #GoLang ", "\tnews\n"}, []string{"GoLang", "news"}},
		{"nil input", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHashtags(tt.in))
		})
	}
}

func TestNewUserFromEmail(t *testing.T) {
	t.Parallel()

	u := NewUserFromEmail("jane.doe@example.com", RoleUser)
	assert.Equal(t, "Jane Doe", u.Name)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEmpty(t, u.ID)

	admin := NewUserFromEmail("admin@example.com", RoleAdmin)
	assert.True(t, admin.Role.CanReview())
	assert.False(t, u.Role.CanReview())
}
