package models

// PostStatus is a post's position in the review pipeline.
type PostStatus string

// Workflow states, in pipeline order.
const (
	StatusDraft          PostStatus = "Draft"
	StatusSubmitted      PostStatus = "Submitted"
	StatusUnderReview    PostStatus = "Under Review"
	StatusApproved       PostStatus = "Approved"
	StatusFeedback       PostStatus = "Feedback"
	StatusReadyToPublish PostStatus = "Ready to Publish"
	StatusPublished      PostStatus = "Published"
)

// PostStatusValues lists every workflow state.
var PostStatusValues = []PostStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusFeedback,
	StatusReadyToPublish,
	StatusPublished,
}

// Valid reports whether s is a known workflow state.
func (s PostStatus) Valid() bool {
	for _, v := range PostStatusValues {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s PostStatus) Terminal() bool {
	return s == StatusPublished
}

// forwardTransitions holds the forward edges of the review pipeline.
// Returning to Draft is handled separately: any non-terminal state may be
// pulled back to Draft by an explicit edit.
var forwardTransitions = map[PostStatus][]PostStatus{
	StatusDraft:          {StatusSubmitted, StatusUnderReview},
	StatusSubmitted:      {StatusUnderReview},
	StatusUnderReview:    {StatusApproved, StatusReadyToPublish, StatusFeedback},
	StatusApproved:       {StatusReadyToPublish},
	StatusFeedback:       {StatusUnderReview},
	StatusReadyToPublish: {StatusPublished},
	StatusPublished:      {},
}

// CanTransition reports whether the workflow permits moving from one state
// to another.
func CanTransition(from, to PostStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == StatusDraft {
		return !from.Terminal()
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
