// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
	"unicode"
)

// SocialPlatform is the target network a post is written for.
type SocialPlatform string

// Supported social platforms.
const (
	PlatformTwitter   SocialPlatform = "Twitter"
	PlatformFacebook  SocialPlatform = "Facebook"
	PlatformInstagram SocialPlatform = "Instagram"
	PlatformLinkedIn  SocialPlatform = "LinkedIn"
)

// SocialPlatforms lists every supported platform.
var SocialPlatforms = []SocialPlatform{
	PlatformTwitter,
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedIn,
}

// Valid reports whether p is a supported platform.
func (p SocialPlatform) Valid() bool {
	for _, v := range SocialPlatforms {
		if p == v {
			return true
		}
	}
	return false
}

// PostTone is the desired voice for generated content.
type PostTone string

// Supported tones.
const (
	ToneProfessional  PostTone = "Professional"
	ToneFriendly      PostTone = "Friendly"
	ToneHumorous      PostTone = "Humorous"
	ToneInspirational PostTone = "Inspirational"
)

// PostTones lists every supported tone.
var PostTones = []PostTone{
	ToneProfessional,
	ToneFriendly,
	ToneHumorous,
	ToneInspirational,
}

// Valid reports whether t is a supported tone.
func (t PostTone) Valid() bool {
	for _, v := range PostTones {
		if t == v {
			return true
		}
	}
	return false
}

// ImageOption describes where a post's image comes from.
type ImageOption string

// Supported image options.
const (
	ImagePlatformDefault ImageOption = "platformDefault"
	ImageUpload          ImageOption = "upload"
	ImageGenerateWithAI  ImageOption = "generateWithAI"
)

// Valid reports whether o is a supported image option.
func (o ImageOption) Valid() bool {
	switch o {
	case ImagePlatformDefault, ImageUpload, ImageGenerateWithAI:
		return true
	}
	return false
}

// Post is a single social-media content draft together with its review
// workflow metadata. JSON field names follow the frontend contract
// (camelCase), which is also the shape persisted by the store.
type Post struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Hashtags      []string       `json:"hashtags"`
	Platform      SocialPlatform `json:"platform"`
	Tone          PostTone       `json:"tone"`
	ImageOption   ImageOption    `json:"imageOption"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	Status        PostStatus     `json:"status"`
	FeedbackNotes string         `json:"feedbackNotes,omitempty"`
	ReviewedBy    string         `json:"reviewedBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// NormalizeHashtags strips the leading '#' marker and any whitespace from
// each tag and drops tags that end up empty. Order is preserved.
func NormalizeHashtags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		tag = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
