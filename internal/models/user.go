package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UserRole controls what a user may do beyond editing their own drafts.
type UserRole string

// Supported roles.
const (
	RoleUser       UserRole = "User"
	RoleAdmin      UserRole = "Admin"
	RoleSuperadmin UserRole = "Superadmin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// CanReview reports whether the role grants access to the review queue and
// the approve/request-changes operations.
func (r UserRole) CanReview() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// User is an authenticated session identity. There is no user database;
// identities are minted at sign-in from the supplied email.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
}

// NewUserFromEmail derives a display identity from an email address:
// the local part with punctuation collapsed to spaces and words capitalized.
func NewUserFromEmail(email string, role UserRole) *User {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}

	var b strings.Builder
	startWord := true
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if startWord && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			startWord = false
		default:
			if !startWord {
				b.WriteByte(' ')
			}
			startWord = true
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		name = "SocialFlow User"
	}

	return &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		AvatarURL: fmt.Sprintf("https://placehold.co/100x100.png?text=%c", name[0]),
	}
}
