// Package reviewers loads the review-team roster from a YAML file. The
// roster feeds the reviewer picker in the submission flow and the admin
// dashboard.
package reviewers

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"socialflow/internal/models"

	"gopkg.in/yaml.v3"
)

// Reviewer is one roster entry.
type Reviewer struct {
	Name  string          `yaml:"name" json:"name"`
	Email string          `yaml:"email" json:"email"`
	Role  models.UserRole `yaml:"role" json:"role"`
	Teams []string        `yaml:"teams,omitempty" json:"teams,omitempty"`
}

type rosterFile struct {
	Reviewers []Reviewer `yaml:"reviewers"`
}

// Roster is an immutable-after-load reviewer list.
type Roster struct {
	mu        sync.RWMutex
	reviewers []Reviewer
}

// Load reads and validates the roster file. A missing file yields an empty
// roster rather than an error so the feature degrades to manual reviewer
// entry.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Roster{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reviewers file: %w", err)
	}
	return Parse(data)
}

// Parse decodes roster YAML.
func Parse(data []byte) (*Roster, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse reviewers file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Reviewers))
	reviewers := make([]Reviewer, 0, len(file.Reviewers))
	for i, r := range file.Reviewers {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		if r.Email == "" {
			return nil, fmt.Errorf("reviewer %d: email is required", i)
		}
		if _, dup := seen[r.Email]; dup {
			return nil, fmt.Errorf("reviewer %d: duplicate email %q", i, r.Email)
		}
		seen[r.Email] = struct{}{}

		if r.Role == "" {
			r.Role = models.RoleAdmin
		}
		if !r.Role.CanReview() {
			return nil, fmt.Errorf("reviewer %d: role %q cannot review", i, r.Role)
		}
		if r.Name == "" {
			r.Name = r.Email
		}
		reviewers = append(reviewers, r)
	}

	sort.Slice(reviewers, func(i, j int) bool { return reviewers[i].Name < reviewers[j].Name })
	return &Roster{reviewers: reviewers}, nil
}

// All returns a copy of the roster.
func (r *Roster) All() []Reviewer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Reviewer(nil), r.reviewers...)
}

// ByEmail looks up a reviewer.
func (r *Roster) ByEmail(email string) (Reviewer, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rev := range r.reviewers {
		if rev.Email == email {
			return rev, true
		}
	}
	return Reviewer{}, false
}

// Len returns the roster size.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reviewers)
}
