// internal/dating/models.go

package dating

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

// State is the lifecycle state of a pair
type State string

const (
	StateNone    State = "NONE"
	StatePending State = "PENDING"
	StateMatched State = "MATCHED"
	StateClosed  State = "CLOSED"
)

// Side identifies a participant slot in a match record
type Side int

const (
	SideA Side = iota
	SideB
)

// Match is the record kept for one unordered pair. UserA is always the lexicographically smaller id.
type Match struct {
	ID           string           `json:"id"`
	UserA        string           `json:"userA"`
	UserB        string           `json:"userB"`
	UserAProfile *profile.Profile `json:"userAProfile"`
	UserBProfile *profile.Profile `json:"userBProfile"`
	MatchScore   int              `json:"matchScore"`
	LikedByA     bool             `json:"likedByA"`
	LikedByB     bool             `json:"likedByB"`
	IsActiveA    bool             `json:"isActiveA"`
	IsActiveB    bool             `json:"isActiveB"`
	Matched      bool             `json:"matched"`

	// Suppressed hides a pending pair whose latest regeneration failed gating
	Suppressed     bool   `json:"suppressed,omitempty"`
	SuppressedVeto Veto   `json:"suppressedVeto,omitempty"`
	UnmatchedBy    string `json:"unmatchedBy,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"timestamp"`
	MatchedAt   *time.Time `json:"matchedAt,omitempty"`
	UnmatchedAt *time.Time `json:"unmatchedAt,omitempty"`
}

// MatchID builds the symmetric key for a pair
func MatchID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// ParseMatchID splits a match key into its two participant ids
func ParseMatchID(id string) (string, string, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] > parts[1] {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidMatchID, id)
	}
	return parts[0], parts[1], nil
}

// CombinedLinkID builds the per-viewer link id used by chat and detail screens
func CombinedLinkID(otherID, currentID string) string {
	return otherID + "_" + currentID
}

// ResolveLink turns a combined link id back into the counterpart id and the match id
func ResolveLink(combined, currentID string) (string, string, error) {
	suffix := "_" + currentID
	if currentID == "" || !strings.HasSuffix(combined, suffix) {
		return "", "", errors.New("link does not belong to current user")
	}
	other := strings.TrimSuffix(combined, suffix)
	if other == "" {
		return "", "", errors.New("link has no counterpart")
	}
	return other, MatchID(other, currentID), nil
}

// State derives the lifecycle state from the record flags
func (m *Match) State() State {
	switch {
	case m == nil:
		return StateNone
	case m.Matched:
		return StateMatched
	case !m.IsActiveA && !m.IsActiveB:
		return StateClosed
	default:
		return StatePending
	}
}

// SideOf returns the slot the user occupies
func (m *Match) SideOf(userID string) (Side, error) {
	switch userID {
	case m.UserA:
		return SideA, nil
	case m.UserB:
		return SideB, nil
	}
	return 0, ErrNotParticipant
}

// Counterpart returns the other participant's id
func (m *Match) Counterpart(userID string) string {
	if userID == m.UserA {
		return m.UserB
	}
	return m.UserA
}

// CounterpartProfile returns the snapshot of the other participant
func (m *Match) CounterpartProfile(userID string) *profile.Profile {
	if userID == m.UserA {
		return m.UserBProfile
	}
	return m.UserAProfile
}

// IsActiveFor reports whether the user's side may still act on the pair
func (m *Match) IsActiveFor(userID string) bool {
	switch userID {
	case m.UserA:
		return m.IsActiveA
	case m.UserB:
		return m.IsActiveB
	}
	return false
}

// LikedBy reports whether the user liked the pair
func (m *Match) LikedBy(userID string) bool {
	switch userID {
	case m.UserA:
		return m.LikedByA
	case m.UserB:
		return m.LikedByB
	}
	return false
}

// Clone returns a deep copy
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.UserAProfile = m.UserAProfile.Clone()
	c.UserBProfile = m.UserBProfile.Clone()
	if m.MatchedAt != nil {
		t := *m.MatchedAt
		c.MatchedAt = &t
	}
	if m.UnmatchedAt != nil {
		t := *m.UnmatchedAt
		c.UnmatchedAt = &t
	}
	return &c
}
