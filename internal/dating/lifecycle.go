// internal/dating/lifecycle.go
// Pure state transitions over a freshly read match record

package dating

import (
	"time"

	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

// NewMatch builds a PENDING record for a pair that passed gating
func NewMatch(a, b *profile.Profile, score int, now time.Time) *Match {
	if b.ID < a.ID {
		a, b = b, a
	}
	now = now.UTC()
	return &Match{
		ID:           MatchID(a.ID, b.ID),
		UserA:        a.ID,
		UserB:        b.ID,
		UserAProfile: a.Clone(),
		UserBProfile: b.Clone(),
		MatchScore:   score,
		IsActiveA:    true,
		IsActiveB:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Regenerate merges fresh snapshots and score into the record without touching decision state.
// It reports false when the record is inactive on both sides or nothing changed.
func (m *Match) Regenerate(a, b *profile.Profile, score int, now time.Time) bool {
	if !m.IsActiveA && !m.IsActiveB {
		return false
	}
	if b.ID == m.UserA {
		a, b = b, a
	}

	changed := m.MatchScore != score || m.Suppressed ||
		profile.MatchRelevantChanged(m.UserAProfile, a) ||
		profile.MatchRelevantChanged(m.UserBProfile, b)
	if !changed {
		return false
	}

	m.UserAProfile = a.Clone()
	m.UserBProfile = b.Clone()
	m.MatchScore = score
	m.Suppressed = false
	m.SuppressedVeto = ""
	m.UpdatedAt = now.UTC()
	return true
}

// Suppress hides a pending pair after a regeneration failed gating. Inactive or
// already suppressed records are left alone.
func (m *Match) Suppress(veto Veto, now time.Time) bool {
	if m.State() != StatePending || m.Suppressed {
		return false
	}
	m.Suppressed = true
	m.SuppressedVeto = veto
	m.UpdatedAt = now.UTC()
	return true
}

// ApplyDecision records a like or pass from one participant. Only the acting side is
// deactivated; a like that meets an earlier like from the counterpart promotes the pair
// to MATCHED. The returned flag is true on that edge only.
func (m *Match) ApplyDecision(userID string, liked bool, now time.Time) (bool, error) {
	side, err := m.SideOf(userID)
	if err != nil {
		return false, err
	}
	if !m.IsActiveFor(userID) || m.Suppressed {
		return false, ErrDecisionClosed
	}

	now = now.UTC()
	switch side {
	case SideA:
		m.LikedByA = liked
		m.IsActiveA = false
	case SideB:
		m.LikedByB = liked
		m.IsActiveB = false
	}
	m.UpdatedAt = now

	if m.LikedByA && m.LikedByB && !m.Matched {
		m.Matched = true
		m.IsActiveA = false
		m.IsActiveB = false
		m.MatchedAt = &now
		return true, nil
	}
	return false, nil
}

// Deactivate force-closes the pair for both sides (unmatch or block). Repeating it is a no-op.
func (m *Match) Deactivate(by string, now time.Time) (bool, error) {
	if _, err := m.SideOf(by); err != nil {
		return false, err
	}
	if !m.IsActiveA && !m.IsActiveB && !m.Matched {
		return false, nil
	}

	now = now.UTC()
	m.IsActiveA = false
	m.IsActiveB = false
	m.Matched = false
	m.Suppressed = false
	m.SuppressedVeto = ""
	m.UnmatchedBy = by
	m.UnmatchedAt = &now
	m.UpdatedAt = now
	return true, nil
}
