// internal/dating/service.go

package dating

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
	"github.com/imadgeboyega/datescape-backend/internal/common/observability"
	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchExists      = errors.New("match already exists")
	ErrNotParticipant   = errors.New("user is not a participant in this match")
	ErrConcurrentUpdate = errors.New("match was modified concurrently, try again")
	ErrStoreUnavailable = errors.New("match store unavailable")
	ErrInvalidProfile   = errors.New("profile is not valid for matching")
	ErrCannotMatchSelf  = errors.New("cannot match a user with themselves")
	ErrDecisionClosed   = errors.New("decision already recorded for this match")
	ErrNotMatched       = errors.New("not matched with this user")
	ErrInvalidMatchID   = errors.New("invalid match id")
)

// Outcome describes what CreateOrRegenerateMatch did with the pair
type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeRegenerated Outcome = "regenerated"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeGated       Outcome = "gated"
	OutcomeSuppressed  Outcome = "suppressed"
	OutcomeInactive    Outcome = "inactive"
)

// Result is returned by CreateOrRegenerateMatch. Match is nil when the pair was gated
// and no record exists.
type Result struct {
	Outcome       Outcome        `json:"outcome"`
	Match         *Match         `json:"match,omitempty"`
	Compatibility *Compatibility `json:"compatibility,omitempty"`
	Veto          Veto           `json:"veto,omitempty"`
	VetoBy        string         `json:"vetoBy,omitempty"`
}

// QueueItem is one counterpart as seen by the viewing user
type QueueItem struct {
	MatchID    string           `json:"matchId"`
	LinkID     string           `json:"linkId"`
	UserID     string           `json:"userId"`
	Profile    *profile.Profile `json:"profile"`
	MatchScore int              `json:"matchScore"`
	LikedYou   bool             `json:"likedYou"`
	Matched    bool             `json:"matched"`
}

// CompatibilityReport explains how two users gate and score against each other
type CompatibilityReport struct {
	UserID        string        `json:"userId"`
	OtherID       string        `json:"otherId"`
	Gate          GateResult    `json:"gate"`
	Compatibility Compatibility `json:"compatibility"`
	State         State         `json:"state"`
}

// Notifier receives notification intents for lifecycle events
type Notifier interface {
	SendMatchNotification(ctx context.Context, matchID string, recipients ...string) (int, error)
	SendMessageNotification(ctx context.Context, matchID, senderID, recipientID string) (bool, error)
	AcknowledgeMessages(ctx context.Context, matchID, recipientID string) error
}

// Options tunes the service; zero values fall back to defaults
type Options struct {
	Scorer      *Scorer
	Normalizer  *profile.Normalizer
	Concurrency int
	QueueLimit  int
	Clock       func() time.Time
}

const (
	DefaultConcurrency = 8
	DefaultQueueLimit  = 50
)

type Service interface {
	// Lifecycle
	CreateOrRegenerateMatch(ctx context.Context, a, b *profile.Profile) (*Result, error)
	RecordDecision(ctx context.Context, matchID, userID string, liked bool) (*Match, error)
	Unmatch(ctx context.Context, matchID, userID string) (*Match, error)
	DeleteUserMatches(ctx context.Context, userID string) error

	// Batch flow
	EnumerateCandidates(ctx context.Context, viewer *profile.Profile) ([]*Match, error)
	RegenerateFor(ctx context.Context, userID string) error

	// Views
	Queue(ctx context.Context, userID string, limit int) ([]*QueueItem, error)
	Likes(ctx context.Context, userID string) ([]*QueueItem, error)
	Matches(ctx context.Context, userID string) ([]*QueueItem, error)
	GetMatch(ctx context.Context, matchID, userID string) (*Match, error)
	GetCompatibility(ctx context.Context, userID, otherID string) (*CompatibilityReport, error)

	// Messaging hooks
	NotifyNewMessage(ctx context.Context, matchID, senderID string) (bool, error)
	AcknowledgeMessages(ctx context.Context, matchID, userID string) error
}

type service struct {
	repo        Repository
	profiles    profile.Repository
	notifier    Notifier
	scorer      *Scorer
	normalizer  *profile.Normalizer
	concurrency int
	queueLimit  int
	now         func() time.Time
	log         *logger.Logger
}

// NewService wires the match store with the profile store it enumerates. notifier may be nil.
func NewService(repo Repository, profiles profile.Repository, notifier Notifier, log *logger.Logger, opts Options) Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &service{
		repo:        repo,
		profiles:    profiles,
		notifier:    notifier,
		scorer:      opts.Scorer,
		normalizer:  opts.Normalizer,
		concurrency: opts.Concurrency,
		queueLimit:  opts.QueueLimit,
		now:         opts.Clock,
		log:         log,
	}
	if s.scorer == nil {
		s.scorer = NewScorer(nil)
	}
	if s.normalizer == nil {
		s.normalizer = profile.NewNormalizer(nil)
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	if s.queueLimit <= 0 {
		s.queueLimit = DefaultQueueLimit
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateOrRegenerateMatch gates the pair, scores it and merges the result into the stored
// record. Decision state is never reset; records inactive on both sides are left untouched.
func (s *service) CreateOrRegenerateMatch(ctx context.Context, a, b *profile.Profile) (*Result, error) {
	if a == nil || b == nil || a.ID == "" || b.ID == "" {
		return nil, ErrInvalidProfile
	}
	if a.ID == b.ID {
		return nil, ErrCannotMatchSelf
	}
	if strings.Contains(a.ID, "_") || strings.Contains(b.ID, "_") {
		return nil, ErrInvalidMatchID
	}

	id := MatchID(a.ID, b.ID)
	ctx, span := observability.Tracer().Start(ctx, "dating.CreateOrRegenerateMatch")
	defer span.End()
	span.SetAttributes(attribute.String("match_id", id))

	gate := Gate(a, b)
	if !gate.Passed {
		vetoesTotal.WithLabelValues(string(gate.Veto)).Inc()
		result, err := s.suppress(ctx, id, gate)
		if err != nil {
			return nil, err
		}
		regenerationsTotal.WithLabelValues(string(result.Outcome)).Inc()
		span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
		return result, nil
	}

	compat := s.scorer.Score(a, b)
	compatibilityScores.Observe(float64(compat.Final))

	result, err := s.mergeScore(ctx, id, a, b, compat)
	if err != nil {
		return nil, err
	}
	regenerationsTotal.WithLabelValues(string(result.Outcome)).Inc()
	span.SetAttributes(attribute.String("outcome", string(result.Outcome)), attribute.Int("score", compat.Final))
	return result, nil
}

// suppress hides an existing pending record after the pair stopped passing gating
func (s *service) suppress(ctx context.Context, id string, gate GateResult) (*Result, error) {
	s.log.Debug("pair vetoed", "match_id", id, "veto", gate.Veto, "by", gate.By)

	var changed bool
	m, err := s.repo.UpdateMatch(ctx, id, func(cur *Match) (*Match, error) {
		changed = cur.Suppress(gate.Veto, s.now())
		if !changed {
			return nil, nil
		}
		return cur, nil
	})
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return &Result{Outcome: OutcomeGated, Veto: gate.Veto, VetoBy: gate.By}, nil
	case err != nil:
		return nil, err
	}

	result := &Result{Match: m, Veto: gate.Veto, VetoBy: gate.By}
	result.Outcome = OutcomeInactive
	if changed || m.Suppressed {
		result.Outcome = OutcomeSuppressed
	}
	return result, nil
}

// mergeScore regenerates an existing record or creates a new one. A create that loses
// the race to a concurrent create falls back to regeneration.
func (s *service) mergeScore(ctx context.Context, id string, a, b *profile.Profile, compat Compatibility) (*Result, error) {
	regenerate := func() (*Result, error) {
		var changed bool
		m, err := s.repo.UpdateMatch(ctx, id, func(cur *Match) (*Match, error) {
			changed = cur.Regenerate(a, b, compat.Final, s.now())
			if !changed {
				return nil, nil
			}
			return cur, nil
		})
		if err != nil {
			return nil, err
		}
		result := &Result{Match: m, Compatibility: &compat, Outcome: OutcomeUnchanged}
		switch {
		case changed:
			result.Outcome = OutcomeRegenerated
		case !m.IsActiveA && !m.IsActiveB:
			result.Outcome = OutcomeInactive
		}
		return result, nil
	}

	result, err := regenerate()
	if !errors.Is(err, ErrMatchNotFound) {
		return result, err
	}

	m := NewMatch(a, b, compat.Final, s.now())
	err = s.repo.CreateMatch(ctx, m)
	switch {
	case err == nil:
		matchesCreatedTotal.Inc()
		s.log.Info("match created", "match_id", m.ID, "score", m.MatchScore)
		return &Result{Outcome: OutcomeCreated, Match: m, Compatibility: &compat}, nil
	case errors.Is(err, ErrMatchExists):
		return regenerate()
	default:
		return nil, err
	}
}

// RecordDecision applies a like or pass from the acting user. On the PENDING to MATCHED
// edge both participants are notified; a notification failure does not fail the decision.
func (s *service) RecordDecision(ctx context.Context, matchID, userID string, liked bool) (*Match, error) {
	if _, _, err := ParseMatchID(matchID); err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "dating.RecordDecision")
	defer span.End()
	span.SetAttributes(attribute.String("match_id", matchID), attribute.Bool("liked", liked))

	var matchedNow bool
	m, err := s.repo.UpdateMatch(ctx, matchID, func(cur *Match) (*Match, error) {
		var err error
		matchedNow, err = cur.ApplyDecision(userID, liked, s.now())
		if err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	countDecision(liked)

	if matchedNow {
		mutualMatchesTotal.Inc()
		s.log.Info("mutual match", "match_id", m.ID)
		s.notifyMatched(ctx, m)
	}
	return m, nil
}

func (s *service) notifyMatched(ctx context.Context, m *Match) {
	if s.notifier == nil {
		return
	}
	sent, err := s.notifier.SendMatchNotification(ctx, m.ID, m.UserA, m.UserB)
	if err != nil {
		s.log.Error("failed to send match notification", "match_id", m.ID, "error", err)
		return
	}
	s.log.Debug("match notifications sent", "match_id", m.ID, "count", sent)
}

// Unmatch closes the pair for both participants. Repeating it returns the closed record.
func (s *service) Unmatch(ctx context.Context, matchID, userID string) (*Match, error) {
	if _, _, err := ParseMatchID(matchID); err != nil {
		return nil, err
	}
	m, err := s.repo.UpdateMatch(ctx, matchID, func(cur *Match) (*Match, error) {
		changed, err := cur.Deactivate(userID, s.now())
		if err != nil || !changed {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("match closed", "match_id", matchID, "by", userID)
	return m, nil
}

// DeleteUserMatches removes every record the user participates in
func (s *service) DeleteUserMatches(ctx context.Context, userID string) error {
	n, err := s.repo.DeleteUserMatches(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete matches for %s: %w", userID, err)
	}
	s.log.Info("match records deleted", "user_id", userID, "count", n)
	return nil
}

// RegenerateFor reloads the user's profile and re-runs enumeration for it
func (s *service) RegenerateFor(ctx context.Context, userID string) error {
	viewer, err := s.loadProfile(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.EnumerateCandidates(ctx, viewer)
	return err
}

// Queue lists counterparts the user has not decided on yet, best score first
func (s *service) Queue(ctx context.Context, userID string, limit int) ([]*QueueItem, error) {
	if limit <= 0 || limit > s.queueLimit {
		limit = s.queueLimit
	}
	items, err := s.view(ctx, userID, func(m *Match) bool {
		if !m.IsActiveFor(userID) || m.Suppressed {
			return false
		}
		other := m.CounterpartProfile(userID)
		return other != nil && other.DisplayName != "" && other.HasMedia()
	})
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Likes lists counterparts who liked the user while the user has not decided yet
func (s *service) Likes(ctx context.Context, userID string) ([]*QueueItem, error) {
	return s.view(ctx, userID, func(m *Match) bool {
		return !m.Matched && !m.Suppressed && m.IsActiveFor(userID) && m.LikedBy(m.Counterpart(userID))
	})
}

// Matches lists the user's mutual matches
func (s *service) Matches(ctx context.Context, userID string) ([]*QueueItem, error) {
	return s.view(ctx, userID, func(m *Match) bool { return m.Matched })
}

func (s *service) view(ctx context.Context, userID string, keep func(*Match) bool) ([]*QueueItem, error) {
	matches, err := s.repo.ListUserMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := []*QueueItem{}
	for _, m := range matches {
		if !keep(m) {
			continue
		}
		other := m.Counterpart(userID)
		items = append(items, &QueueItem{
			MatchID:    m.ID,
			LinkID:     CombinedLinkID(other, userID),
			UserID:     other,
			Profile:    m.CounterpartProfile(userID),
			MatchScore: m.MatchScore,
			LikedYou:   m.LikedBy(other),
			Matched:    m.Matched,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].MatchScore != items[j].MatchScore {
			return items[i].MatchScore > items[j].MatchScore
		}
		return items[i].MatchID < items[j].MatchID
	})
	return items, nil
}

// GetMatch returns a record the user participates in
func (s *service) GetMatch(ctx context.Context, matchID, userID string) (*Match, error) {
	if _, _, err := ParseMatchID(matchID); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := m.SideOf(userID); err != nil {
		return nil, err
	}
	return m, nil
}

// GetCompatibility gates and scores two users without touching the match store's decision state
func (s *service) GetCompatibility(ctx context.Context, userID, otherID string) (*CompatibilityReport, error) {
	if userID == otherID {
		return nil, ErrCannotMatchSelf
	}
	a, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.loadProfile(ctx, otherID)
	if err != nil {
		return nil, err
	}

	report := &CompatibilityReport{
		UserID:        userID,
		OtherID:       otherID,
		Gate:          Gate(a, b),
		Compatibility: s.scorer.Score(a, b),
		State:         StateNone,
	}
	m, err := s.repo.GetMatch(ctx, MatchID(userID, otherID))
	switch {
	case err == nil:
		report.State = m.State()
	case !errors.Is(err, ErrMatchNotFound):
		return nil, err
	}
	return report, nil
}

// NotifyNewMessage emits a message notification to the sender's counterpart. Only
// MATCHED pairs may chat.
func (s *service) NotifyNewMessage(ctx context.Context, matchID, senderID string) (bool, error) {
	m, err := s.GetMatch(ctx, matchID, senderID)
	if err != nil {
		return false, err
	}
	if !m.Matched {
		return false, ErrNotMatched
	}
	if s.notifier == nil {
		return false, nil
	}
	return s.notifier.SendMessageNotification(ctx, m.ID, senderID, m.Counterpart(senderID))
}

// AcknowledgeMessages re-arms message notifications for the reader
func (s *service) AcknowledgeMessages(ctx context.Context, matchID, userID string) error {
	m, err := s.GetMatch(ctx, matchID, userID)
	if err != nil {
		return err
	}
	if s.notifier == nil {
		return nil
	}
	return s.notifier.AcknowledgeMessages(ctx, m.ID, userID)
}

func (s *service) loadProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	doc, err := s.profiles.GetDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := s.normalizer.Normalize(doc.ID, doc.Data)
	if !res.Valid {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidProfile, userID, res.Problems)
	}
	return res.Profile, nil
}
