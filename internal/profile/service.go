// internal/profile/service.go

package profile

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
	"github.com/imadgeboyega/datescape-backend/internal/common/observability"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("profile is missing required fields")
	ErrEmptyUpdate     = errors.New("no profile fields supplied")
)

// MatchSync is the collaborator that keeps match records consistent with profile changes
type MatchSync interface {
	RegenerateFor(ctx context.Context, userID string) error
	DeleteUserMatches(ctx context.Context, userID string) error
}

// SaveResult reports what a profile save did
type SaveResult struct {
	Profile     *Profile `json:"profile"`
	Regenerated bool     `json:"regenerated"`
}

// Service defines the profile service interface
type Service interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, userID string, fields map[string]interface{}) (*SaveResult, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type service struct {
	repo       Repository
	matches    MatchSync
	normalizer *Normalizer
	log        *logger.Logger
}

// NewService creates a new profile service. matches may be nil when no match store is wired.
func NewService(repo Repository, matches MatchSync, normalizer *Normalizer, log *logger.Logger) Service {
	if normalizer == nil {
		normalizer = defaultNormalizer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &service{repo: repo, matches: matches, normalizer: normalizer, log: log}
}

// GetProfile loads and normalizes a user's profile
func (s *service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	doc, err := s.repo.GetDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := s.normalizer.Normalize(doc.ID, doc.Data)
	if !res.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, res.Problems)
	}
	return res.Profile, nil
}

// SaveProfile merges the supplied fields onto the stored document and persists it.
// When a match-relevant field changed, the user's match records are regenerated;
// regeneration failure is logged and does not fail the save.
func (s *service) SaveProfile(ctx context.Context, userID string, fields map[string]interface{}) (*SaveResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "profile.SaveProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	if len(fields) == 0 {
		return nil, ErrEmptyUpdate
	}

	var before *Profile
	merged := map[string]interface{}{}
	prev, err := s.repo.GetDocument(ctx, userID)
	switch {
	case err == nil:
		merged = flatten(prev.Data)
		if res := s.normalizer.Normalize(userID, prev.Data); res.Valid {
			before = res.Profile
		}
	case errors.Is(err, ErrProfileNotFound):
	default:
		return nil, err
	}

	// stored documents are rewritten in the flattened shape
	for k, v := range flatten(fields) {
		merged[k] = v
	}

	res := s.normalizer.Normalize(userID, merged)
	if !res.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, res.Problems)
	}

	if err := s.repo.SaveDocument(ctx, &Document{ID: userID, Data: merged}); err != nil {
		return nil, err
	}

	result := &SaveResult{Profile: res.Profile}
	if s.matches == nil || !MatchRelevantChanged(before, res.Profile) {
		return result, nil
	}

	if err := s.matches.RegenerateFor(ctx, userID); err != nil {
		s.log.Error("match regeneration after profile save failed", "user_id", userID, "error", err)
		return result, nil
	}
	result.Regenerated = true
	s.log.Info("match records regenerated after profile save", "user_id", userID)
	return result, nil
}

// DeleteProfile removes the user's document and every match record they participate in
func (s *service) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := s.repo.GetDocument(ctx, userID); err != nil {
		return err
	}
	if s.matches != nil {
		if err := s.matches.DeleteUserMatches(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete match records: %w", err)
		}
	}
	return s.repo.DeleteDocument(ctx, userID)
}
