// internal/dating/recommendations.go

package dating

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/imadgeboyega/datescape-backend/internal/common/observability"
	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

// EnumerateCandidates evaluates the viewer against every stored profile and returns the
// records of pairs that passed gating, best score first. A failure on one candidate is
// logged and skipped; only a failure to list profiles fails the run.
func (s *service) EnumerateCandidates(ctx context.Context, viewer *profile.Profile) ([]*Match, error) {
	if viewer == nil || viewer.ID == "" {
		return nil, ErrInvalidProfile
	}
	defer observeEnumeration(time.Now())

	ctx, span := observability.Tracer().Start(ctx, "dating.EnumerateCandidates")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", viewer.ID))

	docs, err := s.profiles.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		matches []*Match
		skipped int
	)
	skip := func() {
		mu.Lock()
		skipped++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			m, ok := s.evaluateCandidate(gctx, viewer, doc)
			if !ok {
				skip()
				return nil
			}
			mu.Lock()
			matches = append(matches, m)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].ID < matches[j].ID
	})

	span.SetAttributes(attribute.Int("candidates", len(docs)), attribute.Int("matches", len(matches)))
	s.log.Info("candidates enumerated", "user_id", viewer.ID, "candidates", len(docs), "matches", len(matches), "skipped", skipped)
	return matches, nil
}

// evaluateCandidate returns the pair's record, or false when the candidate is skipped
func (s *service) evaluateCandidate(ctx context.Context, viewer *profile.Profile, doc *profile.Document) (*Match, bool) {
	if doc.ID == viewer.ID {
		return nil, false
	}
	res := s.normalizer.Normalize(doc.ID, doc.Data)
	if !res.Valid {
		s.log.Debug("skipping invalid candidate", "candidate_id", doc.ID, "problems", res.Problems)
		return nil, false
	}
	candidate := res.Profile
	if candidate.ID == viewer.ID {
		return nil, false
	}

	existing, err := s.repo.GetMatch(ctx, MatchID(viewer.ID, candidate.ID))
	switch {
	case err == nil && !existing.IsActiveA && !existing.IsActiveB:
		s.log.Debug("skipping closed pair", "match_id", existing.ID, "state", existing.State())
		return nil, false
	case err != nil && !errors.Is(err, ErrMatchNotFound):
		s.log.Error("failed to load match", "viewer_id", viewer.ID, "candidate_id", candidate.ID, "error", err)
		return nil, false
	}

	result, err := s.CreateOrRegenerateMatch(ctx, viewer, candidate)
	if err != nil {
		s.log.Error("failed to evaluate candidate", "viewer_id", viewer.ID, "candidate_id", candidate.ID, "error", err)
		return nil, false
	}
	switch result.Outcome {
	case OutcomeCreated, OutcomeRegenerated, OutcomeUnchanged:
		return result.Match, true
	}
	return nil, false
}
