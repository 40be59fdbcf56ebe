// internal/dating/matching.go
// Compatibility scorer: two directional satisfaction ratios averaged into one percentage

package dating

import (
	"math"

	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

// Point values per dimension
const (
	interestPoints       = 3
	strongPrefPoints     = 10
	weakPrefPoints       = 3
	weakMissPenalty      = 10
	lifestylePenaltyStep = 2
	traitPreferBonus     = 5
	traitPreferNotCost   = 3
	distanceInRangePts   = 5
)

// DistanceSource supplies the distance between two users in the same unit as distMin/distMax.
// ok is false when the distance is unknown.
type DistanceSource interface {
	Distance(a, b *profile.Profile) (distance float64, ok bool)
}

// Directional is one side's satisfaction with the other
type Directional struct {
	Earned     float64 `json:"earned"`
	Possible   float64 `json:"possible"`
	Normalized float64 `json:"normalized"`
}

// Compatibility holds the final score and both directional parts
type Compatibility struct {
	Final int         `json:"final"`
	AtoB  Directional `json:"aToB"`
	BtoA  Directional `json:"bToA"`
}

// Scorer computes compatibility scores; the zero value has no distance dimension
type Scorer struct {
	distance DistanceSource
}

// NewScorer creates a scorer; distance may be nil
func NewScorer(distance DistanceSource) *Scorer {
	return &Scorer{distance: distance}
}

var defaultScorer = NewScorer(nil)

// ScoreMatch returns the final 0..100 score without a distance dimension
func ScoreMatch(a, b *profile.Profile) int {
	return defaultScorer.Score(a, b).Final
}

// Score computes both directions and combines them. The final score does not depend on argument order.
func (s *Scorer) Score(a, b *profile.Profile) Compatibility {
	ab := s.directional(a, b)
	ba := s.directional(b, a)

	final := math.Round(100 * (ab.Normalized + ba.Normalized) / 2)
	switch {
	case final < 0:
		final = 0
	case final > 100:
		final = 100
	}
	return Compatibility{Final: int(final), AtoB: ab, BtoA: ba}
}

// directional scores the scorer's satisfaction with the candidate
func (s *Scorer) directional(scorer, candidate *profile.Profile) Directional {
	var earned, possible float64
	add := func(e, p float64) {
		earned += e
		possible += p
	}
	prefs := scorer.Preferences

	add(interestsScore(scorer.Interests, candidate.Interests))

	if len(prefs.RacePrefs) > 0 && len(candidate.Races) > 0 {
		add(softPrefScore(prefs.RaceStrength, intersects(prefs.RacePrefs, candidate.Races)))
	}
	if len(prefs.ReligionPrefs) > 0 && len(candidate.Religions) > 0 {
		add(softPrefScore(prefs.ReligionStrength, intersects(prefs.ReligionPrefs, candidate.Religions)))
	}
	if prefs.HeightStrength != profile.StrengthNone {
		inRange := candidate.SelfHeight >= prefs.HeightMin && candidate.SelfHeight <= prefs.HeightMax
		add(softPrefScore(prefs.HeightStrength, inRange))
	}

	add(lifestylePenalty(prefs.ChildrenStrength, scorer.Children, candidate.Children), 0)
	add(lifestylePenalty(prefs.SubstanceStrength, scorer.Substances, candidate.Substances), 0)
	add(lifestylePenalty(prefs.PoliticsStrength, scorer.Politics, candidate.Politics), 0)

	add(traitScore(prefs.TransPref, candidate.IsTrans))
	add(traitScore(prefs.AsexualPref, candidate.IsAsexual))

	if s.distance != nil && prefs.DistanceMax > 0 {
		if d, ok := s.distance.Distance(scorer, candidate); ok {
			if d >= prefs.DistanceMin && d <= prefs.DistanceMax {
				add(distanceInRangePts, distanceInRangePts)
			} else {
				add(0, distanceInRangePts)
			}
		}
	}

	normalized := 1.0
	if possible != 0 {
		normalized = earned / possible
	}
	return Directional{Earned: earned, Possible: possible, Normalized: normalized}
}

// interestsScore counts each distinct scorer interest once
func interestsScore(mine, theirs []string) (float64, float64) {
	theirSet := make(map[string]struct{}, len(theirs))
	for _, t := range theirs {
		theirSet[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(mine))
	var shared, total int
	for _, m := range mine {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		total++
		if _, ok := theirSet[m]; ok {
			shared++
		}
	}
	return float64(shared * interestPoints), float64(total * interestPoints)
}

// softPrefScore rewards a satisfied race/religion/height preference by strength.
// Dealbreaker strength is enforced by gating and earns nothing here.
func softPrefScore(strength profile.Strength, satisfied bool) (float64, float64) {
	var value float64
	switch strength {
	case profile.StrengthStrong:
		value = strongPrefPoints
	case profile.StrengthWeak:
		value = weakPrefPoints
	default:
		return 0, 0
	}
	if satisfied {
		return value, value
	}
	if strength == profile.StrengthWeak {
		return -weakMissPenalty, value
	}
	return 0, value
}

func lifestylePenalty(strength profile.Strength, mine, theirs string) float64 {
	if sameValue(mine, theirs) {
		return 0
	}
	return -float64(lifestylePenaltyStep * int(strength))
}

func traitScore(pref profile.TraitPref, hasTrait bool) (float64, float64) {
	if !hasTrait {
		return 0, 0
	}
	switch pref {
	case profile.TraitPreferNot:
		return -traitPreferNotCost, 0
	case profile.TraitPrefer:
		return traitPreferBonus, traitPreferBonus
	}
	return 0, 0
}
