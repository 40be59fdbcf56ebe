// internal/dating/gating.go
// Intent filter and dealbreaker evaluator run before any scoring

package dating

import (
	"strings"

	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

// Veto names the gate that rejected a pair
type Veto string

const (
	VetoIntent     Veto = "intent"
	VetoGender     Veto = "gender"
	VetoAge        Veto = "age"
	VetoTrans      Veto = "trans"
	VetoAsexual    Veto = "asexual"
	VetoHeight     Veto = "height"
	VetoRace       Veto = "race"
	VetoReligion   Veto = "religion"
	VetoChildren   Veto = "children"
	VetoSubstances Veto = "substances"
	VetoPolitics   Veto = "politics"
)

// IsIntentCompatible evaluates intent from the viewer's side only
func IsIntentCompatible(viewer, candidate *profile.Profile) bool {
	switch viewer.LookingFor {
	case profile.IntentBoth:
		return true
	case profile.IntentFriendship:
		return candidate.LookingFor == profile.IntentFriendship || candidate.LookingFor == profile.IntentBoth
	default:
		return candidate.LookingFor == profile.IntentDating || candidate.LookingFor == profile.IntentBoth
	}
}

// IntentCompatibleBoth requires compatibility in both directions
func IntentCompatibleBoth(a, b *profile.Profile) bool {
	return IsIntentCompatible(a, b) && IsIntentCompatible(b, a)
}

// FailsDealbreakers reports whether any of the viewer's hard constraints rejects the candidate
func FailsDealbreakers(viewer, candidate *profile.Profile) bool {
	_, failed := CheckDealbreakers(viewer, candidate)
	return failed
}

// CheckDealbreakers returns the first failing check
func CheckDealbreakers(viewer, candidate *profile.Profile) (Veto, bool) {
	prefs := viewer.Preferences

	if !genderAccepted(prefs.GenderPref, candidate.Gender) {
		return VetoGender, true
	}
	if candidate.Age < prefs.AgeMin || candidate.Age > prefs.AgeMax {
		return VetoAge, true
	}
	if traitPoleFails(prefs.TransPref, candidate.IsTrans) {
		return VetoTrans, true
	}
	if traitPoleFails(prefs.AsexualPref, candidate.IsAsexual) {
		return VetoAsexual, true
	}
	if prefs.HeightStrength == profile.StrengthDealbreaker &&
		(candidate.SelfHeight < prefs.HeightMin || candidate.SelfHeight > prefs.HeightMax) {
		return VetoHeight, true
	}
	if prefs.RaceStrength == profile.StrengthDealbreaker && len(prefs.RacePrefs) > 0 &&
		!intersects(prefs.RacePrefs, candidate.Races) {
		return VetoRace, true
	}
	if prefs.ReligionStrength == profile.StrengthDealbreaker && len(prefs.ReligionPrefs) > 0 &&
		!intersects(prefs.ReligionPrefs, candidate.Religions) {
		return VetoReligion, true
	}
	if prefs.ChildrenStrength == profile.StrengthDealbreaker && !sameValue(viewer.Children, candidate.Children) {
		return VetoChildren, true
	}
	if prefs.SubstanceStrength == profile.StrengthDealbreaker && !sameValue(viewer.Substances, candidate.Substances) {
		return VetoSubstances, true
	}
	if prefs.PoliticsStrength == profile.StrengthDealbreaker && !sameValue(viewer.Politics, candidate.Politics) {
		return VetoPolitics, true
	}
	return "", false
}

// GateResult is the outcome of running every gate in both directions
type GateResult struct {
	Passed bool
	Veto   Veto
	// By is the user whose constraint rejected the pair
	By string
}

// Gate runs the intent filter and the dealbreaker evaluator in both directions
func Gate(a, b *profile.Profile) GateResult {
	if !IsIntentCompatible(a, b) {
		return GateResult{Veto: VetoIntent, By: a.ID}
	}
	if !IsIntentCompatible(b, a) {
		return GateResult{Veto: VetoIntent, By: b.ID}
	}
	if veto, failed := CheckDealbreakers(a, b); failed {
		return GateResult{Veto: veto, By: a.ID}
	}
	if veto, failed := CheckDealbreakers(b, a); failed {
		return GateResult{Veto: veto, By: b.ID}
	}
	return GateResult{Passed: true}
}

func genderAccepted(pref, gender string) bool {
	g := strings.ToLower(strings.TrimSpace(gender))
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "", "all", "both", "everyone", "any":
		return true
	case "women", "woman", "female":
		return g == "woman" || g == "women" || g == "female"
	case "men", "man", "male":
		return g == "man" || g == "men" || g == "male"
	default:
		return strings.EqualFold(strings.TrimSpace(pref), g)
	}
}

func traitPoleFails(pref profile.TraitPref, hasTrait bool) bool {
	switch pref {
	case profile.TraitNever:
		return hasTrait
	case profile.TraitOnly:
		return !hasTrait
	}
	return false
}

func intersects(wanted, have []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func sameValue(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
