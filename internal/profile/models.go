//internals/profile/models.go

package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Intent is a user's stated relationship goal
type Intent string

const (
	IntentFriendship Intent = "Friendship"
	IntentDating     Intent = "Dating"
	IntentBoth       Intent = "Both"
)

// Strength is the ordered preference strength used by the soft-preference dimensions
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthStrong
	StrengthDealbreaker
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthStrong:
		return "strong"
	case StrengthDealbreaker:
		return "dealbreaker"
	default:
		return "none"
	}
}

// TraitPref is the 5-point scale used for trans and asexual identity preferences.
// The poles (Never, Only) are dealbreakers.
type TraitPref int

const (
	TraitNever TraitPref = iota
	TraitPreferNot
	TraitIndifferent
	TraitPrefer
	TraitOnly
)

func (t TraitPref) String() string {
	switch t {
	case TraitNever:
		return "never"
	case TraitPreferNot:
		return "prefer_not"
	case TraitPrefer:
		return "prefer"
	case TraitOnly:
		return "only"
	default:
		return "indifferent"
	}
}

// Prompt is a single profile prompt and its answer
type Prompt struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Preferences holds the preference block of a profile
type Preferences struct {
	AgeMin    int `json:"ageMin"`
	AgeMax    int `json:"ageMax"`
	HeightMin int `json:"heightMin"`
	HeightMax int `json:"heightMax"`

	// DistanceMin/DistanceMax bound the distance dimension; DistanceMax 0 means no limit
	DistanceMin float64 `json:"distMin"`
	DistanceMax float64 `json:"distMax"`

	GenderPref    string   `json:"genderPref"`
	RacePrefs     []string `json:"racePreferences"`
	ReligionPrefs []string `json:"religionPreferences"`

	HeightStrength    Strength `json:"heightDealbreaker"`
	RaceStrength      Strength `json:"racePrefStrength"`
	ReligionStrength  Strength `json:"religionPrefStrength"`
	ChildrenStrength  Strength `json:"childrenPref"`
	SubstanceStrength Strength `json:"substancePref"`
	PoliticsStrength  Strength `json:"politicsPref"`

	TransPref   TraitPref `json:"transPref"`
	AsexualPref TraitPref `json:"asexualPref"`
}

// Profile is the canonical profile record every scoring and lifecycle function consumes.
// All list fields are non-nil after normalization.
type Profile struct {
	ID          string   `json:"uid"`
	DisplayName string   `json:"displayName"`
	Age         int      `json:"age"`
	Gender      string   `json:"gender"`
	SelfHeight  int      `json:"selfHeight"`
	BirthDate   string   `json:"birthDate,omitempty"`
	Zodiac      string   `json:"zodiac,omitempty"`
	Interests   []string `json:"interests"`
	Races       []string `json:"races"`
	Religions   []string `json:"religions"`
	Bio         string   `json:"bio"`
	Media       []string `json:"media"`
	Prompts     []Prompt `json:"profilePrompts"`
	LookingFor  Intent   `json:"lookingFor"`

	IsTrans    bool   `json:"isTrans"`
	IsAsexual  bool   `json:"isAsexual"`
	Children   string `json:"children"`
	Substances string `json:"substances"`
	Politics   string `json:"politics"`

	Preferences Preferences `json:"preferences"`

	// Extra carries fields the normalizer does not model, untouched
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// HasMedia reports whether the profile has at least one media URL
func (p *Profile) HasMedia() bool {
	return len(p.Media) > 0
}

// Clone returns a deep copy suitable for storing as a match snapshot
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Interests = append([]string{}, p.Interests...)
	c.Races = append([]string{}, p.Races...)
	c.Religions = append([]string{}, p.Religions...)
	c.Media = append([]string{}, p.Media...)
	c.Prompts = append([]Prompt{}, p.Prompts...)
	c.Preferences.RacePrefs = append([]string{}, p.Preferences.RacePrefs...)
	c.Preferences.ReligionPrefs = append([]string{}, p.Preferences.ReligionPrefs...)
	if p.Extra != nil {
		c.Extra = make(map[string]interface{}, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// UnmarshalJSON accepts either the numeric form or the legacy word form
func (s *Strength) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("strength: %w", err)
	}
	*s = parseStrength(raw)
	return nil
}

// UnmarshalJSON accepts either the numeric form or the legacy word form
func (t *TraitPref) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("trait preference: %w", err)
	}
	*t = parseTraitPref(raw)
	return nil
}

func parseStrength(v interface{}) Strength {
	switch val := v.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		switch s {
		case "weak":
			return StrengthWeak
		case "strong":
			return StrengthStrong
		case "dealbreaker":
			return StrengthDealbreaker
		}
		if n, err := strconv.Atoi(s); err == nil {
			return strengthFromInt(n)
		}
		return StrengthNone
	default:
		if n, ok := toFloat(v); ok {
			return strengthFromInt(toInt(n, -1))
		}
		return StrengthNone
	}
}

func strengthFromInt(n int) Strength {
	if n < int(StrengthNone) || n > int(StrengthDealbreaker) {
		return StrengthNone
	}
	return Strength(n)
}

func parseTraitPref(v interface{}) TraitPref {
	switch val := v.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		switch s {
		case "dealbreaker", "never":
			return TraitNever
		case "preferred not", "prefer not", "prefer_not":
			return TraitPreferNot
		case "none", "indifferent", "":
			return TraitIndifferent
		case "preferred", "prefer":
			return TraitPrefer
		case "necessary", "only", "required":
			return TraitOnly
		}
		if n, err := strconv.Atoi(s); err == nil {
			return traitFromInt(n)
		}
		return TraitIndifferent
	default:
		if n, ok := toFloat(v); ok {
			return traitFromInt(toInt(n, -1))
		}
		return TraitIndifferent
	}
}

func traitFromInt(n int) TraitPref {
	if n < int(TraitNever) || n > int(TraitOnly) {
		return TraitIndifferent
	}
	return TraitPref(n)
}
