package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	res := NormalizeDocument("u1", map[string]interface{}{"gender": "Woman"})
	require.True(t, res.Valid)

	p := res.Profile
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "User_u1", p.DisplayName)
	assert.Equal(t, DefaultAge, p.Age)
	assert.Equal(t, DefaultSelfHeight, p.SelfHeight)
	assert.Equal(t, IntentDating, p.LookingFor)
	assert.Equal(t, DefaultAgeMin, p.Preferences.AgeMin)
	assert.Equal(t, DefaultAgeMax, p.Preferences.AgeMax)
	assert.Equal(t, DefaultHeightMin, p.Preferences.HeightMin)
	assert.Equal(t, DefaultHeightMax, p.Preferences.HeightMax)
	assert.Equal(t, TraitIndifferent, p.Preferences.TransPref)
	assert.Equal(t, TraitIndifferent, p.Preferences.AsexualPref)
	assert.Equal(t, "all", p.Preferences.GenderPref)

	assert.NotNil(t, p.Interests)
	assert.NotNil(t, p.Races)
	assert.NotNil(t, p.Religions)
	assert.NotNil(t, p.Media)
	assert.NotNil(t, p.Prompts)
	assert.NotNil(t, p.Preferences.RacePrefs)
	assert.NotNil(t, p.Preferences.ReligionPrefs)
}

func TestNormalizeValidity(t *testing.T) {
	t.Run("missing identity", func(t *testing.T) {
		res := Normalize(map[string]interface{}{"displayName": "Ana", "age": 30})
		assert.False(t, res.Valid)
		assert.Contains(t, res.Problems, "missing identity")
	})

	t.Run("no core fields", func(t *testing.T) {
		res := Normalize(map[string]interface{}{"uid": "u1", "bio": "hello"})
		assert.False(t, res.Valid)
		require.NotNil(t, res.Profile)
		assert.Equal(t, DefaultAge, res.Profile.Age)
	})

	t.Run("nil document", func(t *testing.T) {
		assert.False(t, NormalizeDocument("u1", nil).Valid)
	})

	t.Run("any single core field", func(t *testing.T) {
		for _, key := range []string{"displayName", "name", "username", "age", "gender", "lookingFor"} {
			res := Normalize(map[string]interface{}{"uid": "u1", key: "Both"})
			assert.True(t, res.Valid, key)
		}
	})

	t.Run("undecodable json", func(t *testing.T) {
		res := NormalizeJSON("u1", []byte("{not json"))
		assert.False(t, res.Valid)
		require.NotNil(t, res.Profile)
	})
}

func TestNormalizeNestedAndFlattened(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":         "u1",
		"displayName": "Top",
		"profile": map[string]interface{}{
			"displayName": "Nested",
			"age":         float64(30),
			"interests":   []interface{}{"Art"},
		},
	})
	require.True(t, res.Valid)
	assert.Equal(t, "Top", res.Profile.DisplayName)
	assert.Equal(t, 30, res.Profile.Age)
	assert.Equal(t, []string{"Art"}, res.Profile.Interests)
}

func TestNormalizeCoercion(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":        "u1",
		"name":       "Legacy",
		"age":        "31",
		"selfHeight": "70.0",
		"ageMin":     "abc",
		"heightMax":  int64(80),
		"isTrans":    "Yes",
		"isAsexual":  "no",
		"interests":  "Art",
		"races":      []interface{}{"Asian", 3, "  "},
		"religions":  []string{"Christian"},
		"lookingFor": "friendship",

		"politicalAlignment": "liberal",
		"substanceUse":       "sometimes",
	})
	require.True(t, res.Valid)

	p := res.Profile
	assert.Equal(t, "Legacy", p.DisplayName)
	assert.Equal(t, 31, p.Age)
	assert.Equal(t, 70, p.SelfHeight)
	assert.Equal(t, DefaultAgeMin, p.Preferences.AgeMin)
	assert.Equal(t, 80, p.Preferences.HeightMax)
	assert.True(t, p.IsTrans)
	assert.False(t, p.IsAsexual)
	assert.Empty(t, p.Interests)
	assert.Equal(t, []string{"Asian"}, p.Races)
	assert.Equal(t, []string{"Christian"}, p.Religions)
	assert.Equal(t, IntentFriendship, p.LookingFor)
	assert.Equal(t, "liberal", p.Politics)
	assert.Equal(t, "sometimes", p.Substances)
	assert.Equal(t, DefaultChildren, p.Children)
}

func TestNormalizeStrengths(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":                 "u1",
		"gender":              "Man",
		"heightDealbreaker":   "3",
		"racePrefStrength":    "strong",
		"childrenDealbreaker": float64(7),
		"substancePref":       "weak",
		"politicsPref":        float64(1),
		"religionPref":        float64(2),
		"transPref":           "necessary",
		"asexualPref":         "preferred not",
	})
	require.True(t, res.Valid)

	prefs := res.Profile.Preferences
	assert.Equal(t, StrengthDealbreaker, prefs.HeightStrength)
	assert.Equal(t, StrengthStrong, prefs.RaceStrength)
	assert.Equal(t, StrengthNone, prefs.ChildrenStrength)
	assert.Equal(t, StrengthWeak, prefs.SubstanceStrength)
	assert.Equal(t, StrengthWeak, prefs.PoliticsStrength)
	assert.Equal(t, StrengthStrong, prefs.ReligionStrength)
	assert.Empty(t, prefs.ReligionPrefs)
	assert.Equal(t, TraitOnly, prefs.TransPref)
	assert.Equal(t, TraitPreferNot, prefs.AsexualPref)
}

func TestNormalizePreferenceLists(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":                  "u1",
		"gender":               "Man",
		"racePref":             []interface{}{"Black"},
		"religionPref":         []interface{}{"Muslim"},
		"religionPrefStrength": "dealbreaker",
	})
	prefs := res.Profile.Preferences
	assert.Equal(t, []string{"Black"}, prefs.RacePrefs)
	assert.Equal(t, []string{"Muslim"}, prefs.ReligionPrefs)
	assert.Equal(t, StrengthDealbreaker, prefs.ReligionStrength)

	t.Run("explicit no-preference flags clear lists", func(t *testing.T) {
		res := Normalize(map[string]interface{}{
			"uid":               "u1",
			"gender":            "Man",
			"racePreferences":   []interface{}{"Black"},
			"hasRacePref":       "no",
			"heightDealbreaker": float64(3),
			"hasHeightPref":     false,
		})
		assert.Empty(t, res.Profile.Preferences.RacePrefs)
		assert.Equal(t, StrengthNone, res.Profile.Preferences.HeightStrength)
	})
}

func TestNormalizeBirthDate(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC) }
	n := NewNormalizer(clock)

	res := n.Normalize("u1", map[string]interface{}{"birthDate": "2000-06-16"})
	require.True(t, res.Valid)
	assert.Equal(t, 23, res.Profile.Age)
	assert.Equal(t, "Gemini", res.Profile.Zodiac)

	res = n.Normalize("u1", map[string]interface{}{"birthdate": "1990-01-05", "age": float64(40)})
	assert.Equal(t, 40, res.Profile.Age)
	assert.Equal(t, "Capricorn", res.Profile.Zodiac)
}

func TestNormalizePreservesExtra(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":             "u1",
		"gender":          "Woman",
		"favoriteColor":   "blue",
		"profilePrompts":  []interface{}{map[string]interface{}{"question": "Best trip?", "answer": "Lisbon"}},
		"lastSeenVersion": float64(3),
	})
	assert.Equal(t, "blue", res.Profile.Extra["favoriteColor"])
	assert.Equal(t, float64(3), res.Profile.Extra["lastSeenVersion"])
	assert.NotContains(t, res.Profile.Extra, "gender")
	assert.Equal(t, []Prompt{{Prompt: "Best trip?", Answer: "Lisbon"}}, res.Profile.Prompts)
}

func TestMatchRelevantChanged(t *testing.T) {
	base := Normalize(map[string]interface{}{"uid": "u1", "gender": "Woman", "bio": "hi"}).Profile

	same := base.Clone()
	assert.False(t, MatchRelevantChanged(base, same))

	extra := base.Clone()
	extra.Extra = map[string]interface{}{"theme": "dark"}
	assert.False(t, MatchRelevantChanged(base, extra))

	bio := base.Clone()
	bio.Bio = "hello"
	assert.True(t, MatchRelevantChanged(base, bio))

	prefs := base.Clone()
	prefs.Preferences.AgeMax = 40
	assert.True(t, MatchRelevantChanged(base, prefs))

	assert.True(t, MatchRelevantChanged(nil, base))
}

func TestStrengthJSON(t *testing.T) {
	var s Strength
	require.NoError(t, s.UnmarshalJSON([]byte(`"dealbreaker"`)))
	assert.Equal(t, StrengthDealbreaker, s)
	require.NoError(t, s.UnmarshalJSON([]byte(`1`)))
	assert.Equal(t, StrengthWeak, s)

	var tp TraitPref
	require.NoError(t, tp.UnmarshalJSON([]byte(`0`)))
	assert.Equal(t, TraitNever, tp)
	assert.Equal(t, "never", tp.String())
}

func TestNormalizeRoundTripsSerializedProfile(t *testing.T) {
	p := &Profile{
		ID:          "u1",
		DisplayName: "Ana",
		Age:         29,
		Gender:      "Woman",
		SelfHeight:  64,
		Interests:   []string{"Art", "Hiking"},
		Races:       []string{"Asian"},
		Religions:   []string{},
		Bio:         "hi",
		Media:       []string{"https://cdn.example/a.jpg"},
		Prompts:     []Prompt{{Prompt: "Best trip?", Answer: "Lisbon"}},
		LookingFor:  IntentBoth,
		IsTrans:     false,
		IsAsexual:   true,
		Children:    "yes",
		Substances:  "no",
		Politics:    "liberal",
		Preferences: Preferences{
			AgeMin:            25,
			AgeMax:            40,
			HeightMin:         60,
			HeightMax:         76,
			DistanceMax:       30,
			GenderPref:        "man",
			RacePrefs:         []string{"Asian", "Black"},
			ReligionPrefs:     []string{"Christian"},
			HeightStrength:    StrengthStrong,
			RaceStrength:      StrengthDealbreaker,
			ReligionStrength:  StrengthWeak,
			ChildrenStrength:  StrengthWeak,
			SubstanceStrength: StrengthNone,
			PoliticsStrength:  StrengthDealbreaker,
			TransPref:         TraitNever,
			AsexualPref:       TraitPrefer,
		},
		Extra: map[string]interface{}{"theme": "dark"},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	res := NormalizeJSON("", data)
	require.True(t, res.Valid, res.Problems)
	assert.Equal(t, p, res.Profile)
}

func TestNormalizePreferencesBlock(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":    "u1",
		"gender": "Woman",
		"ageMax": float64(50),
		"preferences": map[string]interface{}{
			"ageMin":           float64(25),
			"ageMax":           float64(35),
			"racePrefStrength": float64(3),
			"transPref":        float64(0),
		},
	})
	require.True(t, res.Valid)

	prefs := res.Profile.Preferences
	assert.Equal(t, 25, prefs.AgeMin)
	assert.Equal(t, 50, prefs.AgeMax, "top-level fields win over the preferences block")
	assert.Equal(t, StrengthDealbreaker, prefs.RaceStrength)
	assert.Equal(t, TraitNever, prefs.TransPref)
	assert.NotContains(t, res.Profile.Extra, "preferences")
}

func TestNormalizeOutOfRangeNumbers(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"uid":               "u1",
		"gender":            "Woman",
		"age":               1e300,
		"selfHeight":        -1e20,
		"ageMax":            "9e99",
		"heightDealbreaker": 1e300,
	})
	require.True(t, res.Valid)
	assert.Equal(t, DefaultAge, res.Profile.Age)
	assert.Equal(t, DefaultSelfHeight, res.Profile.SelfHeight)
	assert.Equal(t, DefaultAgeMax, res.Profile.Preferences.AgeMax)
	assert.Equal(t, StrengthNone, res.Profile.Preferences.HeightStrength)
}
