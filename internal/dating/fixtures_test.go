package dating

import (
	"time"

	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testProfile returns a neutral dating profile: no interests, open preferences
func testProfile(id string, opts ...func(*profile.Profile)) *profile.Profile {
	p := &profile.Profile{
		ID:          id,
		DisplayName: "User " + id,
		Age:         30,
		Gender:      "Woman",
		SelfHeight:  66,
		Interests:   []string{},
		Races:       []string{},
		Religions:   []string{},
		Media:       []string{"https://cdn.example.com/" + id + ".jpg"},
		Prompts:     []profile.Prompt{},
		LookingFor:  profile.IntentDating,
		Children:    "no",
		Substances:  "no",
		Politics:    "moderate",
		Preferences: profile.Preferences{
			AgeMin:        18,
			AgeMax:        100,
			HeightMin:     48,
			HeightMax:     84,
			GenderPref:    "all",
			RacePrefs:     []string{},
			ReligionPrefs: []string{},
			TransPref:     profile.TraitIndifferent,
			AsexualPref:   profile.TraitIndifferent,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func withInterests(interests ...string) func(*profile.Profile) {
	return func(p *profile.Profile) { p.Interests = interests }
}

func withIntent(intent profile.Intent) func(*profile.Profile) {
	return func(p *profile.Profile) { p.LookingFor = intent }
}

func withPrefs(fn func(*profile.Preferences)) func(*profile.Profile) {
	return func(p *profile.Profile) { fn(&p.Preferences) }
}

// profileDocument renders a profile the way clients store it
func profileDocument(p *profile.Profile) map[string]interface{} {
	interests := make([]interface{}, 0, len(p.Interests))
	for _, i := range p.Interests {
		interests = append(interests, i)
	}
	media := make([]interface{}, 0, len(p.Media))
	for _, m := range p.Media {
		media = append(media, m)
	}
	return map[string]interface{}{
		"uid":         p.ID,
		"displayName": p.DisplayName,
		"age":         float64(p.Age),
		"gender":      p.Gender,
		"lookingFor":  string(p.LookingFor),
		"interests":   interests,
		"media":       media,
		"genderPref":  p.Preferences.GenderPref,
		"ageMin":      float64(p.Preferences.AgeMin),
		"ageMax":      float64(p.Preferences.AgeMax),
	}
}
