// internal/profile/normalize.go
// Coerces stored user documents (nested or flattened, legacy encodings) into one canonical Profile

package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Documented fallbacks for missing or non-numeric upstream values
const (
	DefaultAge        = 25
	DefaultSelfHeight = 66
	DefaultAgeMin     = 18
	DefaultAgeMax     = 100
	DefaultHeightMin  = 48
	DefaultHeightMax  = 84
	DefaultGender     = "Unknown"
	DefaultGenderPref = "all"
	DefaultChildren   = "no"
	DefaultSubstances = "no"
	DefaultPolitics   = "moderate"
)

// Result is the outcome of normalizing one stored record
type Result struct {
	Profile  *Profile `json:"profile"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// Normalizer converts raw documents into canonical profiles. The clock is only used
// to derive age from a birthdate.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer; a nil clock means time.Now
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize normalizes a raw record whose identity is stored inside the record
func Normalize(raw map[string]interface{}) Result {
	return defaultNormalizer.Normalize("", raw)
}

// NormalizeDocument normalizes a raw record stored under the given document id
func NormalizeDocument(id string, raw map[string]interface{}) Result {
	return defaultNormalizer.Normalize(id, raw)
}

// NormalizeJSON decodes a JSON document and normalizes it. Undecodable input yields an invalid result.
func NormalizeJSON(id string, data []byte) Result {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{
			Profile:  defaultNormalizer.Normalize(id, nil).Profile,
			Valid:    false,
			Problems: []string{fmt.Sprintf("undecodable document: %v", err)},
		}
	}
	return defaultNormalizer.Normalize(id, raw)
}

// keys consumed by the normalizer; everything else lands in Profile.Extra
var knownKeys = map[string]struct{}{
	"profile": {}, "preferences": {}, "extra": {}, "uid": {}, "id": {}, "userId": {},
	"displayName": {}, "name": {}, "username": {},
	"age": {}, "birthDate": {}, "birthdate": {}, "zodiac": {}, "gender": {}, "selfHeight": {},
	"interests": {}, "races": {}, "religions": {}, "bio": {}, "media": {}, "profilePrompts": {},
	"lookingFor": {}, "isTrans": {}, "isAsexual": {},
	"children": {}, "substances": {}, "substanceUse": {}, "politics": {}, "politicalAlignment": {},
	"ageMin": {}, "ageMax": {}, "heightMin": {}, "heightMax": {}, "distMin": {}, "distMax": {},
	"genderPref": {}, "racePref": {}, "racePreferences": {}, "religionPref": {}, "religionPreferences": {},
	"hasRacePref": {}, "hasReligionPref": {}, "hasHeightPref": {},
	"heightDealbreaker": {}, "racePrefStrength": {}, "raceDealbreaker": {},
	"religionPrefStrength": {}, "religionDealbreaker": {},
	"childrenPref": {}, "childrenDealbreaker": {},
	"substancePref": {}, "substanceDealbreaker": {},
	"politicsPref": {}, "politicalDealbreaker": {},
	"transPref": {}, "asexualPref": {},
}

// Normalize never fails; malformed input produces defaults and, when identity or all
// core fields are missing, an invalid result the caller must skip.
func (n *Normalizer) Normalize(id string, raw map[string]interface{}) Result {
	doc := flatten(raw)
	var problems []string

	p := &Profile{}

	p.ID = strings.TrimSpace(id)
	if p.ID == "" {
		p.ID = firstString(doc, "uid", "id", "userId")
	}
	if p.ID == "" {
		problems = append(problems, "missing identity")
	}

	name := firstString(doc, "displayName", "name", "username")
	hasName := name != ""
	if !hasName {
		name = fallbackName(p.ID)
	}
	p.DisplayName = name

	p.BirthDate = firstString(doc, "birthDate", "birthdate")
	birth, hasBirth := parseDate(p.BirthDate)
	if hasBirth {
		p.Zodiac = zodiacSign(birth)
	}

	hasAge := present(doc, "age")
	switch {
	case hasAge:
		p.Age = toInt(doc["age"], DefaultAge)
	case hasBirth:
		p.Age = ageAt(birth, n.now())
		hasAge = true
	default:
		p.Age = DefaultAge
	}

	hasGender := present(doc, "gender")
	p.Gender = toString(doc["gender"], DefaultGender)

	hasIntent := present(doc, "lookingFor")
	p.LookingFor = parseIntent(doc["lookingFor"])

	p.SelfHeight = toInt(doc["selfHeight"], DefaultSelfHeight)
	p.Interests = toStringList(doc["interests"])
	p.Races = toStringList(doc["races"])
	p.Religions = toStringList(doc["religions"])
	p.Media = toStringList(doc["media"])
	p.Prompts = toPrompts(doc["profilePrompts"])
	p.Bio = toString(doc["bio"], "")

	p.IsTrans = toBool(doc["isTrans"])
	p.IsAsexual = toBool(doc["isAsexual"])
	p.Children = toString(doc["children"], DefaultChildren)
	p.Substances = toString(first(doc, "substances", "substanceUse"), DefaultSubstances)
	p.Politics = toString(first(doc, "politics", "politicalAlignment"), DefaultPolitics)

	p.Preferences = n.preferences(doc)

	p.Extra = extra(doc)

	valid := p.ID != "" && (hasName || hasAge || hasGender || hasIntent)
	if p.ID != "" && !valid {
		problems = append(problems, "missing displayName, age, gender and lookingFor")
	}

	return Result{Profile: p, Valid: valid, Problems: problems}
}

func (n *Normalizer) preferences(doc map[string]interface{}) Preferences {
	prefs := Preferences{
		AgeMin:      toInt(doc["ageMin"], DefaultAgeMin),
		AgeMax:      toInt(doc["ageMax"], DefaultAgeMax),
		HeightMin:   toInt(doc["heightMin"], DefaultHeightMin),
		HeightMax:   toInt(doc["heightMax"], DefaultHeightMax),
		DistanceMin: toFloatDefault(doc["distMin"], 0),
		DistanceMax: toFloatDefault(doc["distMax"], 0),
		GenderPref:  strings.ToLower(toString(doc["genderPref"], DefaultGenderPref)),

		HeightStrength:    parseStrength(doc["heightDealbreaker"]),
		RaceStrength:      parseStrength(first(doc, "racePrefStrength", "raceDealbreaker")),
		ChildrenStrength:  parseStrength(first(doc, "childrenPref", "childrenDealbreaker")),
		SubstanceStrength: parseStrength(first(doc, "substancePref", "substanceDealbreaker")),
		PoliticsStrength:  parseStrength(first(doc, "politicsPref", "politicalDealbreaker")),

		TransPref:   TraitIndifferent,
		AsexualPref: TraitIndifferent,
	}

	if present(doc, "transPref") {
		prefs.TransPref = parseTraitPref(doc["transPref"])
	}
	if present(doc, "asexualPref") {
		prefs.AsexualPref = parseTraitPref(doc["asexualPref"])
	}

	prefs.RacePrefs = toStringList(firstList(doc, "racePreferences", "racePref"))

	// religionPref is a strength scalar in legacy documents and a list in newer ones
	prefs.ReligionPrefs = toStringList(firstList(doc, "religionPreferences", "religionPref"))
	religionStrength := first(doc, "religionPrefStrength", "religionDealbreaker")
	if religionStrength == nil && !isList(doc["religionPref"]) {
		religionStrength = doc["religionPref"]
	}
	prefs.ReligionStrength = parseStrength(religionStrength)

	if present(doc, "hasRacePref") && !toBool(doc["hasRacePref"]) {
		prefs.RacePrefs = []string{}
	}
	if present(doc, "hasReligionPref") && !toBool(doc["hasReligionPref"]) {
		prefs.ReligionPrefs = []string{}
	}
	if present(doc, "hasHeightPref") && !toBool(doc["hasHeightPref"]) {
		prefs.HeightStrength = StrengthNone
	}

	return prefs
}

// MatchRelevantChanged reports whether any field that feeds gating, scoring or the
// queue snapshot differs between two versions of the same profile.
func MatchRelevantChanged(before, after *Profile) bool {
	if before == nil || after == nil {
		return before != after
	}
	b := before.Clone()
	a := after.Clone()
	b.Extra, a.Extra = nil, nil
	return !reflect.DeepEqual(b, a)
}

// flatten lifts nested blocks into one flat document. Later layers win: the "extra"
// block, then a legacy "profile" map, then a "preferences" map, then top-level fields.
func flatten(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	mergeLayers(out, raw)
	return out
}

func mergeLayers(out, doc map[string]interface{}) {
	if extra, ok := doc["extra"].(map[string]interface{}); ok {
		for k, v := range extra {
			out[k] = v
		}
	}
	if nested, ok := doc["profile"].(map[string]interface{}); ok {
		mergeLayers(out, nested)
	}
	if prefs, ok := doc["preferences"].(map[string]interface{}); ok {
		for k, v := range prefs {
			out[k] = v
		}
	}
	for k, v := range doc {
		switch k {
		case "extra", "profile", "preferences":
			if _, ok := v.(map[string]interface{}); ok {
				continue
			}
		}
		out[k] = v
	}
}

func extra(doc map[string]interface{}) map[string]interface{} {
	var out map[string]interface{}
	for k, v := range doc {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]interface{})
		}
		out[k] = v
	}
	return out
}

func present(doc map[string]interface{}, key string) bool {
	v, ok := doc[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func first(doc map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if present(doc, k) {
			return doc[k]
		}
	}
	return nil
}

func firstList(doc map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if isList(doc[k]) {
			return doc[k]
		}
	}
	return nil
}

func firstString(doc map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := toString(doc[k], ""); s != "" {
			return s
		}
	}
	return ""
}

func fallbackName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "User_" + id
}

func isList(v interface{}) bool {
	switch v.(type) {
	case []interface{}, []string:
		return true
	}
	return false
}

func toString(v interface{}, fallback string) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case float32:
		f = float64(val)
	case float64:
		f = val
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloatDefault(v interface{}, fallback float64) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	return fallback
}

// toInt treats values outside the 32-bit range as non-numeric
func toInt(v interface{}, fallback int) int {
	f, ok := toFloat(v)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return fallback
	}
	return int(f)
}

func toBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "true", "1":
			return true
		}
		return false
	case nil:
		return false
	default:
		if f, ok := toFloat(val); ok {
			return f != 0
		}
		return false
	}
}

func toStringList(v interface{}) []string {
	out := []string{}
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func toPrompts(v interface{}) []Prompt {
	out := []Prompt{}
	list, ok := v.([]interface{})
	if !ok {
		return out
	}
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		prompt := firstString(m, "prompt", "question")
		answer := toString(m["answer"], "")
		if prompt == "" && answer == "" {
			continue
		}
		out = append(out, Prompt{Prompt: prompt, Answer: answer})
	}
	return out
}

func parseIntent(v interface{}) Intent {
	switch strings.ToLower(toString(v, "")) {
	case "friendship", "friends":
		return IntentFriendship
	case "both":
		return IntentBoth
	default:
		return IntentDating
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// zodiac start dates (month, day) in calendar order
var zodiacTable = []struct {
	month time.Month
	day   int
	sign  string
}{
	{time.January, 20, "Aquarius"},
	{time.February, 19, "Pisces"},
	{time.March, 21, "Aries"},
	{time.April, 20, "Taurus"},
	{time.May, 21, "Gemini"},
	{time.June, 21, "Cancer"},
	{time.July, 23, "Leo"},
	{time.August, 23, "Virgo"},
	{time.September, 23, "Libra"},
	{time.October, 23, "Scorpio"},
	{time.November, 22, "Sagittarius"},
	{time.December, 22, "Capricorn"},
}

func zodiacSign(birth time.Time) string {
	sign := "Capricorn"
	for _, z := range zodiacTable {
		if birth.Month() > z.month || (birth.Month() == z.month && birth.Day() >= z.day) {
			sign = z.sign
		}
	}
	return sign
}
