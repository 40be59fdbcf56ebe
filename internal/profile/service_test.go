package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatchSync struct {
	regenerated []string
	deleted     []string
	err         error
}

func (f *fakeMatchSync) RegenerateFor(ctx context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.regenerated = append(f.regenerated, userID)
	return nil
}

func (f *fakeMatchSync) DeleteUserMatches(ctx context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

func TestSaveProfileRegeneratesOnlyOnRelevantChange(t *testing.T) {
	ctx := context.Background()
	sync := &fakeMatchSync{}
	svc := NewService(NewMemoryRepository(), sync, nil, nil)

	res, err := svc.SaveProfile(ctx, "u1", map[string]interface{}{
		"displayName": "Ana",
		"gender":      "Woman",
		"age":         float64(29),
	})
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.Equal(t, "Ana", res.Profile.DisplayName)

	res, err = svc.SaveProfile(ctx, "u1", map[string]interface{}{"age": float64(29)})
	require.NoError(t, err)
	assert.False(t, res.Regenerated)

	res, err = svc.SaveProfile(ctx, "u1", map[string]interface{}{"theme": "dark"})
	require.NoError(t, err)
	assert.False(t, res.Regenerated)
	assert.Equal(t, "dark", res.Profile.Extra["theme"])

	res, err = svc.SaveProfile(ctx, "u1", map[string]interface{}{
		"profile": map[string]interface{}{"bio": "new bio"},
	})
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.Equal(t, "new bio", res.Profile.Bio)

	assert.Equal(t, []string{"u1", "u1"}, sync.regenerated)

	got, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new bio", got.Bio)
	assert.Equal(t, 29, got.Age)
}

func TestSaveProfileErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil, nil, nil)

	_, err := svc.SaveProfile(ctx, "u1", nil)
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = svc.SaveProfile(ctx, "u1", map[string]interface{}{"theme": "dark"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = svc.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSaveProfileSurvivesRegenerationFailure(t *testing.T) {
	sync := &fakeMatchSync{err: errors.New("store down")}
	svc := NewService(NewMemoryRepository(), sync, nil, nil)

	res, err := svc.SaveProfile(context.Background(), "u1", map[string]interface{}{"gender": "Man"})
	require.NoError(t, err)
	assert.False(t, res.Regenerated)
}

func TestDeleteProfileCascades(t *testing.T) {
	ctx := context.Background()
	sync := &fakeMatchSync{}
	svc := NewService(NewMemoryRepository(), sync, nil, nil)

	_, err := svc.SaveProfile(ctx, "u1", map[string]interface{}{"gender": "Man"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProfile(ctx, "u1"))
	assert.Equal(t, []string{"u1"}, sync.deleted)

	_, err = svc.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	assert.ErrorIs(t, svc.DeleteProfile(ctx, "u1"), ErrProfileNotFound)
}

func TestSaveProfileAcceptsServedProfile(t *testing.T) {
	ctx := context.Background()
	sync := &fakeMatchSync{}
	svc := NewService(NewMemoryRepository(), sync, nil, nil)

	_, err := svc.SaveProfile(ctx, "u1", map[string]interface{}{
		"displayName":     "Ana",
		"gender":          "Woman",
		"age":             float64(29),
		"ageMin":          float64(25),
		"raceDealbreaker": "dealbreaker",
		"racePreferences": []interface{}{"Asian"},
		"transPref":       "never",
	})
	require.NoError(t, err)

	served, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	data, err := json.Marshal(served)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))

	res, err := svc.SaveProfile(ctx, "u1", body)
	require.NoError(t, err)
	assert.False(t, res.Regenerated)
	assert.Equal(t, served, res.Profile)
	assert.Equal(t, StrengthDealbreaker, res.Profile.Preferences.RaceStrength)
	assert.Equal(t, TraitNever, res.Profile.Preferences.TransPref)
	assert.Equal(t, 25, res.Profile.Preferences.AgeMin)
	assert.Equal(t, []string{"u1"}, sync.regenerated)
}
