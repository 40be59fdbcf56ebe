package dating

import (
	"context"
	"os"
	"sync"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imadgeboyega/datescape-backend/internal/common/database"
)

func exerciseRepository(t *testing.T, repo Repository) {
	ctx := context.Background()
	_, _ = repo.DeleteUserMatches(ctx, "repo-a")
	_, _ = repo.DeleteUserMatches(ctx, "repo-c")

	_, err := repo.GetMatch(ctx, "repo-a_repo-b")
	assert.ErrorIs(t, err, ErrMatchNotFound)
	_, err = repo.UpdateMatch(ctx, "repo-a_repo-b", func(cur *Match) (*Match, error) { return cur, nil })
	assert.ErrorIs(t, err, ErrMatchNotFound)

	ab := NewMatch(testProfile("repo-a"), testProfile("repo-b"), 40, testNow)
	ac := NewMatch(testProfile("repo-a"), testProfile("repo-c"), 90, testNow)
	require.NoError(t, repo.CreateMatch(ctx, ab))
	require.NoError(t, repo.CreateMatch(ctx, ac))
	assert.ErrorIs(t, repo.CreateMatch(ctx, ab), ErrMatchExists)

	got, err := repo.GetMatch(ctx, ab.ID)
	require.NoError(t, err)
	assert.Equal(t, "repo-a", got.UserA)
	assert.Equal(t, 40, got.MatchScore)
	assert.True(t, got.IsActiveA)

	updated, err := repo.UpdateMatch(ctx, ab.ID, func(cur *Match) (*Match, error) {
		_, err := cur.ApplyDecision("repo-b", true, testNow)
		return cur, err
	})
	require.NoError(t, err)
	assert.True(t, updated.LikedByB)

	_, err = repo.UpdateMatch(ctx, ab.ID, func(cur *Match) (*Match, error) {
		_, err := cur.ApplyDecision("repo-b", false, testNow)
		return cur, err
	})
	assert.ErrorIs(t, err, ErrDecisionClosed)

	unchanged, err := repo.UpdateMatch(ctx, ab.ID, func(cur *Match) (*Match, error) { return nil, nil })
	require.NoError(t, err)
	assert.True(t, unchanged.LikedByB)

	list, err := repo.ListUserMatches(ctx, "repo-a")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	list, err = repo.ListUserMatches(ctx, "repo-c")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ac.ID, list[0].ID)

	require.NoError(t, repo.DeleteMatch(ctx, ac.ID))
	_, err = repo.GetMatch(ctx, ac.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	n, err := repo.DeleteUserMatches(ctx, "repo-b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	list, err = repo.ListUserMatches(ctx, "repo-a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository(0))
}

func TestMemoryRepositoryRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(3)
	m := NewMatch(testProfile("a"), testProfile("b"), 50, testNow)
	require.NoError(t, repo.CreateMatch(ctx, m))

	calls := 0
	result, err := repo.UpdateMatch(ctx, m.ID, func(cur *Match) (*Match, error) {
		calls++
		if calls == 1 {
			// a competing writer lands between our read and write
			_, err := repo.UpdateMatch(ctx, m.ID, func(other *Match) (*Match, error) {
				_, err := other.ApplyDecision("b", true, testNow)
				return other, err
			})
			require.NoError(t, err)
		}
		_, err := cur.ApplyDecision("a", true, testNow)
		return cur, err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, result.Matched)
	assert.True(t, result.LikedByA)
	assert.True(t, result.LikedByB)
}

func TestMemoryRepositoryExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(2)
	m := NewMatch(testProfile("a"), testProfile("b"), 50, testNow)
	require.NoError(t, repo.CreateMatch(ctx, m))

	calls := 0
	_, err := repo.UpdateMatch(ctx, m.ID, func(cur *Match) (*Match, error) {
		calls++
		_, err := repo.UpdateMatch(ctx, m.ID, func(other *Match) (*Match, error) {
			other.MatchScore++
			return other, nil
		})
		require.NoError(t, err)
		cur.MatchScore = 0
		return cur, nil
	})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.Equal(t, 2, calls)

	got, err := repo.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 52, got.MatchScore)
}

func TestMemoryRepositoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(1000)
	m := NewMatch(testProfile("a"), testProfile("b"), 0, testNow)
	require.NoError(t, repo.CreateMatch(ctx, m))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateMatch(ctx, m.ID, func(cur *Match) (*Match, error) {
				cur.MatchScore++
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.MatchScore)
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.NewPostgresDBFromURL(ctx, url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db))

	exerciseRepository(t, NewPostgresRepository(db, 0))
}

func TestRedisRepository(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	exerciseRepository(t, NewRedisRepository(client, 0))
}

func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "datescape-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFirestoreRepository(t *testing.T) {
	exerciseRepository(t, NewFirestoreRepository(newEmulatorClient(t), 0))
}

func TestFirestoreRepositoryPreservesRecordShape(t *testing.T) {
	ctx := context.Background()
	repo := NewFirestoreRepository(newEmulatorClient(t), 0)
	_, _ = repo.DeleteUserMatches(ctx, "fs-a")

	a := testProfile("fs-a", withInterests("Art", "Hiking"))
	m := NewMatch(a, testProfile("fs-b"), 73, testNow)
	require.NoError(t, repo.CreateMatch(ctx, m))

	got, err := repo.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 73, got.MatchScore)
	assert.True(t, got.CreatedAt.Equal(m.CreatedAt))
	assert.Equal(t, []string{"Art", "Hiking"}, got.UserAProfile.Interests)
	assert.Equal(t, m.UserAProfile.Preferences, got.UserAProfile.Preferences)
	assert.Equal(t, m.UserBProfile.Age, got.UserBProfile.Age)

	_, err = repo.DeleteUserMatches(ctx, "fs-a")
	require.NoError(t, err)
}

func TestFirestoreRepositoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewFirestoreRepository(newEmulatorClient(t), 50)
	_, _ = repo.DeleteUserMatches(ctx, "fs-c")

	m := NewMatch(testProfile("fs-c"), testProfile("fs-d"), 0, testNow)
	require.NoError(t, repo.CreateMatch(ctx, m))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateMatch(ctx, m.ID, func(cur *Match) (*Match, error) {
				cur.MatchScore++
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.MatchScore)

	_, err = repo.DeleteUserMatches(ctx, "fs-c")
	require.NoError(t, err)
}
