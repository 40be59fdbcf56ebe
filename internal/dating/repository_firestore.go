package dating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MatchesCollection is the collection holding match documents
const MatchesCollection = "matches"

type firestoreRepository struct {
	client      *firestore.Client
	maxAttempts int
}

// NewFirestoreRepository stores records in the matches collection and updates
// them inside Firestore transactions
func NewFirestoreRepository(client *firestore.Client, maxAttempts int) Repository {
	return &firestoreRepository{client: client, maxAttempts: attemptsOrDefault(maxAttempts)}
}

func (r *firestoreRepository) ref(id string) *firestore.DocumentRef {
	return r.client.Collection(MatchesCollection).Doc(id)
}

func (r *firestoreRepository) GetMatch(ctx context.Context, id string) (*Match, error) {
	snap, err := r.ref(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(err)
	}
	return matchFromDocument(snap.Data())
}

func (r *firestoreRepository) CreateMatch(ctx context.Context, match *Match) error {
	data, err := matchToDocument(match)
	if err != nil {
		return err
	}
	if _, err := r.ref(match.ID).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrMatchExists
		}
		return storeError(err)
	}
	return nil
}

func (r *firestoreRepository) UpdateMatch(ctx context.Context, id string, fn UpdateFunc) (*Match, error) {
	ref := r.ref(id)
	var result *Match
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result = nil
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrMatchNotFound
			}
			return err
		}
		cur, err := matchFromDocument(snap.Data())
		if err != nil {
			return err
		}

		next, err := fn(cur.Clone())
		if err != nil {
			return err
		}
		if next == nil {
			result = cur
			return nil
		}

		data, err := matchToDocument(next)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, data); err != nil {
			return err
		}
		result = next
		return nil
	}, firestore.MaxAttempts(r.maxAttempts))

	switch {
	case err == nil:
		return result, nil
	case isDomainError(err):
		return nil, err
	case status.Code(err) == codes.Aborted:
		RecordTxConflict("firestore")
		return nil, ErrConcurrentUpdate
	default:
		return nil, storeError(err)
	}
}

func (r *firestoreRepository) ListUserMatches(ctx context.Context, userID string) ([]*Match, error) {
	seen := map[string]*Match{}
	for _, field := range []string{"userA", "userB"} {
		iter := r.client.Collection(MatchesCollection).Where(field, "==", userID).Documents(ctx)
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, storeError(err)
			}
			m, err := matchFromDocument(snap.Data())
			if err != nil {
				iter.Stop()
				return nil, err
			}
			seen[m.ID] = m
		}
		iter.Stop()
	}

	matches := make([]*Match, 0, len(seen))
	for _, m := range seen {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (r *firestoreRepository) DeleteMatch(ctx context.Context, id string) error {
	if _, err := r.ref(id).Delete(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

func (r *firestoreRepository) DeleteUserMatches(ctx context.Context, userID string) (int, error) {
	matches, err := r.ListUserMatches(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, m := range matches {
		if err := r.DeleteMatch(ctx, m.ID); err != nil {
			return i, err
		}
	}
	return len(matches), nil
}

// matchToDocument converts a record into the map shape Firestore stores
func matchToDocument(m *Match) (map[string]interface{}, error) {
	data, err := encodeMatch(m)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("convert match %s: %w", m.ID, err)
	}
	return doc, nil
}

func matchFromDocument(doc map[string]interface{}) (*Match, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert match document: %w", err)
	}
	return decodeMatch(data)
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrNotParticipant) ||
		errors.Is(err, ErrDecisionClosed) ||
		errors.Is(err, ErrNotMatched)
}
