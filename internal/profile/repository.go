// internal/profile/repository.go

package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Document is a raw stored user record. Data keeps whatever shape the writer used.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Repository stores raw user documents; normalization happens on read
type Repository interface {
	GetDocument(ctx context.Context, userID string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	SaveDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, userID string) error
}

// ---------------------------------------------------------------------------
// PostgreSQL

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository over the user_profiles table
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type documentRow struct {
	UserID   string `db:"user_id"`
	Document []byte `db:"document"`
}

func (r *postgresRepository) GetDocument(ctx context.Context, userID string) (*Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row, `SELECT user_id, document FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return row.decode()
}

func (r *postgresRepository) ListDocuments(ctx context.Context) ([]*Document, error) {
	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT user_id, document FROM user_profiles ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	docs := make([]*Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.decode()
		if err != nil {
			// an undecodable row is surfaced as an empty document so the normalizer marks it invalid
			doc = &Document{ID: row.UserID, Data: map[string]interface{}{}}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *postgresRepository) SaveDocument(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	query := `
		INSERT INTO user_profiles (user_id, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, doc.ID, data); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteDocument(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (row documentRow) decode() (*Document, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(row.Document, &data); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", row.UserID, err)
	}
	return &Document{ID: row.UserID, Data: data}, nil
}

// ---------------------------------------------------------------------------
// Redis

const (
	redisProfileKeyPrefix = "profile:"
	redisProfileIndexKey  = "profiles"
)

type redisRepository struct {
	client *redis.Client
}

// NewRedisRepository stores documents as JSON strings with a set of known ids
func NewRedisRepository(client *redis.Client) Repository {
	return &redisRepository{client: client}
}

func (r *redisRepository) GetDocument(ctx context.Context, userID string) (*Document, error) {
	raw, err := r.client.Get(ctx, redisProfileKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", userID, err)
	}
	return &Document{ID: userID, Data: data}, nil
}

func (r *redisRepository) ListDocuments(ctx context.Context) ([]*Document, error) {
	ids, err := r.client.SMembers(ctx, redisProfileIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(ids) == 0 {
		return []*Document{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisProfileKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	docs := make([]*Document, 0, len(ids))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		data := map[string]interface{}{}
		if err := json.Unmarshal([]byte(s), &data); err != nil {
			data = map[string]interface{}{}
		}
		docs = append(docs, &Document{ID: ids[i], Data: data})
	}
	return docs, nil
}

func (r *redisRepository) SaveDocument(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisProfileKeyPrefix+doc.ID, data, 0)
		pipe.SAdd(ctx, redisProfileIndexKey, doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *redisRepository) DeleteDocument(ctx context.Context, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisProfileKeyPrefix+userID)
		pipe.SRem(ctx, redisProfileIndexKey, userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Firestore

// UsersCollection is the collection holding user documents
const UsersCollection = "users"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository reads and writes the users collection
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) GetDocument(ctx context.Context, userID string) (*Document, error) {
	snap, err := r.client.Collection(UsersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (r *firestoreRepository) ListDocuments(ctx context.Context) ([]*Document, error) {
	iter := r.client.Collection(UsersCollection).Documents(ctx)
	defer iter.Stop()

	docs := []*Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		docs = append(docs, &Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (r *firestoreRepository) SaveDocument(ctx context.Context, doc *Document) error {
	if _, err := r.client.Collection(UsersCollection).Doc(doc.ID).Set(ctx, doc.Data); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *firestoreRepository) DeleteDocument(ctx context.Context, userID string) error {
	if _, err := r.client.Collection(UsersCollection).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory

type memoryRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryRepository keeps JSON-encoded documents in process memory
func NewMemoryRepository() Repository {
	return &memoryRepository{docs: make(map[string][]byte)}
}

func (r *memoryRepository) GetDocument(ctx context.Context, userID string) (*Document, error) {
	r.mu.RLock()
	raw, ok := r.docs[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProfileNotFound
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", userID, err)
	}
	return &Document{ID: userID, Data: data}, nil
}

func (r *memoryRepository) ListDocuments(ctx context.Context) ([]*Document, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, err := r.GetDocument(ctx, id)
		if errors.Is(err, ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *memoryRepository) SaveDocument(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	r.mu.Lock()
	r.docs[doc.ID] = raw
	r.mu.Unlock()
	return nil
}

func (r *memoryRepository) DeleteDocument(ctx context.Context, userID string) error {
	r.mu.Lock()
	delete(r.docs, userID)
	r.mu.Unlock()
	return nil
}
