package dating

import (
	"context"
	"sort"
	"sync"
)

type memoryEntry struct {
	data    []byte
	version uint64
}

type memoryRepository struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	maxAttempts int
}

// NewMemoryRepository keeps records in process memory. Updates are optimistic:
// the record is read, fn runs unlocked, and the write only lands if the version is unchanged.
func NewMemoryRepository(maxAttempts int) Repository {
	return &memoryRepository{entries: make(map[string]memoryEntry), maxAttempts: attemptsOrDefault(maxAttempts)}
}

func (r *memoryRepository) GetMatch(ctx context.Context, id string) (*Match, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrMatchNotFound
	}
	return decodeMatch(entry.data)
}

func (r *memoryRepository) CreateMatch(ctx context.Context, match *Match) error {
	data, err := encodeMatch(match)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[match.ID]; ok {
		return ErrMatchExists
	}
	r.entries[match.ID] = memoryEntry{data: data, version: 1}
	return nil
}

func (r *memoryRepository) UpdateMatch(ctx context.Context, id string, fn UpdateFunc) (*Match, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.mu.Lock()
		entry, ok := r.entries[id]
		r.mu.Unlock()
		if !ok {
			return nil, ErrMatchNotFound
		}
		cur, err := decodeMatch(entry.data)
		if err != nil {
			return nil, err
		}

		next, err := fn(cur.Clone())
		if err != nil {
			return nil, err
		}
		if next == nil {
			return cur, nil
		}
		data, err := encodeMatch(next)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		latest, ok := r.entries[id]
		if !ok {
			r.mu.Unlock()
			return nil, ErrMatchNotFound
		}
		if latest.version != entry.version {
			r.mu.Unlock()
			RecordTxConflict("memory")
			continue
		}
		r.entries[id] = memoryEntry{data: data, version: entry.version + 1}
		r.mu.Unlock()
		return next, nil
	}
	return nil, ErrConcurrentUpdate
}

func (r *memoryRepository) ListUserMatches(ctx context.Context, userID string) ([]*Match, error) {
	r.mu.Lock()
	raws := make([][]byte, 0)
	for _, entry := range r.entries {
		raws = append(raws, entry.data)
	}
	r.mu.Unlock()

	matches := []*Match{}
	for _, raw := range raws {
		m, err := decodeMatch(raw)
		if err != nil {
			return nil, err
		}
		if m.UserA == userID || m.UserB == userID {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (r *memoryRepository) DeleteMatch(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepository) DeleteUserMatches(ctx context.Context, userID string) (int, error) {
	matches, err := r.ListUserMatches(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if err := r.DeleteMatch(ctx, m.ID); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}
