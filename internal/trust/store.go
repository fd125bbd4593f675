package trust

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrConflict means the merchant's version moved between load and commit.
	ErrConflict = errors.New("trust: concurrent update conflict")
	// ErrMerchantNotFound means the merchant was never registered.
	ErrMerchantNotFound = errors.New("trust: merchant not found")
)

// State is a merchant's score at a given version.
type State struct {
	MerchantID string
	Score      float64
	Version    int64
}

// Store persists trust state with optimistic concurrency. Commit must write
// the score and record the event id atomically, and only when the stored
// version still equals expectedVersion.
type Store interface {
	Register(ctx context.Context, merchantID string, baseScore float64) (bool, error)
	Load(ctx context.Context, merchantID string) (State, error)
	Applied(ctx context.Context, merchantID, eventID string) (bool, error)
	Commit(ctx context.Context, merchantID string, expectedVersion int64, score float64, eventID string) error
	Scores(ctx context.Context, merchantIDs []string) (map[string]float64, error)
}

type memoryEntry struct {
	mu      sync.Mutex
	score   float64
	version int64
	applied map[string]struct{}
}

// MemoryStore keeps trust state in process, one mutex per merchant.
type MemoryStore struct {
	mu        sync.RWMutex
	merchants map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{merchants: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) entry(merchantID string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.merchants[merchantID]
	return e, ok
}

func (s *MemoryStore) Register(_ context.Context, merchantID string, baseScore float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.merchants[merchantID]; exists {
		return false, nil
	}
	s.merchants[merchantID] = &memoryEntry{score: baseScore, applied: make(map[string]struct{})}
	return true, nil
}

func (s *MemoryStore) Load(_ context.Context, merchantID string) (State, error) {
	e, ok := s.entry(merchantID)
	if !ok {
		return State{}, ErrMerchantNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{MerchantID: merchantID, Score: e.score, Version: e.version}, nil
}

func (s *MemoryStore) Applied(_ context.Context, merchantID, eventID string) (bool, error) {
	e, ok := s.entry(merchantID)
	if !ok {
		return false, ErrMerchantNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, applied := e.applied[eventID]
	return applied, nil
}

func (s *MemoryStore) Commit(_ context.Context, merchantID string, expectedVersion int64, score float64, eventID string) error {
	e, ok := s.entry(merchantID)
	if !ok {
		return ErrMerchantNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.version != expectedVersion {
		return ErrConflict
	}
	if _, applied := e.applied[eventID]; applied {
		return ErrConflict
	}
	e.score = score
	e.version++
	e.applied[eventID] = struct{}{}
	return nil
}

func (s *MemoryStore) Scores(_ context.Context, merchantIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(merchantIDs))
	for _, id := range merchantIDs {
		e, ok := s.entry(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		out[id] = e.score
		e.mu.Unlock()
	}
	return out, nil
}
