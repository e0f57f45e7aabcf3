package pushtokens

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type entry struct {
	deviceInfo json.RawMessage
	updated    time.Time
}

type MemoryStore struct {
	mu     sync.Mutex
	tokens map[int64]map[string]entry
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[int64]map[string]entry), now: time.Now}
}

func (s *MemoryStore) Register(_ context.Context, userID int64, token string, deviceInfo json.RawMessage) error {
	if !ValidToken(token) {
		return ErrInvalidToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[userID] == nil {
		s.tokens[userID] = make(map[string]entry)
	}
	s.tokens[userID][token] = entry{deviceInfo: deviceInfo, updated: s.now()}
	return nil
}

func (s *MemoryStore) Unregister(_ context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens[userID], token)
	return nil
}

func (s *MemoryStore) Forget(_ context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, byToken := range s.tokens {
		for _, t := range tokens {
			delete(byToken, t)
		}
	}
	return nil
}

func (s *MemoryStore) TokensByUser(_ context.Context, userIDs []int64) (map[int64][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64][]string)
	for _, id := range userIDs {
		for t := range s.tokens[id] {
			out[id] = append(out[id], t)
		}
		sort.Strings(out[id])
	}
	return out, nil
}

func (s *MemoryStore) PruneStale(_ context.Context, olderThan time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan)
	for _, byToken := range s.tokens {
		for t, e := range byToken {
			if e.updated.Before(cutoff) {
				delete(byToken, t)
			}
		}
	}
	return nil
}
