package memory

import (
	"context"
	"sync"

	"trivia-game-service/internal/domain"
)

// RecordStore keeps game records in memory. The first record for a session
// wins; repeated saves for the same session are ignored, keeping End
// idempotent across retries.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.GameRecord
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]*domain.GameRecord),
	}
}

func (s *RecordStore) SaveRecord(_ context.Context, record *domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.SessionID]; exists {
		return nil
	}
	s.records[record.SessionID] = record
	return nil
}

func (s *RecordStore) GetRecord(_ context.Context, sessionID string) (*domain.GameRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[sessionID]
	return record, ok
}
