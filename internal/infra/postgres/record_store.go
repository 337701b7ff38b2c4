package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-game-service/internal/domain"
)

// RecordStore persists game records. One row per session; the insert is a
// no-op when a record already exists, so End stays idempotent even when
// retried against the database.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) SaveRecord(ctx context.Context, record *domain.GameRecord) error {
	leaderboard, err := json.Marshal(record.FinalLeaderboard)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	stats, err := json.Marshal(record.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO game_records (session_id, quiz_id, winner_player_id, total_players, duration_seconds, final_leaderboard, statistics, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
ON CONFLICT (session_id) DO NOTHING`,
		record.SessionID, record.QuizID, record.WinnerPlayerID, record.TotalPlayers,
		record.DurationSeconds, leaderboard, stats, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert game record: %w", err)
	}
	return nil
}

// GetRecord loads a session's record, if it exists.
func (s *RecordStore) GetRecord(ctx context.Context, sessionID string) (*domain.GameRecord, error) {
	record := &domain.GameRecord{SessionID: sessionID}
	var winner *string
	var leaderboard, stats []byte

	err := s.pool.QueryRow(ctx, `
SELECT quiz_id, winner_player_id, total_players, duration_seconds, final_leaderboard, statistics, created_at
FROM game_records WHERE session_id=$1`, sessionID).
		Scan(&record.QuizID, &winner, &record.TotalPlayers, &record.DurationSeconds, &leaderboard, &stats, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game record: %w", err)
	}

	if winner != nil {
		record.WinnerPlayerID = *winner
	}
	if err := json.Unmarshal(leaderboard, &record.FinalLeaderboard); err != nil {
		return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
	}
	if err := json.Unmarshal(stats, &record.Statistics); err != nil {
		return nil, fmt.Errorf("unmarshal statistics: %w", err)
	}
	return record, nil
}
