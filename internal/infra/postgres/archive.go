package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-arena/internal/domain"
)

// GameArchive persists finished-game results as JSONB. Writes happen off the
// orchestrator's hot path and are best-effort.
type GameArchive struct {
	pool *pgxpool.Pool
}

func NewGameArchive(pool *pgxpool.Pool) *GameArchive {
	return &GameArchive{pool: pool}
}

func (a *GameArchive) SaveResult(ctx context.Context, result domain.GameResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal game result: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO game_results (room_id, topic, finished_at, data) VALUES ($1, $2, $3, $4)`,
		result.RoomID, result.Topic, result.FinishedAt, data)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// RecentResults loads the latest archived games, newest first.
func (a *GameArchive) RecentResults(ctx context.Context, limit int) ([]domain.GameResult, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT data FROM game_results ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query game results: %w", err)
	}
	defer rows.Close()

	var results []domain.GameResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		var result domain.GameResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal game result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
