package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asiste-ing/incident-service/internal/domain"
)

// HistoryRepository reads the append-only incident ledger. Writes happen in
// the same transaction as the status change, inside IncidentRepository.
type HistoryRepository interface {
	ListByIncident(ctx context.Context, incidentID string) ([]domain.HistoryEntry, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds the repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

// ListByIncident returns entries oldest first; display layers reverse as
// needed.
func (r *historyRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, incident_id, action, user_id, details, rating, rating_feedback, created_at
        FROM incident_history WHERE incident_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.IncidentID,
			&entry.Action,
			&entry.UserID,
			&entry.Details,
			&entry.Rating,
			&entry.RatingFeedback,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
