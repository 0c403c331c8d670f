package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asiste-ing/incident-service/internal/stats"
)

// StationRepository derives per-workstation incident statistics.
type StationRepository interface {
	GetStats(ctx context.Context, stationCode string) (*stats.StationStats, error)
	ListStats(ctx context.Context) ([]stats.StationStats, error)
}

type stationRepository struct {
	pool *pgxpool.Pool
}

// NewStationRepository instantiates the repository.
func NewStationRepository(pool *pgxpool.Pool) StationRepository {
	return &stationRepository{pool: pool}
}

const stationStatsQuery = `
        SELECT station_code,
               MAX(sede) AS sede,
               COUNT(*) AS total_incidents,
               COUNT(*) FILTER (WHERE failure_type IN ('pantalla','internet')) AS critical_failures,
               COUNT(*) FILTER (WHERE status = 'pendiente') AS pending_incidents,
               MAX(created_at) AS last_incident_at
        FROM incidents`

func (r *stationRepository) GetStats(ctx context.Context, stationCode string) (*stats.StationStats, error) {
	query := stationStatsQuery + ` WHERE station_code=$1 GROUP BY station_code`
	var s stats.StationStats
	if err := scanStationStats(r.pool.QueryRow(ctx, query, stationCode), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stationRepository) ListStats(ctx context.Context) ([]stats.StationStats, error) {
	query := stationStatsQuery + ` GROUP BY station_code ORDER BY station_code ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []stats.StationStats
	for rows.Next() {
		var s stats.StationStats
		if err := scanStationStats(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanStationStats(row rowScanner, s *stats.StationStats) error {
	return row.Scan(
		&s.StationCode,
		&s.Sede,
		&s.TotalIncidents,
		&s.CriticalFailures,
		&s.PendingIncidents,
		&s.LastIncidentAt,
	)
}
