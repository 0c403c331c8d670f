package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asiste-ing/incident-service/internal/domain"
)

// ErrStatusConflict signals that a transition lost the race: the incident's
// status no longer matches what the caller loaded.
var ErrStatusConflict = errors.New("incident status conflict")

// IncidentFilter captures listing parameters.
type IncidentFilter struct {
	Statuses     []domain.IncidentStatus
	Sede         *string
	Departamento *string
	StationCode  *string
	ReportedBy   *string
	AssignedTo   *string
	CreatorRole  *domain.Role
	// SupervisionBefore keeps incidents whose supervision clock
	// (COALESCE(resolved_at, updated_at)) started at or before the instant.
	SupervisionBefore *time.Time
	// ResolvedSince keeps incidents whose supervision clock started at or
	// after the instant (the "hoy" bucket).
	ResolvedSince *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident, entry *domain.HistoryEntry) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	ListWithFilter(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
	// ListSnapshot returns every incident, for dashboard reductions.
	ListSnapshot(ctx context.Context) ([]domain.Incident, error)
	// ApplyTransition persists the already-validated incident atomically with
	// its history entry, guarded by a compare-and-swap on the status the
	// caller loaded. Returns ErrStatusConflict when the guard fails.
	ApplyTransition(ctx context.Context, incident *domain.Incident, expected domain.IncidentStatus, entry *domain.HistoryEntry) error
	RankTechnicians(ctx context.Context) ([]TechnicianRanking, error)
}

// TechnicianRanking is one row of the technician leaderboard.
type TechnicianRanking struct {
	TechnicianID  string
	Name          string
	ApprovedCount int
	AverageRating *float64
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates the repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentColumns = `id, station_code, sede, departamento, failure_type, description, status,
               reported_by, assigned_to, technician_rating, rating_feedback,
               created_at, updated_at, resolved_at`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident, entry *domain.HistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO incidents (station_code, sede, departamento, failure_type, description, status, reported_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		incident.StationCode,
		incident.Sede,
		incident.Departamento,
		incident.FailureType,
		incident.Description,
		incident.Status,
		incident.ReportedBy,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt); err != nil {
		return err
	}

	entry.IncidentID = incident.ID
	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id=$1`, incidentColumns)
	var incident domain.Incident
	if err := scanIncident(r.pool.QueryRow(ctx, query, id), &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) ApplyTransition(ctx context.Context, incident *domain.Incident, expected domain.IncidentStatus, entry *domain.HistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE incidents SET status=$1, assigned_to=$2, technician_rating=$3, rating_feedback=$4,
            resolved_at=$5, updated_at=NOW()
        WHERE id=$6 AND status=$7
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, query,
		incident.Status,
		incident.AssignedTo,
		incident.TechnicianRating,
		incident.RatingFeedback,
		incident.ResolvedAt,
		incident.ID,
		expected,
	).Scan(&incident.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusConflict
		}
		return err
	}

	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *incidentRepository) ListWithFilter(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	base := fmt.Sprintf(`SELECT %s FROM incidents i`, prefixColumns("i"))
	clauses := []string{"1=1"}
	args := []any{}
	joinUsers := false

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("i.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Sede != nil {
		args = append(args, *filter.Sede)
		clauses = append(clauses, fmt.Sprintf("i.sede=$%d", len(args)))
	}
	if filter.Departamento != nil {
		args = append(args, *filter.Departamento)
		clauses = append(clauses, fmt.Sprintf("i.departamento=$%d", len(args)))
	}
	if filter.StationCode != nil {
		args = append(args, *filter.StationCode)
		clauses = append(clauses, fmt.Sprintf("i.station_code=$%d", len(args)))
	}
	if filter.ReportedBy != nil {
		args = append(args, *filter.ReportedBy)
		clauses = append(clauses, fmt.Sprintf("i.reported_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("i.assigned_to=$%d", len(args)))
	}
	if filter.CreatorRole != nil {
		joinUsers = true
		args = append(args, *filter.CreatorRole)
		clauses = append(clauses, fmt.Sprintf("u.role=$%d", len(args)))
	}
	if filter.SupervisionBefore != nil {
		args = append(args, *filter.SupervisionBefore)
		clauses = append(clauses, fmt.Sprintf("COALESCE(i.resolved_at, i.updated_at) <= $%d", len(args)))
	}
	if filter.ResolvedSince != nil {
		args = append(args, *filter.ResolvedSince)
		clauses = append(clauses, fmt.Sprintf("COALESCE(i.resolved_at, i.updated_at) >= $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("i.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("i.created_at <= $%d", len(args)))
	}

	if joinUsers {
		base += " JOIN users u ON u.id = i.reported_by"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY i.updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func (r *incidentRepository) ListSnapshot(ctx context.Context) ([]domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents ORDER BY created_at ASC`, incidentColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func (r *incidentRepository) RankTechnicians(ctx context.Context) ([]TechnicianRanking, error) {
	const query = `
        SELECT u.id, u.name,
               COUNT(i.id) FILTER (WHERE i.status = 'aprobado') AS approved_count,
               AVG(i.technician_rating) FILTER (WHERE i.technician_rating IS NOT NULL) AS average_rating
        FROM users u
        LEFT JOIN incidents i ON i.assigned_to = u.id
        WHERE u.role = 'technician' AND u.active
        GROUP BY u.id, u.name
        ORDER BY approved_count DESC, average_rating DESC NULLS LAST, u.name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TechnicianRanking
	for rows.Next() {
		var ranking TechnicianRanking
		if err := rows.Scan(&ranking.TechnicianID, &ranking.Name, &ranking.ApprovedCount, &ranking.AverageRating); err != nil {
			return nil, err
		}
		result = append(result, ranking)
	}
	return result, rows.Err()
}

func insertHistory(ctx context.Context, tx pgx.Tx, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO incident_history (incident_id, action, user_id, details, rating, rating_feedback)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.IncidentID,
		entry.Action,
		entry.UserID,
		entry.Details,
		entry.Rating,
		entry.RatingFeedback,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func prefixColumns(alias string) string {
	cols := strings.Split(incidentColumns, ",")
	for i := range cols {
		cols[i] = alias + "." + strings.TrimSpace(cols[i])
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner, incident *domain.Incident) error {
	return row.Scan(
		&incident.ID,
		&incident.StationCode,
		&incident.Sede,
		&incident.Departamento,
		&incident.FailureType,
		&incident.Description,
		&incident.Status,
		&incident.ReportedBy,
		&incident.AssignedTo,
		&incident.TechnicianRating,
		&incident.RatingFeedback,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ResolvedAt,
	)
}

func scanIncidents(rows pgx.Rows) ([]domain.Incident, error) {
	var result []domain.Incident
	for rows.Next() {
		var incident domain.Incident
		if err := scanIncident(rows, &incident); err != nil {
			return nil, err
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}
