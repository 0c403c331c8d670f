package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/asiste-ing/incident-service/internal/repository"
	"github.com/asiste-ing/incident-service/internal/stats"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

const (
	cacheKeyCities  = "dashboard:cities"
	cacheKeyRanking = "dashboard:ranking"
	cacheKeyStation = "dashboard:station:"
)

// DashboardService serves the derived views: city/department breakdown,
// workstation risk and the technician leaderboard. Results are cached in
// Redis with a short TTL; the views are advisory, not transactional.
type DashboardService struct {
	incidents repository.IncidentRepository
	stations  repository.StationRepository
	cache     *redis.Client
	ttl       time.Duration
	logger    *zap.Logger
}

// NewDashboardService constructs the service. cache may be nil, in which
// case every read recomputes.
func NewDashboardService(incidents repository.IncidentRepository, stations repository.StationRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		incidents: incidents,
		stations:  stations,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
	}
}

// StationRisk is the scored view of one workstation.
type StationRisk struct {
	Stats  stats.StationStats `json:"stats"`
	Score  int                `json:"score"`
	Bucket string             `json:"bucket"`
}

// CityBreakdown returns incident counts grouped by sede then departamento.
func (s *DashboardService) CityBreakdown(ctx context.Context) (map[string]*stats.CityCount, error) {
	var cached map[string]*stats.CityCount
	if s.fromCache(ctx, cacheKeyCities, &cached) {
		return cached, nil
	}

	incidents, err := s.incidents.ListSnapshot(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := stats.GroupBySedeThenDepartamento(incidents)
	s.toCache(ctx, cacheKeyCities, result)
	return result, nil
}

// GetStationRisk scores one workstation. Unknown stations score zero
// ("Sin datos") rather than erroring.
func (s *DashboardService) GetStationRisk(ctx context.Context, stationCode string) (*StationRisk, error) {
	key := cacheKeyStation + stationCode
	var cached StationRisk
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	stationStats, err := s.stations.GetStats(ctx, stationCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			stationStats = &stats.StationStats{StationCode: stationCode}
		} else {
			return nil, apperrors.MapError(err)
		}
	}

	score := stats.RiskScore(*stationStats, time.Now())
	risk := &StationRisk{
		Stats:  *stationStats,
		Score:  score,
		Bucket: stats.RiskBucket(score),
	}
	s.toCache(ctx, key, risk)
	return risk, nil
}

// ListStationRisks scores every known workstation, highest risk first.
func (s *DashboardService) ListStationRisks(ctx context.Context) ([]StationRisk, error) {
	allStats, err := s.stations.ListStats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := time.Now()
	result := make([]StationRisk, 0, len(allStats))
	for _, st := range allStats {
		score := stats.RiskScore(st, now)
		result = append(result, StationRisk{Stats: st, Score: score, Bucket: stats.RiskBucket(score)})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Stats.StationCode < result[j].Stats.StationCode
	})
	return result, nil
}

// TechnicianRanking returns the approved-resolution leaderboard.
func (s *DashboardService) TechnicianRanking(ctx context.Context) ([]repository.TechnicianRanking, error) {
	var cached []repository.TechnicianRanking
	if s.fromCache(ctx, cacheKeyRanking, &cached) {
		return cached, nil
	}

	ranking, err := s.incidents.RankTechnicians(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.toCache(ctx, cacheKeyRanking, ranking)
	return ranking, nil
}

func (s *DashboardService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("dashboard cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *DashboardService) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
