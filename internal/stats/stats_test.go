package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asiste-ing/incident-service/internal/domain"
)

func strptr(s string) *string { return &s }

func TestGroupBySedeThenDepartamento(t *testing.T) {
	incidents := []domain.Incident{
		{Sede: "bogota", Departamento: strptr("claro")},
		{Sede: "bogota", Departamento: strptr("claro")},
		{Sede: "bogota", Departamento: strptr("claro")},
		{Sede: "bogota", Departamento: strptr("obama")},
		{Sede: "barranquilla", Departamento: strptr("claro")},
		{Sede: "barranquilla", Departamento: strptr("claro")},
	}

	result := GroupBySedeThenDepartamento(incidents)

	require.Contains(t, result, "bogota")
	require.Contains(t, result, "barranquilla")
	assert.Equal(t, 4, result["bogota"].Count)
	assert.Equal(t, 3, result["bogota"].Departamentos["claro"].Count)
	assert.Equal(t, 1, result["bogota"].Departamentos["obama"].Count)
	assert.Equal(t, 2, result["barranquilla"].Count)
	assert.Equal(t, 2, result["barranquilla"].Departamentos["claro"].Count)
}

func TestGroupBucketsMissingDepartamento(t *testing.T) {
	incidents := []domain.Incident{
		{Sede: "villavicencio"},
		{Sede: "villavicencio", Departamento: strptr("")},
	}
	result := GroupBySedeThenDepartamento(incidents)
	assert.Equal(t, 2, result["villavicencio"].Departamentos[DepartmentWithoutName].Count)
}

func TestGroupEmptyInput(t *testing.T) {
	assert.Empty(t, GroupBySedeThenDepartamento(nil))
}

func TestRiskScore(t *testing.T) {
	now := time.Now()
	twoDaysAgo := now.Add(-2 * 24 * time.Hour)

	s := StationStats{
		TotalIncidents:   5,
		CriticalFailures: 2,
		PendingIncidents: 1,
		LastIncidentAt:   &twoDaysAgo,
	}
	score := RiskScore(s, now)
	assert.Equal(t, 33, score)
	assert.Equal(t, RiskBajo, RiskBucket(score))
}

func TestRiskScoreCaps(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Hour)

	s := StationStats{
		TotalIncidents:   100,
		CriticalFailures: 100,
		PendingIncidents: 100,
		LastIncidentAt:   &recent,
	}
	assert.Equal(t, 100, RiskScore(s, now))
}

func TestRecencyBonusBoundaries(t *testing.T) {
	now := time.Now()

	sixDays := now.Add(-6 * 24 * time.Hour)
	assert.Equal(t, 10, RiskScore(StationStats{LastIncidentAt: &sixDays}, now))

	tenDays := now.Add(-10 * 24 * time.Hour)
	assert.Equal(t, 5, RiskScore(StationStats{LastIncidentAt: &tenDays}, now))

	fortyDays := now.Add(-40 * 24 * time.Hour)
	assert.Equal(t, 0, RiskScore(StationStats{LastIncidentAt: &fortyDays}, now))

	assert.Equal(t, 0, RiskScore(StationStats{}, now))
}

func TestRiskBuckets(t *testing.T) {
	assert.Equal(t, RiskAlto, RiskBucket(70))
	assert.Equal(t, RiskAlto, RiskBucket(100))
	assert.Equal(t, RiskMedio, RiskBucket(40))
	assert.Equal(t, RiskMedio, RiskBucket(69))
	assert.Equal(t, RiskBajo, RiskBucket(1))
	assert.Equal(t, RiskBajo, RiskBucket(39))
	assert.Equal(t, RiskSinDatos, RiskBucket(0))
}
