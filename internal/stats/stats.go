// Package stats holds the derived-view computations for dashboards: pure,
// single-pass reductions over incident snapshots.
package stats

import (
	"time"

	"github.com/asiste-ing/incident-service/internal/domain"
)

// DepartmentWithoutName buckets incidents whose departamento is null.
const DepartmentWithoutName = "sin_departamento"

// DepartmentCount is the per-departamento tally inside a sede.
type DepartmentCount struct {
	Count int `json:"count"`
}

// CityCount aggregates incidents for one sede.
type CityCount struct {
	Count         int                         `json:"count"`
	Departamentos map[string]*DepartmentCount `json:"departamentos"`
}

// GroupBySedeThenDepartamento reduces incidents into a two-level count keyed
// by sede then departamento. Input order does not affect the result.
func GroupBySedeThenDepartamento(incidents []domain.Incident) map[string]*CityCount {
	result := make(map[string]*CityCount)
	for i := range incidents {
		inc := &incidents[i]
		city := result[inc.Sede]
		if city == nil {
			city = &CityCount{Departamentos: make(map[string]*DepartmentCount)}
			result[inc.Sede] = city
		}
		city.Count++

		dept := DepartmentWithoutName
		if inc.Departamento != nil && *inc.Departamento != "" {
			dept = *inc.Departamento
		}
		deptCount := city.Departamentos[dept]
		if deptCount == nil {
			deptCount = &DepartmentCount{}
			city.Departamentos[dept] = deptCount
		}
		deptCount.Count++
	}
	return result
}

// StationStats is the per-workstation snapshot feeding the risk score.
type StationStats struct {
	StationCode      string     `json:"station_code"`
	Sede             string     `json:"sede"`
	TotalIncidents   int        `json:"total_incidents"`
	CriticalFailures int        `json:"critical_failures"`
	PendingIncidents int        `json:"pending_incidents"`
	LastIncidentAt   *time.Time `json:"last_incident_at,omitempty"`
}

// Risk buckets.
const (
	RiskAlto     = "Alto"
	RiskMedio    = "Medio"
	RiskBajo     = "Bajo"
	RiskSinDatos = "Sin datos"
)

// RiskScore ranks a workstation's failure severity and frequency on a
// capped 0..100 scale. Critical failures are pantalla and internet types.
func RiskScore(s StationStats, now time.Time) int {
	score := min(s.TotalIncidents*2, 40)
	score += min(s.CriticalFailures*5, 30)
	score += min(s.PendingIncidents*3, 20)
	score += recencyBonus(s.LastIncidentAt, now)
	return score
}

func recencyBonus(last *time.Time, now time.Time) int {
	if last == nil {
		return 0
	}
	age := now.Sub(*last)
	switch {
	case age < 7*24*time.Hour:
		return 10
	case age < 30*24*time.Hour:
		return 5
	default:
		return 0
	}
}

// RiskBucket labels a score.
func RiskBucket(score int) string {
	switch {
	case score >= 70:
		return RiskAlto
	case score >= 40:
		return RiskMedio
	case score > 0:
		return RiskBajo
	default:
		return RiskSinDatos
	}
}
