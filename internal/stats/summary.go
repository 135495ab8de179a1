package stats

import (
	"covreport/internal/coverage"
)

// Summarize reduces each dataset to its ProjectStats and computes the
// cross-project summary. Pure function of its input; a missing or empty
// collection is a count of zero, never an error, and every percentage is
// zero-guarded.
func Summarize(datasets map[string]*coverage.CoverageData) ComparisonStats {
	stats := ComparisonStats{
		ProjectCount: len(datasets),
		Projects:     make(map[string]ProjectStats, len(datasets)),
	}

	for key, data := range datasets {
		ps := ProjectStats{
			OpportunityName:     data.OpportunityName,
			ProjectSpace:        data.ProjectSpace,
			DeliveryUnitsCount:  len(data.DeliveryUnits),
			ServicePointsCount:  len(data.ServicePoints),
			TotalFLWs:           len(data.FieldWorkers),
			TotalServiceAreas:   len(data.ServiceAreas),
			DUsPerDay:           data.AverageDUsPerDay(),
			VisitsPerDay:        data.AverageVisitsPerDay(),
			ActiveFLWsLast7Days: data.ActiveFLWsLast7Days(),
		}

		for _, du := range data.DeliveryUnits {
			if du.Status == coverage.StatusCompleted {
				ps.CompletedDUsCount++
			}
		}
		for _, sa := range data.ServiceAreas {
			if sa.IsStarted {
				ps.StartedSAsCount++
			}
			if sa.IsCompleted {
				ps.CompletedSAsCount++
			}
		}

		if ps.DeliveryUnitsCount > 0 {
			ps.CoveragePct = float64(ps.CompletedDUsCount) / float64(ps.DeliveryUnitsCount) * 100
		}
		if ps.TotalFLWs > 0 {
			ps.PctActiveFLWs = float64(ps.ActiveFLWsLast7Days) / float64(ps.TotalFLWs) * 100
		}

		stats.Projects[key] = ps
	}

	for _, ps := range stats.Projects {
		stats.Summary.TotalDeliveryUnits += ps.DeliveryUnitsCount
		stats.Summary.TotalServicePoints += ps.ServicePointsCount
		stats.Summary.TotalCompletedDUs += ps.CompletedDUsCount
		stats.Summary.TotalServiceAreas += ps.TotalServiceAreas
		stats.Summary.TotalStartedSAs += ps.StartedSAsCount
		stats.Summary.TotalCompletedSAs += ps.CompletedSAsCount
		stats.Summary.TotalFLWs += ps.TotalFLWs
		stats.Summary.AverageCoverage += ps.CoveragePct
	}

	// Unweighted mean over project count, not over total DUs. Small projects
	// weigh the same as large ones on purpose.
	if len(stats.Projects) > 0 {
		stats.Summary.AverageCoverage /= float64(len(stats.Projects))
	}

	return stats
}
