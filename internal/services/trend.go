package services

import (
	"fmt"
	"math"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

// ValuePoint is one observation in a time-ordered value series.
type ValuePoint struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// ValueChange is a point-to-point change over a value series.
type ValueChange struct {
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	PeriodLabel   string  `json:"period_label"`
}

// ComputeChange compares the latest point of an oldest-first series against
// the first. It returns nil for series shorter than two points, and nil when
// the baseline value is zero: a zero baseline makes percentage change
// undefined, not infinite.
func ComputeChange(points []ValuePoint) *ValueChange {
	if len(points) < 2 {
		return nil
	}

	oldest := points[0]
	latest := points[len(points)-1]
	if oldest.Value == 0 {
		return nil
	}

	change := latest.Value - oldest.Value
	days := int(latest.At.Sub(oldest.At).Hours() / 24)

	return &ValueChange{
		Change:        roundTwo(change),
		PercentChange: roundTwo(change / oldest.Value * 100),
		PeriodLabel:   periodLabel(days),
	}
}

// periodLabel renders elapsed days as "N days" under 30 days, or whole
// months above; plural only once two full 30-day months have elapsed.
func periodLabel(days int) string {
	if days < 30 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	months := days / 30
	if months <= 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}

// baselineWindow is the slack around the 30-day-back target when picking a
// portfolio baseline snapshot.
const (
	baselineDaysBack = 30
	baselineWindow   = 5 * 24 * time.Hour
)

// BaselineSnapshot picks the snapshot nearest 30 days before now from a
// newest-first list, searching within a ±5 day window; if nothing falls in
// the window it falls back to the oldest snapshot available.
func BaselineSnapshot(snapshots []models.PortfolioSnapshot, now time.Time) *models.PortfolioSnapshot {
	if len(snapshots) == 0 {
		return nil
	}

	target := now.AddDate(0, 0, -baselineDaysBack)
	var best *models.PortfolioSnapshot
	bestDistance := baselineWindow + 1

	for i := range snapshots {
		distance := snapshots[i].SnapshotDate.Sub(target)
		if distance < 0 {
			distance = -distance
		}
		if distance <= baselineWindow && distance < bestDistance {
			best = &snapshots[i]
			bestDistance = distance
		}
	}

	if best != nil {
		return best
	}
	return &snapshots[len(snapshots)-1] // oldest
}

// PortfolioChange computes the 30-day portfolio trend from a newest-first
// snapshot list.
func PortfolioChange(snapshots []models.PortfolioSnapshot, now time.Time) *ValueChange {
	if len(snapshots) < 2 {
		return nil
	}

	latest := snapshots[0]
	baseline := BaselineSnapshot(snapshots, now)
	if baseline == nil || baseline.ID == latest.ID {
		return nil
	}

	return ComputeChange([]ValuePoint{
		{Value: baseline.TotalValue, At: baseline.SnapshotDate},
		{Value: latest.TotalValue, At: latest.SnapshotDate},
	})
}

// HistoryPoints converts a comic's oldest-first value history to a series
// for ComputeChange.
func HistoryPoints(history []models.ValueHistoryPoint) []ValuePoint {
	points := make([]ValuePoint, len(history))
	for i, h := range history {
		points[i] = ValuePoint{Value: h.Value, At: h.RecordedAt}
	}
	return points
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
