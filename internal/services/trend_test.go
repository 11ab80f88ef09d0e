package services

import (
	"testing"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestComputeChange(t *testing.T) {
	change := ComputeChange([]ValuePoint{
		{Value: 100, At: day(0)},
		{Value: 150, At: day(10)},
	})
	if change == nil {
		t.Fatal("expected a change")
	}
	if change.Change != 50 {
		t.Errorf("change = %v, want 50", change.Change)
	}
	if change.PercentChange != 50.00 {
		t.Errorf("percent = %v, want 50.00", change.PercentChange)
	}
	if change.PeriodLabel != "10 days" {
		t.Errorf("period = %q, want %q", change.PeriodLabel, "10 days")
	}
}

func TestComputeChangeEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		points []ValuePoint
	}{
		{"single point", []ValuePoint{{Value: 100, At: day(0)}}},
		{"empty series", nil},
		{"zero baseline", []ValuePoint{{Value: 0, At: day(0)}, {Value: 50, At: day(5)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeChange(tt.points); got != nil {
				t.Errorf("expected nil, got %+v", got)
			}
		})
	}
}

func TestComputeChangeFlat(t *testing.T) {
	change := ComputeChange([]ValuePoint{
		{Value: 100, At: day(0)},
		{Value: 100, At: day(7)},
	})
	if change == nil {
		t.Fatal("expected a change")
	}
	if change.PercentChange != 0 {
		t.Errorf("percent = %v, want 0", change.PercentChange)
	}
}

func TestComputeChangeRounding(t *testing.T) {
	change := ComputeChange([]ValuePoint{
		{Value: 3, At: day(0)},
		{Value: 4, At: day(3)},
	})
	if change == nil {
		t.Fatal("expected a change")
	}
	if change.PercentChange != 33.33 {
		t.Errorf("percent = %v, want 33.33", change.PercentChange)
	}
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{1, "1 day"},
		{10, "10 days"},
		{29, "29 days"},
		{30, "1 month"},
		{45, "1 month"},
		{59, "1 month"},
		{60, "2 months"},
		{95, "3 months"},
		{365, "12 months"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := periodLabel(tt.days); got != tt.want {
				t.Errorf("periodLabel(%d) = %q, want %q", tt.days, got, tt.want)
			}
		})
	}
}

func TestBaselineSnapshot(t *testing.T) {
	now := day(100)

	// Newest-first snapshots with one 31 days back (inside ±5 day window)
	snapshots := []models.PortfolioSnapshot{
		{ID: 3, SnapshotDate: day(99), TotalValue: 1000},
		{ID: 2, SnapshotDate: day(69), TotalValue: 800}, // 31 days back
		{ID: 1, SnapshotDate: day(10), TotalValue: 500},
	}

	baseline := BaselineSnapshot(snapshots, now)
	if baseline == nil || baseline.ID != 2 {
		t.Fatalf("expected snapshot 2 as baseline, got %+v", baseline)
	}
}

func TestBaselineSnapshotFallsBackToOldest(t *testing.T) {
	now := day(100)

	// Nothing within ±5 days of the 30-day target
	snapshots := []models.PortfolioSnapshot{
		{ID: 2, SnapshotDate: day(99), TotalValue: 1000},
		{ID: 1, SnapshotDate: day(50), TotalValue: 700},
	}

	baseline := BaselineSnapshot(snapshots, now)
	if baseline == nil || baseline.ID != 1 {
		t.Fatalf("expected fallback to oldest snapshot, got %+v", baseline)
	}

	if got := BaselineSnapshot(nil, now); got != nil {
		t.Errorf("empty snapshot list should yield nil, got %+v", got)
	}
}

func TestPortfolioChange(t *testing.T) {
	now := day(100)
	snapshots := []models.PortfolioSnapshot{
		{ID: 3, SnapshotDate: day(100), TotalValue: 1200},
		{ID: 2, SnapshotDate: day(70), TotalValue: 1000}, // 30 days back
		{ID: 1, SnapshotDate: day(1), TotalValue: 400},
	}

	change := PortfolioChange(snapshots, now)
	if change == nil {
		t.Fatal("expected a change")
	}
	if change.Change != 200 || change.PercentChange != 20 {
		t.Errorf("got change=%v percent=%v, want 200 and 20", change.Change, change.PercentChange)
	}
	if change.PeriodLabel != "1 month" {
		t.Errorf("period = %q, want %q", change.PeriodLabel, "1 month")
	}

	if got := PortfolioChange(snapshots[:1], now); got != nil {
		t.Errorf("a single snapshot has no trend, got %+v", got)
	}
}
