package services

import (
	"testing"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

func TestMapGradingCompany(t *testing.T) {
	tests := []struct {
		input    string
		expected models.GradingCompany
	}{
		{"CGC", models.GradingCGC},
		{"cgc universal", models.GradingCGC},
		{"Graded by CGC 9.8", models.GradingCGC},
		{"CBCS", models.GradingCBCS},
		{"cbcs verified", models.GradingCBCS},
		{"PGX", models.GradingPGX},
		{"pgx slab", models.GradingPGX},
		{"", models.GradingRaw},
		{"ungraded", models.GradingRaw},
		{"none", models.GradingRaw},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := MapGradingCompany(tt.input); got != tt.expected {
				t.Errorf("MapGradingCompany(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestReconcileItemsMatchesByCert(t *testing.T) {
	existing := []models.Comic{
		{ID: "c1", Title: "Amazing Fantasy", IssueNumber: "15", CertNumber: "1234-001", Grade: 6.0},
	}
	items := []RemoteComicItem{
		{Title: "AMAZING FANTASY", IssueNumber: "15", CertNumber: "1234-001", Grade: 6.5, GradingCompany: "CGC"},
	}

	inserts, updates := ReconcileItems(items, existing)
	if len(inserts) != 0 {
		t.Errorf("cert match should update, not insert: %+v", inserts)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].ID != "c1" {
		t.Errorf("update should keep the existing record id, got %s", updates[0].ID)
	}
	if updates[0].Grade != 6.5 || updates[0].GradingCompany != models.GradingCGC {
		t.Errorf("remote grade data should win: %+v", updates[0])
	}
}

func TestReconcileItemsMatchesByTitleIssue(t *testing.T) {
	existing := []models.Comic{
		{ID: "c1", Title: "Hulk", IssueNumber: "181"},
	}
	items := []RemoteComicItem{
		{Title: "  hulk  ", IssueNumber: "181", Publisher: "Marvel"},
		{Title: "Hulk", IssueNumber: "182"},
	}

	inserts, updates := ReconcileItems(items, existing)
	if len(updates) != 1 || updates[0].ID != "c1" {
		t.Fatalf("case-insensitive title+issue should match: updates=%+v", updates)
	}
	if updates[0].Publisher != "Marvel" {
		t.Errorf("publisher should be filled from the remote item")
	}
	if len(inserts) != 1 || inserts[0].IssueNumber != "182" {
		t.Fatalf("unmatched item should be inserted: %+v", inserts)
	}
	if inserts[0].ID == "" {
		t.Error("insert should get a generated id")
	}
}

func TestReconcileItemsCertBeatsTitleIssue(t *testing.T) {
	existing := []models.Comic{
		{ID: "slab", Title: "X-Men", IssueNumber: "1", CertNumber: "9999"},
		{ID: "reader", Title: "X-Men", IssueNumber: "1"},
	}
	items := []RemoteComicItem{
		{Title: "X-Men", IssueNumber: "1", CertNumber: "9999"},
	}

	_, updates := ReconcileItems(items, existing)
	if len(updates) != 1 || updates[0].ID != "slab" {
		t.Fatalf("cert number must take precedence over title+issue, got %+v", updates)
	}
}

func TestReconcileItemsSkipsBlankTitles(t *testing.T) {
	items := []RemoteComicItem{
		{Title: "   ", IssueNumber: "1"},
		{Title: "Spawn", IssueNumber: "1"},
	}

	inserts, updates := ReconcileItems(items, nil)
	if len(updates) != 0 {
		t.Errorf("nothing to update against an empty catalog, got %+v", updates)
	}
	if len(inserts) != 1 || inserts[0].Title != "Spawn" {
		t.Fatalf("blank titles should be skipped, got %+v", inserts)
	}
}

func TestReconcileItemsCarriesValue(t *testing.T) {
	items := []RemoteComicItem{
		{Title: "Saga", IssueNumber: "1", Value: 80},
		{Title: "Saga", IssueNumber: "2"},
	}

	inserts, _ := ReconcileItems(items, nil)
	if len(inserts) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(inserts))
	}
	if inserts[0].CurrentValue != 80 || inserts[0].ValueSource != "sync" || inserts[0].ValueUpdatedAt == nil {
		t.Errorf("remote value should seed current value: %+v", inserts[0])
	}
	if inserts[1].CurrentValue != 0 || inserts[1].ValueUpdatedAt != nil {
		t.Errorf("missing remote value should leave the comic unvalued: %+v", inserts[1])
	}
}
