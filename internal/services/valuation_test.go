package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/cache"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

// fakeSource scripts one pricing source for aggregator tests.
type fakeSource struct {
	name    string
	enabled bool
	result  *models.ValuationResult
	err     error
	calls   int
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Enabled() bool { return f.enabled }
func (f *fakeSource) Query(ctx context.Context, q models.ValuationQuery) (*models.ValuationResult, error) {
	f.calls++
	return f.result, f.err
}

func successResult(source string) *models.ValuationResult {
	return &models.ValuationResult{
		Success: true,
		Source:  source,
		FMV:     models.FMVTable{"9.8": 500, "raw": 50},
	}
}

func validQuery() models.ValuationQuery {
	return models.ValuationQuery{Title: "Amazing Fantasy", IssueNumber: "15"}
}

func TestGetValuationInvalidQuery(t *testing.T) {
	primary := &fakeSource{name: "gocollect", enabled: true, result: successResult("gocollect")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), primary)

	tests := []struct {
		name  string
		query models.ValuationQuery
	}{
		{"missing title", models.ValuationQuery{IssueNumber: "15"}},
		{"missing issue", models.ValuationQuery{Title: "Amazing Fantasy"}},
		{"whitespace title", models.ValuationQuery{Title: "   ", IssueNumber: "15"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.GetValuation(context.Background(), tt.query)
			if result.Success {
				t.Error("invalid query must not succeed")
			}
			if result.Error == "" {
				t.Error("failed result must carry an error message")
			}
			if result.Source != models.SourceUnavailable {
				t.Errorf("source = %s, want unavailable", result.Source)
			}
		})
	}
	if primary.calls != 0 {
		t.Errorf("invalid queries must fail before any source call, saw %d calls", primary.calls)
	}
}

func TestGetValuationFirstSuccessWins(t *testing.T) {
	primary := &fakeSource{name: "gocollect", enabled: true, result: successResult("gocollect")}
	fallback := &fakeSource{name: "covrprice", enabled: true, result: successResult("covrprice")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), primary, fallback)

	result := svc.GetValuation(context.Background(), validQuery())
	if !result.Success || result.Source != "gocollect" {
		t.Fatalf("expected primary source to win, got %+v", result)
	}
	if result.FMV == nil {
		t.Error("success must come with a non-nil FMV table")
	}
	if fallback.calls != 0 {
		t.Errorf("fallback should not be called after primary succeeds, saw %d calls", fallback.calls)
	}
}

func TestGetValuationFallsBack(t *testing.T) {
	primary := &fakeSource{name: "gocollect", enabled: true, err: errors.New("request failed after 3 attempts: status 500")}
	fallback := &fakeSource{name: "covrprice", enabled: true, result: successResult("covrprice")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), primary, fallback)

	result := svc.GetValuation(context.Background(), validQuery())
	if !result.Success || result.Source != "covrprice" {
		t.Fatalf("expected fallback to answer, got %+v", result)
	}
}

func TestGetValuationSkipsUnconfigured(t *testing.T) {
	primary := &fakeSource{name: "gocollect", enabled: false}
	fallback := &fakeSource{name: "covrprice", enabled: true, result: successResult("covrprice")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), primary, fallback)

	result := svc.GetValuation(context.Background(), validQuery())
	if !result.Success || result.Source != "covrprice" {
		t.Fatalf("disabled source should be skipped, got %+v", result)
	}
	if primary.calls != 0 {
		t.Error("disabled source must not be queried")
	}
}

func TestGetValuationPrefersNotFoundMessage(t *testing.T) {
	transport := &fakeSource{name: "gocollect", enabled: true, err: errors.New("dial tcp: connection refused")}
	notFound := &fakeSource{name: "covrprice", enabled: true, err: ErrNotFound}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), transport, notFound)

	result := svc.GetValuation(context.Background(), validQuery())
	if result.Success {
		t.Fatal("both sources failed, result must not succeed")
	}
	if result.Source != models.SourceUnavailable {
		t.Errorf("source = %s, want unavailable", result.Source)
	}
	if result.Error != ErrNotFound.Error() {
		t.Errorf("error = %q, want the not-found message over the transport error", result.Error)
	}
}

func TestGetValuationNormalizesTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"dial failure hides network internals",
			errors.New(`request failed after 3 attempts: Get "https://api.gocollect.com/api/collectibles/v1/item/search": dial tcp: lookup api.gocollect.com: no such host`),
			"pricing services are temporarily unreachable",
		},
		{
			"timeout gets its own message",
			errors.New("request failed after 3 attempts: context deadline exceeded (Client.Timeout exceeded while awaiting headers)"),
			"the pricing service took too long to respond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flaky := &fakeSource{name: "gocollect", enabled: true, err: tt.err}
			svc := NewValuationService(cache.NewQueryCache(time.Hour), flaky)

			result := svc.GetValuation(context.Background(), validQuery())
			if result.Success {
				t.Fatal("transport failure must not succeed")
			}
			if result.Error != tt.want {
				t.Errorf("error = %q, want %q", result.Error, tt.want)
			}
			for _, leak := range []string{"dial tcp", "https://", "no such host"} {
				if strings.Contains(result.Error, leak) {
					t.Errorf("user-visible error leaks %q: %q", leak, result.Error)
				}
			}
		})
	}
}

func TestGetValuationAllUnconfigured(t *testing.T) {
	svc := NewValuationService(cache.NewQueryCache(time.Hour),
		&fakeSource{name: "gocollect"},
		&fakeSource{name: "covrprice"},
	)

	result := svc.GetValuation(context.Background(), validQuery())
	if result.Success || result.Error == "" {
		t.Fatalf("expected a failed result with an error, got %+v", result)
	}
}

func TestGetValuationCachesSuccess(t *testing.T) {
	primary := &fakeSource{name: "gocollect", enabled: true, result: successResult("gocollect")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), primary)

	q := validQuery()
	first := svc.GetValuation(context.Background(), q)
	if !first.Success {
		t.Fatalf("expected success, got %+v", first)
	}

	// Identical query within the TTL: no additional source call
	second := svc.GetValuation(context.Background(), q)
	if second != first {
		t.Error("expected the cached result instance")
	}
	if primary.calls != 1 {
		t.Errorf("expected exactly one source call, got %d", primary.calls)
	}

	// A query differing only by grade shares the same identity
	q.Grade = 9.8
	svc.GetValuation(context.Background(), q)
	if primary.calls != 1 {
		t.Errorf("grade refines, not identifies; expected 1 call, got %d", primary.calls)
	}
}

func TestGetValuationDoesNotCacheFailure(t *testing.T) {
	flaky := &fakeSource{name: "gocollect", enabled: true, err: errors.New("boom")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), flaky)

	svc.GetValuation(context.Background(), validQuery())
	svc.GetValuation(context.Background(), validQuery())
	if flaky.calls != 2 {
		t.Errorf("failures must not be cached, expected 2 calls, got %d", flaky.calls)
	}
}

func TestInvalidateCache(t *testing.T) {
	primary := &fakeSource{name: "gocollect", enabled: true, result: successResult("gocollect")}
	svc := NewValuationService(cache.NewQueryCache(time.Hour), primary)

	q := validQuery()
	svc.GetValuation(context.Background(), q)
	svc.InvalidateCache(q.CacheKey())
	svc.GetValuation(context.Background(), q)
	if primary.calls != 2 {
		t.Errorf("invalidated key should be re-fetched, got %d calls", primary.calls)
	}

	svc.GetValuation(context.Background(), q)
	svc.InvalidateCache("")
	svc.GetValuation(context.Background(), q)
	if primary.calls != 3 {
		t.Errorf("empty key should clear everything, got %d calls", primary.calls)
	}
}
