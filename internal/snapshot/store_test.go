package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reviewrise/healthscan/internal/types"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	store, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})

	return store
}

func testSnapshot(url string, healthScore float64) *types.HealthSnapshot {
	return &types.HealthSnapshot{
		URL:            url,
		HealthScore:    healthScore,
		WeightsVersion: "2024-09",
		CategoryScores: []types.CategoryScore{
			{
				Category: types.CategoryTechnical,
				Score:    60,
				Findings: []types.Finding{
					{Category: types.CategoryTechnical, Severity: types.SeverityCritical, Code: "missing_meta_description", Message: "Page has no meta description"},
				},
			},
			{Category: types.CategoryContent, Score: 80},
		},
		Recommendations: []types.Recommendation{
			{Category: types.CategoryTechnical, Priority: types.PriorityHigh, Title: "Add a meta description", Description: "Write one."},
		},
	}
}

func TestStore_OpenMissingPath(t *testing.T) {
	if _, err := Open(""); !errors.Is(err, ErrMissingPath) {
		t.Errorf("Open(\"\") error = %v, want ErrMissingPath", err)
	}
}

func TestStore_SaveAndFindLatest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("https://acme.test/", 72.5)
	snap.StrategicRecommendations = []types.StrategicRecommendation{
		{Title: "Build a content hub", Rationale: "Thin topical depth", ExpectedImpact: "More organic entries"},
	}
	snap.Summary = "Solid bones, weak metadata."

	id, err := store.Save(ctx, snap)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if id == "" || snap.ID != id {
		t.Errorf("Save did not assign id, got %q / snapshot %q", id, snap.ID)
	}

	if snap.CreatedAt.IsZero() {
		t.Error("Save did not assign created_at")
	}

	got, err := store.FindLatest(ctx, "https://acme.test/")
	if err != nil {
		t.Fatalf("FindLatest returned error: %v", err)
	}

	if got.ID != id {
		t.Errorf("FindLatest id = %q, want %q", got.ID, id)
	}

	if got.HealthScore != 72.5 {
		t.Errorf("health score = %v, want 72.5", got.HealthScore)
	}

	if got.WeightsVersion != "2024-09" {
		t.Errorf("weights version = %q, want 2024-09", got.WeightsVersion)
	}

	if len(got.CategoryScores) != 2 || len(got.CategoryScores[0].Findings) != 1 {
		t.Errorf("category scores did not round-trip: %+v", got.CategoryScores)
	}

	if len(got.Recommendations) != 1 || got.Recommendations[0].Title != "Add a meta description" {
		t.Errorf("recommendations did not round-trip: %+v", got.Recommendations)
	}

	if len(got.StrategicRecommendations) != 1 || got.Summary != "Solid bones, weak metadata." {
		t.Errorf("advisor fields did not round-trip: %+v / %q", got.StrategicRecommendations, got.Summary)
	}

	if !got.CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, snap.CreatedAt)
	}
}

func TestStore_SaveDegradedSnapshot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("https://acme.test/", 50)

	if _, err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := store.FindLatest(ctx, "https://acme.test/")
	if err != nil {
		t.Fatalf("FindLatest returned error: %v", err)
	}

	if len(got.StrategicRecommendations) != 0 || got.Summary != "" {
		t.Errorf("expected empty advisor fields, got %+v / %q", got.StrategicRecommendations, got.Summary)
	}
}

func TestStore_SaveValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("Save(nil) error = %v, want ErrNilSnapshot", err)
	}

	if _, err := store.Save(ctx, &types.HealthSnapshot{}); !errors.Is(err, ErrMissingURL) {
		t.Errorf("Save without url error = %v, want ErrMissingURL", err)
	}
}

func TestStore_AppendOnlyAccumulates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := testSnapshot("https://acme.test/", 40)
	second := testSnapshot("https://acme.test/", 75)

	firstID, err := store.Save(ctx, first)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}

	secondID, err := store.Save(ctx, second)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	if firstID == secondID {
		t.Error("saves produced the same id")
	}

	count, err := store.Count(ctx, "https://acme.test/")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	latest, err := store.FindLatest(ctx, "https://acme.test/")
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if latest.ID != secondID {
		t.Errorf("FindLatest returned %q, want the later snapshot %q", latest.ID, secondID)
	}
	if latest.HealthScore != 75 {
		t.Errorf("latest health score = %v, want 75", latest.HealthScore)
	}
}

func TestStore_MonotonicCreatedAt(t *testing.T) {
	// a frozen clock forces the monotonic fallback on every save
	frozen := time.Date(2024, 9, 15, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	var prev time.Time

	for i := range 5 {
		snap := testSnapshot("https://acme.test/", float64(i))
		if _, err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}

		if !snap.CreatedAt.After(prev) {
			t.Fatalf("created_at %v not after previous %v", snap.CreatedAt, prev)
		}
		prev = snap.CreatedAt
	}

	latest, err := store.FindLatest(ctx, "https://acme.test/")
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if latest.HealthScore != 4 {
		t.Errorf("FindLatest under frozen clock returned score %v, want 4", latest.HealthScore)
	}
}

func TestStore_FindLatestNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.FindLatest(context.Background(), "https://never-analyzed.test/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindLatest error = %v, want ErrNotFound", err)
	}
}

func TestStore_CountScopes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, url := range []string{"https://a.test/", "https://a.test/", "https://b.test/"} {
		if _, err := store.Save(ctx, testSnapshot(url, 50)); err != nil {
			t.Fatalf("Save %s: %v", url, err)
		}
	}

	cases := []struct {
		url  string
		want int64
	}{
		{"https://a.test/", 2},
		{"https://b.test/", 1},
		{"https://c.test/", 0},
		{"", 3},
	}

	for _, tc := range cases {
		count, err := store.Count(ctx, tc.url)
		if err != nil {
			t.Fatalf("Count(%q): %v", tc.url, err)
		}
		if count != tc.want {
			t.Errorf("Count(%q) = %d, want %d", tc.url, count, tc.want)
		}
	}
}

func TestStore_History(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := range 4 {
		if _, err := store.Save(ctx, testSnapshot("https://acme.test/", float64(i*10))); err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
	}

	history, err := store.History(ctx, "https://acme.test/", 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}

	// newest first
	for i := 1; i < len(history); i++ {
		if !history[i-1].CreatedAt.After(history[i].CreatedAt) {
			t.Errorf("history not ordered newest first at index %d", i)
		}
	}

	if history[0].HealthScore != 30 {
		t.Errorf("newest history score = %v, want 30", history[0].HealthScore)
	}

	// non-positive limit falls back to the default
	all, err := store.History(ctx, "https://acme.test/", 0)
	if err != nil {
		t.Fatalf("History with default limit: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("history length = %d, want 4", len(all))
	}

	none, err := store.History(ctx, "https://other.test/", 5)
	if err != nil {
		t.Fatalf("History for unknown url: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no history for unknown url, got %d", len(none))
	}
}
