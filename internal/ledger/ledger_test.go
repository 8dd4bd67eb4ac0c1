package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nickolasww/nutriday/internal/model"
	"github.com/nickolasww/nutriday/internal/provider/nutrition"
)

type fetchFunc func(ctx context.Context, date string) (*model.DayLedger, error)

func (f fetchFunc) FetchDay(ctx context.Context, date string) (*model.DayLedger, error) {
	return f(ctx, date)
}

type saveFunc func(ctx context.Context, date, slot string, ids []string) error

func (f saveFunc) SaveEntries(ctx context.Context, date, slot string, ids []string) error {
	return f(ctx, date, slot, ids)
}

type clearRecorder struct {
	calls int32
}

func (c *clearRecorder) Clear() error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 5, 14, 12, 0, 0, 0, time.Local)
}

func emptyFetcher(ctx context.Context, date string) (*model.DayLedger, error) {
	return nil, fmt.Errorf("fetch day %s: %w", date, nutrition.ErrNotFound)
}

// assertInvariant checks that the incrementally maintained totals equal a
// full recompute from the entries, and that the calorie track equals the sum
// of the three bucket totals.
func assertInvariant(t *testing.T, l *Ledger) {
	t.Helper()
	day, ok := l.Day(l.ActiveDate())
	if !ok {
		return
	}
	totals := l.DailyTotals()

	full := day.Clone()
	full.Recompute()
	if totals.Calories.Current != full.Calories.Current ||
		totals.Carbs.Current != full.Carbs.Current ||
		totals.Protein.Current != full.Protein.Current ||
		totals.Fat.Current != full.Fat.Current ||
		totals.Fiber.Current != full.Fiber.Current {
		t.Fatalf("incremental totals diverged from full recompute:\n got %+v\nwant %+v", totals, full)
	}

	bucketSum := day.Breakfast.TotalCalories + day.Lunch.TotalCalories + day.Dinner.TotalCalories
	if totals.Calories.Current != float64(bucketSum) {
		t.Fatalf("calorie track %.0f != bucket sum %d", totals.Calories.Current, bucketSum)
	}
}

func TestNutrientSumInvariantAcrossMutations(t *testing.T) {
	t.Parallel()

	l := New(Options{Fetcher: fetchFunc(emptyFetcher), Now: fixedNow})
	ctx := context.Background()
	if err := l.SelectDate(ctx, "2025-05-14"); err != nil {
		t.Fatalf("select date: %v", err)
	}
	assertInvariant(t, l)

	first := l.AddEntry(model.SlotBreakfast, EntryInput{Name: "Oatmeal", Calories: 150, CarbsG: 27, ProteinG: 5, FatG: 3, FiberG: 4})
	assertInvariant(t, l)
	l.AddEntry(model.SlotLunch, EntryInput{Name: "Gado Gado", Calories: 420, CarbsG: 30, ProteinG: 15, FatG: 25, FiberG: 8})
	assertInvariant(t, l)
	second := l.AddEntry(model.SlotDinner, EntryInput{Name: "Pepes Ikan", Calories: 260, ProteinG: 28, FatG: 14})
	assertInvariant(t, l)

	if !l.RemoveEntry(model.SlotBreakfast, first.ID) {
		t.Fatalf("expected removal of breakfast entry")
	}
	assertInvariant(t, l)
	if !l.RemoveEntry(model.SlotDinner, second.ID) {
		t.Fatalf("expected removal of dinner entry")
	}
	assertInvariant(t, l)

	totals := l.DailyTotals()
	if totals.Calories.Current != 420 {
		t.Fatalf("expected 420 kcal remaining, got %.0f", totals.Calories.Current)
	}
}

func TestSelectDateRejectsFuture(t *testing.T) {
	t.Parallel()

	fetches := 0
	l := New(Options{
		Fetcher: fetchFunc(func(ctx context.Context, date string) (*model.DayLedger, error) {
			fetches++
			return nil, nutrition.ErrNotFound
		}),
		Now: fixedNow,
	})
	ctx := context.Background()
	if err := l.SelectDate(ctx, "2025-05-14"); err != nil {
		t.Fatalf("select today: %v", err)
	}

	err := l.SelectDate(ctx, "2025-05-15")
	var invalid *InvalidDateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDateError, got %v", err)
	}
	if l.ActiveDate() != "2025-05-14" {
		t.Fatalf("active date must be unchanged, got %s", l.ActiveDate())
	}
	if fetches != 1 {
		t.Fatalf("future selection must not trigger a load, fetches=%d", fetches)
	}
}

func TestNotFoundInstallsEmptyDayWithoutErrorFlag(t *testing.T) {
	t.Parallel()

	l := New(Options{Fetcher: fetchFunc(emptyFetcher), Now: fixedNow})
	if err := l.SelectDate(context.Background(), "2025-05-13"); err != nil {
		t.Fatalf("select date: %v", err)
	}

	day, ok := l.Day("2025-05-13")
	if !ok {
		t.Fatalf("expected an installed empty day")
	}
	if !day.Empty() {
		t.Fatalf("expected empty buckets, got %+v", day)
	}
	totals := l.DailyTotals()
	if totals.Calories.Current != 0 || totals.Calories.Target != 2000 {
		t.Fatalf("expected zero current at default target, got %+v", totals.Calories)
	}
	if totals.Fiber.Target != 25 || totals.Fat.Target != 67 {
		t.Fatalf("expected default targets, got %+v", totals)
	}
	if l.LastLoadError() != nil {
		t.Fatalf("a day with no data is not an error, got %v", l.LastLoadError())
	}
}

func TestUnauthorizedClearsCredentialAndIsIdempotent(t *testing.T) {
	t.Parallel()

	creds := &clearRecorder{}
	l := New(Options{
		Fetcher: fetchFunc(func(ctx context.Context, date string) (*model.DayLedger, error) {
			return nil, fmt.Errorf("fetch day %s: %w", date, nutrition.ErrUnauthorized)
		}),
		Credentials: creds,
		Now:         fixedNow,
	})
	ctx := context.Background()

	for attempt := 1; attempt <= 2; attempt++ {
		err := l.SelectDate(ctx, "2025-05-13")
		var authErr *AuthRequiredError
		if !errors.As(err, &authErr) {
			t.Fatalf("attempt %d: expected AuthRequiredError, got %v", attempt, err)
		}
		if _, ok := l.Day("2025-05-13"); ok {
			t.Fatalf("attempt %d: ledger must be left unset on auth failure", attempt)
		}
	}
	if got := atomic.LoadInt32(&creds.calls); got != 2 {
		t.Fatalf("expected credential cleared on each rejection, got %d", got)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	l := New(Options{
		Fetcher: fetchFunc(func(ctx context.Context, date string) (*model.DayLedger, error) {
			if date == "2025-05-10" {
				close(started)
				<-release
				day := model.NewDayLedger(date, model.DefaultTargets())
				day.Lunch.Entries = append(day.Lunch.Entries, model.FoodEntry{ID: model.RemoteID(99), Name: "Stale Soto", Calories: 999})
				day.Recompute()
				return day, nil
			}
			return nil, nutrition.ErrNotFound
		}),
		Now: fixedNow,
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- l.LoadForDate(ctx, "2025-05-10")
	}()
	<-started

	if err := l.SelectDate(ctx, "2025-05-12"); err != nil {
		t.Fatalf("select newer date: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale load must be discarded silently, got %v", err)
	}

	if l.ActiveDate() != "2025-05-12" {
		t.Fatalf("active date corrupted: %s", l.ActiveDate())
	}
	day, ok := l.Day("2025-05-12")
	if !ok || !day.Empty() {
		t.Fatalf("newly selected day must be unaffected, got %+v", day)
	}
	if _, ok := l.Day("2025-05-10"); ok {
		t.Fatalf("stale response must not be applied at all")
	}
	if totals := l.DailyTotals(); totals.Calories.Current != 0 {
		t.Fatalf("stale entries leaked into totals: %+v", totals)
	}
}

func TestOptimisticAddSurvivesPersistenceFailure(t *testing.T) {
	t.Parallel()

	l := New(Options{
		Fetcher: fetchFunc(emptyFetcher),
		Saver: saveFunc(func(ctx context.Context, date, slot string, ids []string) error {
			return fmt.Errorf("food log unreachable")
		}),
		Now: fixedNow,
	})
	ctx := context.Background()
	if err := l.SelectDate(ctx, "2025-05-14"); err != nil {
		t.Fatalf("select date: %v", err)
	}

	entry := l.AddEntry(model.SlotBreakfast, EntryInput{Name: "Lontong", Calories: 280, CarbsG: 50})
	if !entry.ID.IsLocal() {
		t.Fatalf("optimistic entry must get a local id, got %v", entry.ID)
	}
	assertInvariant(t, l)

	if err := l.PersistEntry(ctx, model.SlotBreakfast, entry.ID); err == nil {
		t.Fatalf("expected persistence failure to be reported")
	}

	day, _ := l.Day("2025-05-14")
	if len(day.Breakfast.Entries) != 1 || day.Breakfast.Entries[0].ID != entry.ID {
		t.Fatalf("entry must remain visible after failed persistence: %+v", day.Breakfast)
	}
	if totals := l.DailyTotals(); totals.Calories.Current != 280 {
		t.Fatalf("totals must keep the optimistic entry, got %+v", totals.Calories)
	}
}

func TestRemoveEntryIsIdempotent(t *testing.T) {
	t.Parallel()

	l := New(Options{Fetcher: fetchFunc(emptyFetcher), Now: fixedNow})
	ctx := context.Background()
	if err := l.SelectDate(ctx, "2025-05-14"); err != nil {
		t.Fatalf("select date: %v", err)
	}
	l.AddEntry(model.SlotLunch, EntryInput{Name: "Rendang", Calories: 468, FatG: 26})
	before := l.DailyTotals()

	if removed := l.RemoveEntry(model.SlotLunch, model.RemoteID(424242)); removed {
		t.Fatalf("removing an absent id must be a no-op")
	}
	if removed := l.RemoveEntry(model.SlotLunch, model.NewLocalID()); removed {
		t.Fatalf("removing an unknown local id must be a no-op")
	}
	assertInvariant(t, l)
	if after := l.DailyTotals(); after != before {
		t.Fatalf("totals changed by no-op removal:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestConcreteScenario(t *testing.T) {
	t.Parallel()

	l := New(Options{Fetcher: fetchFunc(emptyFetcher), Now: fixedNow})
	ctx := context.Background()
	if err := l.SelectDate(ctx, "2025-05-14"); err != nil {
		t.Fatalf("select date: %v", err)
	}

	l.AddEntry(model.SlotBreakfast, EntryInput{Name: "Nasi Goreng", Calories: 350, CarbsG: 40, ProteinG: 8, FatG: 12, FiberG: 2})
	totals := l.DailyTotals()
	if totals.Calories.Current != 350 || totals.Calories.Target != 2000 {
		t.Fatalf("expected {current:350, target:2000}, got %+v", totals.Calories)
	}
	day, _ := l.Day("2025-05-14")
	if day.Breakfast.TotalCalories != 350 {
		t.Fatalf("expected breakfast bucket total 350, got %d", day.Breakfast.TotalCalories)
	}
	assertInvariant(t, l)

	l.AddEntry(model.SlotLunch, EntryInput{Name: "Ayam Goreng", Calories: 400, CarbsG: 10, ProteinG: 30, FatG: 24})
	totals = l.DailyTotals()
	if totals.Calories.Current != 750 {
		t.Fatalf("expected 750 kcal after lunch, got %.0f", totals.Calories.Current)
	}
	assertInvariant(t, l)
}

func TestLoadFailureInstallsRenderableFallback(t *testing.T) {
	t.Parallel()

	l := New(Options{
		Fetcher: fetchFunc(func(ctx context.Context, date string) (*model.DayLedger, error) {
			return nil, &nutrition.RequestError{Status: 503, Detail: "maintenance window"}
		}),
		Now: fixedNow,
	})
	err := l.SelectDate(context.Background(), "2025-05-13")

	var failErr *LoadFailedError
	if !errors.As(err, &failErr) {
		t.Fatalf("expected LoadFailedError, got %v", err)
	}
	if failErr.Status != 503 || failErr.Detail != "maintenance window" {
		t.Fatalf("expected server detail carried, got %+v", failErr)
	}

	day, ok := l.Day("2025-05-13")
	if !ok || !day.Empty() {
		t.Fatalf("expected empty fallback ledger, got %+v", day)
	}
	if l.LastLoadError() == nil {
		t.Fatalf("expected error flag set alongside the fallback")
	}
}

func TestSelectCachedDateDoesNotRefetch(t *testing.T) {
	t.Parallel()

	fetches := 0
	l := New(Options{
		Fetcher: fetchFunc(func(ctx context.Context, date string) (*model.DayLedger, error) {
			fetches++
			return nil, nutrition.ErrNotFound
		}),
		Now: fixedNow,
	})
	ctx := context.Background()

	if err := l.SelectDate(ctx, "2025-05-13"); err != nil {
		t.Fatalf("first select: %v", err)
	}
	if err := l.SelectDate(ctx, "2025-05-14"); err != nil {
		t.Fatalf("second select: %v", err)
	}
	if err := l.SelectDate(ctx, "2025-05-13"); err != nil {
		t.Fatalf("reselect cached date: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected 2 fetches for 3 selections, got %d", fetches)
	}
}

func TestLoggedDatesIndexGrows(t *testing.T) {
	t.Parallel()

	l := New(Options{
		Fetcher: fetchFunc(func(ctx context.Context, date string) (*model.DayLedger, error) {
			if date == "2025-05-12" {
				day := model.NewDayLedger(date, model.DefaultTargets())
				day.Dinner.Entries = append(day.Dinner.Entries, model.FoodEntry{ID: model.RemoteID(5), Name: "Sate", Calories: 300})
				day.Recompute()
				return day, nil
			}
			return nil, nutrition.ErrNotFound
		}),
		Now: fixedNow,
	})
	ctx := context.Background()

	l.SeedLoggedDates([]string{"2025-05-01"})
	if err := l.SelectDate(ctx, "2025-05-12"); err != nil {
		t.Fatalf("select fetched date: %v", err)
	}
	// A 404 day carries no persisted entries and must not join the index.
	if err := l.SelectDate(ctx, "2025-05-13"); err != nil {
		t.Fatalf("select empty date: %v", err)
	}
	l.AddEntry(model.SlotBreakfast, EntryInput{Name: "Roti", Calories: 90})

	dates := l.LoggedDates()
	want := []string{"2025-05-01", "2025-05-12", "2025-05-13"}
	if len(dates) != len(want) {
		t.Fatalf("unexpected index %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("unexpected index %v, want %v", dates, want)
		}
	}
}
