// Package ledger owns the mapping from calendar date to DayLedger and keeps
// the nutrient-aggregation invariant intact under both remote-sync and
// local-optimistic-write paths.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nickolasww/nutriday/internal/model"
	"github.com/nickolasww/nutriday/internal/provider/nutrition"
	"github.com/nickolasww/nutriday/pkg/logger"
)

// Fetcher retrieves the authoritative day snapshot from the remote nutrition
// provider.
type Fetcher interface {
	FetchDay(ctx context.Context, date string) (*model.DayLedger, error)
}

// Saver records consumed entries remotely, best-effort.
type Saver interface {
	SaveEntries(ctx context.Context, date, slot string, ids []string) error
}

// CredentialClearer removes the stored credential after the server rejects
// it.
type CredentialClearer interface {
	Clear() error
}

type Options struct {
	Fetcher     Fetcher
	Saver       Saver
	Credentials CredentialClearer
	Targets     model.NutrientTargets // zero value falls back to defaults
	Log         *logger.Logger
	Now         func() time.Time
}

// Ledger is the single mutable source of truth for day state. All mutations
// run to completion under one mutex; loads fetch outside the lock and apply
// their result only if still current (see the generation counter).
type Ledger struct {
	fetcher Fetcher
	saver   Saver
	creds   CredentialClearer
	targets model.NutrientTargets
	log     *logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	active  string
	days    map[string]*model.DayLedger
	index   map[string]struct{}
	gen     uint64
	loadErr error
}

func New(opts Options) *Ledger {
	l := &Ledger{
		fetcher: opts.Fetcher,
		saver:   opts.Saver,
		creds:   opts.Credentials,
		targets: opts.Targets,
		log:     opts.Log,
		now:     opts.Now,
		days:    map[string]*model.DayLedger{},
		index:   map[string]struct{}{},
	}
	if l.targets == (model.NutrientTargets{}) {
		l.targets = model.DefaultTargets()
	}
	if l.log == nil {
		l.log = logger.Nop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func validDateKey(date string) error {
	if _, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), time.Local); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return nil
}

// SelectDate marks date as the active date and loads it when uncached.
// Future dates are rejected with InvalidDateError before any state change.
func (l *Ledger) SelectDate(ctx context.Context, date string) error {
	if err := validDateKey(date); err != nil {
		return err
	}
	// Date keys compare chronologically as strings.
	if date > dateKey(l.now()) {
		return &InvalidDateError{Date: date}
	}

	l.mu.Lock()
	l.active = date
	l.gen++ // a date change invalidates every in-flight load
	_, cached := l.days[date]
	l.mu.Unlock()

	if cached {
		return nil
	}
	return l.LoadForDate(ctx, date)
}

// LoadForDate synchronizes date with the remote provider. Only the most
// recently requested load may apply its result; anything older is discarded.
func (l *Ledger) LoadForDate(ctx context.Context, date string) error {
	if err := validDateKey(date); err != nil {
		return err
	}
	if l.fetcher == nil {
		return fmt.Errorf("no nutrition provider configured")
	}

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	day, err := l.fetcher.FetchDay(ctx, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		l.log.Debugw("discarding stale day response", "date", date)
		return nil
	}

	switch {
	case err == nil:
		// Replace wholesale; never trust cached aggregates.
		day.Recompute()
		l.days[date] = day
		l.index[date] = struct{}{}
		l.loadErr = nil
		return nil

	case errors.Is(err, nutrition.ErrNotFound):
		// A day with no logged food. Normal outcome, no error flag.
		l.days[date] = model.NewDayLedger(date, l.targets)
		l.loadErr = nil
		return nil

	case errors.Is(err, nutrition.ErrUnauthorized):
		if l.creds != nil {
			if cerr := l.creds.Clear(); cerr != nil {
				l.log.Errorw("clear rejected credential", "error", cerr)
			}
		}
		authErr := &AuthRequiredError{Err: err}
		l.loadErr = authErr
		return authErr

	default:
		failErr := &LoadFailedError{Date: date, Err: err}
		var reqErr *nutrition.RequestError
		if errors.As(err, &reqErr) {
			failErr.Status = reqErr.Status
			failErr.Detail = reqErr.Detail
		}
		// Install a safe empty fallback so the UI always has something
		// renderable next to the error banner.
		l.days[date] = model.NewDayLedger(date, l.targets)
		l.loadErr = failErr
		return failErr
	}
}

// EntryInput is a candidate food entry without an id; the ledger assigns a
// provisional local id and timestamp.
type EntryInput struct {
	Name        string
	Calories    int
	CarbsG      float64
	ProteinG    float64
	FatG        float64
	FiberG      float64
	Steps       []string
	Ingredients []string
	Difficulty  string
}

// AddEntry appends an optimistic entry to the named bucket of the active
// day. It never fails: negative nutrient inputs are clamped to zero and the
// active day is created empty when needed. Totals update incrementally in
// O(1) and must agree with a full recompute.
func (l *Ledger) AddEntry(slot model.MealSlot, in EntryInput) model.FoodEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == "" {
		l.active = dateKey(l.now())
	}
	day, ok := l.days[l.active]
	if !ok {
		day = model.NewDayLedger(l.active, l.targets)
		l.days[l.active] = day
	}

	entry := model.FoodEntry{
		ID:          model.NewLocalID(),
		Name:        strings.TrimSpace(in.Name),
		Calories:    clampInt(in.Calories),
		CarbsG:      clamp(in.CarbsG),
		ProteinG:    clamp(in.ProteinG),
		FatG:        clamp(in.FatG),
		FiberG:      clamp(in.FiberG),
		CreatedAt:   l.now(),
		Steps:       in.Steps,
		Ingredients: in.Ingredients,
		Difficulty:  strings.TrimSpace(in.Difficulty),
	}

	b := day.Bucket(slot)
	b.Entries = append(b.Entries, entry)
	b.TotalCalories += entry.Calories
	day.Calories.Current += float64(entry.Calories)
	day.Carbs.Current += entry.CarbsG
	day.Protein.Current += entry.ProteinG
	day.Fat.Current += entry.FatG
	day.Fiber.Current += entry.FiberG

	l.index[l.active] = struct{}{}
	return entry
}

// RemoveEntry removes the entry from the named bucket of the active day.
// Removing an absent id is a no-op, not an error. Totals are fully
// recomputed from the remaining entries.
func (l *Ledger) RemoveEntry(slot model.MealSlot, id model.EntryID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	day, ok := l.days[l.active]
	if !ok {
		return false
	}
	b := day.Bucket(slot)
	kept := b.Entries[:0]
	removed := false
	for _, e := range b.Entries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return false
	}
	b.Entries = kept
	day.Recompute()
	return true
}

// Totals is a read-only view of the five nutrient tracks for the active day.
type Totals struct {
	Calories model.NutrientTrack
	Carbs    model.NutrientTrack
	Protein  model.NutrientTrack
	Fat      model.NutrientTrack
	Fiber    model.NutrientTrack
}

// DailyTotals is a pure read: it never triggers a remote call. An unloaded
// active day reports zero currents at the session targets.
func (l *Ledger) DailyTotals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()

	day, ok := l.days[l.active]
	if !ok {
		empty := model.NewDayLedger(l.active, l.targets)
		return Totals{Calories: empty.Calories, Carbs: empty.Carbs, Protein: empty.Protein, Fat: empty.Fat, Fiber: empty.Fiber}
	}
	return Totals{Calories: day.Calories, Carbs: day.Carbs, Protein: day.Protein, Fat: day.Fat, Fiber: day.Fiber}
}

// PersistEntry records an already-applied optimistic entry remotely. A
// failure is reported for queueing but never unwinds the local mutation.
func (l *Ledger) PersistEntry(ctx context.Context, slot model.MealSlot, id model.EntryID) error {
	if l.saver == nil {
		return nil
	}
	l.mu.Lock()
	date := l.active
	l.mu.Unlock()
	if date == "" {
		return fmt.Errorf("no active date to persist against")
	}

	if err := l.saver.SaveEntries(ctx, date, slot.String(), []string{id.String()}); err != nil {
		l.log.Warnw("best-effort persistence failed, local state kept",
			"date", date, "slot", slot.String(), "entry", id.String(), "error", err)
		return err
	}
	return nil
}

// ActiveDate returns the currently selected date key, or "" before any
// selection.
func (l *Ledger) ActiveDate() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Day returns a snapshot of the ledger for date. Callers get a deep copy and
// must not expect later mutations to show through.
func (l *Ledger) Day(date string) (*model.DayLedger, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	day, ok := l.days[date]
	if !ok {
		return nil, false
	}
	return day.Clone(), true
}

// LastLoadError reports the outcome flag of the most recent applied load:
// nil after a success or an expected empty day.
func (l *Ledger) LastLoadError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadErr
}

// LoggedDates returns the available-date index in ascending order. The index
// only grows within a session.
func (l *Ledger) LoggedDates() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	dates := make([]string, 0, len(l.index))
	for date := range l.index {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// SeedDay installs a locally cached snapshot without contacting the remote
// provider, for offline rendering. Remote loads still replace it wholesale.
func (l *Ledger) SeedDay(day *model.DayLedger) error {
	if day == nil || validDateKey(day.Date) != nil {
		return fmt.Errorf("day snapshot with a valid date is required")
	}
	day.Recompute()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.days[day.Date] = day
	l.index[day.Date] = struct{}{}
	return nil
}

// SeedLoggedDates pre-populates the available-date index, typically from the
// local store at startup.
func (l *Ledger) SeedLoggedDates(dates []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, date := range dates {
		if validDateKey(date) == nil {
			l.index[date] = struct{}{}
		}
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
