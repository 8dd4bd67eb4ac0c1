package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MealSlot is one of the three fixed partitions of a day's food log.
type MealSlot int

const (
	SlotBreakfast MealSlot = iota
	SlotLunch
	SlotDinner
)

func Slots() [3]MealSlot {
	return [3]MealSlot{SlotBreakfast, SlotLunch, SlotDinner}
}

func (s MealSlot) String() string {
	switch s {
	case SlotBreakfast:
		return "breakfast"
	case SlotLunch:
		return "lunch"
	case SlotDinner:
		return "dinner"
	default:
		return fmt.Sprintf("mealslot(%d)", int(s))
	}
}

// Tag is the display label carried alongside the slot. It is presentation
// data, never computed from entries.
func (s MealSlot) Tag() string {
	switch s {
	case SlotBreakfast:
		return "Breakfast"
	case SlotLunch:
		return "Lunch"
	case SlotDinner:
		return "Dinner"
	default:
		return s.String()
	}
}

func ParseMealSlot(value string) (MealSlot, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "breakfast":
		return SlotBreakfast, nil
	case "lunch":
		return SlotLunch, nil
	case "dinner":
		return SlotDinner, nil
	default:
		return 0, fmt.Errorf("invalid meal slot %q (expected breakfast, lunch, or dinner)", value)
	}
}

// EntryID identifies a food entry in exactly one of two id spaces: Remote for
// entries confirmed by the server, Local (a UUID) for optimistic entries not
// yet confirmed. The spaces never overlap, so identity comparison is always
// unambiguous.
type EntryID struct {
	Remote int64  `json:"remote,omitempty"`
	Local  string `json:"local,omitempty"`
}

func RemoteID(id int64) EntryID {
	return EntryID{Remote: id}
}

func NewLocalID() EntryID {
	return EntryID{Local: uuid.NewString()}
}

func (id EntryID) IsLocal() bool {
	return id.Local != ""
}

func (id EntryID) IsZero() bool {
	return id.Remote == 0 && id.Local == ""
}

func (id EntryID) String() string {
	if id.IsLocal() {
		return "local:" + id.Local
	}
	return fmt.Sprintf("%d", id.Remote)
}

// FoodEntry is one consumed food record. Entries are replaced wholesale when
// a fresher version arrives, never mutated in place.
type FoodEntry struct {
	ID        EntryID   `json:"id"`
	Name      string    `json:"name"`
	Calories  int       `json:"calories"`
	CarbsG    float64   `json:"carbs_g"`
	ProteinG  float64   `json:"protein_g"`
	FatG      float64   `json:"fat_g"`
	FiberG    float64   `json:"fiber_g"`
	CreatedAt time.Time `json:"created_at"`

	// Optional recipe metadata, present only on entries that came from the
	// recipe feature.
	Steps       []string `json:"steps,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
}

// MealBucket holds one slot's entries in insertion (display) order.
// TotalCalories is cached and must always equal the sum of entry calories.
type MealBucket struct {
	Slot          MealSlot    `json:"slot"`
	Tag           string      `json:"tag"`
	Entries       []FoodEntry `json:"entries"`
	TotalCalories int         `json:"total_calories"`
}

func NewMealBucket(slot MealSlot) MealBucket {
	return MealBucket{Slot: slot, Tag: slot.Tag(), Entries: []FoodEntry{}}
}

func (b *MealBucket) recompute() {
	total := 0
	for _, e := range b.Entries {
		total += e.Calories
	}
	b.TotalCalories = total
}

// NutrientTrack pairs a derived current value with its daily target.
type NutrientTrack struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Color   string  `json:"color"`
}

func (t NutrientTrack) Exceeded() bool {
	return t.Current > t.Target
}

// DayLedger is the full nutrition state for one calendar date. The date key
// is YYYY-MM-DD in the device's local calendar day.
type DayLedger struct {
	Date string `json:"date"`

	Breakfast MealBucket `json:"breakfast"`
	Lunch     MealBucket `json:"lunch"`
	Dinner    MealBucket `json:"dinner"`

	Calories NutrientTrack `json:"calories"`
	Carbs    NutrientTrack `json:"carbs"`
	Protein  NutrientTrack `json:"protein"`
	Fat      NutrientTrack `json:"fat"`
	Fiber    NutrientTrack `json:"fiber"`
}

// NewDayLedger builds an empty ledger for date at the given targets.
func NewDayLedger(date string, targets NutrientTargets) *DayLedger {
	d := &DayLedger{
		Date:      date,
		Breakfast: NewMealBucket(SlotBreakfast),
		Lunch:     NewMealBucket(SlotLunch),
		Dinner:    NewMealBucket(SlotDinner),
	}
	d.SetTargets(targets)
	return d
}

func (d *DayLedger) SetTargets(t NutrientTargets) {
	d.Calories.Target, d.Calories.Color = float64(t.Calories), "#F2994A"
	d.Carbs.Target, d.Carbs.Color = t.CarbsG, "#F2C94C"
	d.Protein.Target, d.Protein.Color = t.ProteinG, "#6FCF97"
	d.Fat.Target, d.Fat.Color = t.FatG, "#EB5757"
	d.Fiber.Target, d.Fiber.Color = t.FiberG, "#56CCF2"
}

func (d *DayLedger) Bucket(slot MealSlot) *MealBucket {
	switch slot {
	case SlotBreakfast:
		return &d.Breakfast
	case SlotLunch:
		return &d.Lunch
	default:
		return &d.Dinner
	}
}

// Recompute re-derives every cached total from the entries themselves. This
// is the authoritative aggregation; incremental updates must agree with it.
func (d *DayLedger) Recompute() {
	var calories int
	var carbs, protein, fat, fiber float64
	for _, slot := range Slots() {
		b := d.Bucket(slot)
		b.recompute()
		calories += b.TotalCalories
		for _, e := range b.Entries {
			carbs += e.CarbsG
			protein += e.ProteinG
			fat += e.FatG
			fiber += e.FiberG
		}
	}
	d.Calories.Current = float64(calories)
	d.Carbs.Current = carbs
	d.Protein.Current = protein
	d.Fat.Current = fat
	d.Fiber.Current = fiber
}

// Empty reports whether no entries exist in any bucket.
func (d *DayLedger) Empty() bool {
	return len(d.Breakfast.Entries) == 0 && len(d.Lunch.Entries) == 0 && len(d.Dinner.Entries) == 0
}

// Clone returns a deep copy so readers can hold a snapshot without aliasing
// the ledger's mutable state.
func (d *DayLedger) Clone() *DayLedger {
	out := *d
	for _, slot := range Slots() {
		src := d.Bucket(slot)
		dst := out.Bucket(slot)
		dst.Entries = make([]FoodEntry, len(src.Entries))
		copy(dst.Entries, src.Entries)
	}
	return &out
}
