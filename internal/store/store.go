package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nickolasww/nutriday/internal/model"
)

const (
	KeyAuthToken = "auth_token"
)

func SetValue(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	_, err := db.Exec(`
INSERT INTO session_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func Value(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM session_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func DeleteValue(db *sql.DB, key string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	if _, err := db.Exec(`DELETE FROM session_config WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete config %q: %w", key, err)
	}
	return nil
}

func ListValues(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM session_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// CacheDay stores a snapshot of the ledger for offline rendering.
func CacheDay(db *sql.DB, day *model.DayLedger) error {
	if day == nil || strings.TrimSpace(day.Date) == "" {
		return fmt.Errorf("day snapshot with a date is required")
	}
	snapshot, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("marshal day snapshot: %w", err)
	}
	_, err = db.Exec(`
INSERT INTO day_cache(date, snapshot_json, fetched_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(date) DO UPDATE SET snapshot_json=excluded.snapshot_json, fetched_at=excluded.fetched_at
`, day.Date, string(snapshot))
	if err != nil {
		return fmt.Errorf("cache day %s: %w", day.Date, err)
	}
	return nil
}

func CachedDay(db *sql.DB, date string) (*model.DayLedger, bool, error) {
	var snapshot string
	err := db.QueryRow(`SELECT snapshot_json FROM day_cache WHERE date = ?`, date).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached day %s: %w", date, err)
	}
	var day model.DayLedger
	if err := json.Unmarshal([]byte(snapshot), &day); err != nil {
		return nil, false, fmt.Errorf("decode cached day %s: %w", date, err)
	}
	// Cached snapshots predate any schema changes; re-derive totals.
	day.Recompute()
	return &day, true, nil
}

func MarkLogged(db *sql.DB, date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO logged_dates(date) VALUES(?)`, date); err != nil {
		return fmt.Errorf("mark date %s logged: %w", date, err)
	}
	return nil
}

func LoggedDates(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT date FROM logged_dates ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list logged dates: %w", err)
	}
	defer rows.Close()
	dates := make([]string, 0)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan logged date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logged dates: %w", err)
	}
	return dates, nil
}

// PendingSave is one queued best-effort write that has not reached the
// remote food log yet.
type PendingSave struct {
	ID       int64
	Date     string
	MealSlot string
	EntryIDs []string
	QueuedAt time.Time
}

func EnqueueSave(db *sql.DB, date, slot string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one entry id is required")
	}
	if _, err := model.ParseMealSlot(slot); err != nil {
		return err
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal pending entry ids: %w", err)
	}
	if _, err := db.Exec(`
INSERT INTO pending_saves(date, meal_slot, entry_ids_json)
VALUES(?, ?, ?)
`, date, slot, string(encoded)); err != nil {
		return fmt.Errorf("enqueue save for %s %s: %w", date, slot, err)
	}
	return nil
}

func PendingSaves(db *sql.DB) ([]PendingSave, error) {
	rows, err := db.Query(`
SELECT id, date, meal_slot, entry_ids_json, queued_at
FROM pending_saves
ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list pending saves: %w", err)
	}
	defer rows.Close()

	saves := make([]PendingSave, 0)
	for rows.Next() {
		var s PendingSave
		var idsRaw, queuedRaw string
		if err := rows.Scan(&s.ID, &s.Date, &s.MealSlot, &idsRaw, &queuedRaw); err != nil {
			return nil, fmt.Errorf("scan pending save: %w", err)
		}
		if err := json.Unmarshal([]byte(idsRaw), &s.EntryIDs); err != nil {
			return nil, fmt.Errorf("decode pending save %d ids: %w", s.ID, err)
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", queuedRaw, time.UTC); err == nil {
			s.QueuedAt = t
		}
		saves = append(saves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending saves: %w", err)
	}
	return saves, nil
}

func DeletePendingSave(db *sql.DB, id int64) error {
	if _, err := db.Exec(`DELETE FROM pending_saves WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete pending save %d: %w", id, err)
	}
	return nil
}

// SetTargetOverride stores locally computed daily targets. They take
// precedence over defaults until the remote personalization data returns its
// own targets for a day.
func SetTargetOverride(db *sql.DB, t model.NutrientTargets) error {
	_, err := db.Exec(`
INSERT INTO target_overrides(id, calories, carbs_g, protein_g, fat_g, fiber_g, updated_at)
VALUES(1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  calories=excluded.calories,
  carbs_g=excluded.carbs_g,
  protein_g=excluded.protein_g,
  fat_g=excluded.fat_g,
  fiber_g=excluded.fiber_g,
  updated_at=excluded.updated_at
`, t.Calories, t.CarbsG, t.ProteinG, t.FatG, t.FiberG)
	if err != nil {
		return fmt.Errorf("set target override: %w", err)
	}
	return nil
}

func TargetOverride(db *sql.DB) (model.NutrientTargets, bool, error) {
	var t model.NutrientTargets
	err := db.QueryRow(`
SELECT calories, carbs_g, protein_g, fat_g, fiber_g
FROM target_overrides
WHERE id = 1
`).Scan(&t.Calories, &t.CarbsG, &t.ProteinG, &t.FatG, &t.FiberG)
	if err == sql.ErrNoRows {
		return model.NutrientTargets{}, false, nil
	}
	if err != nil {
		return model.NutrientTargets{}, false, fmt.Errorf("read target override: %w", err)
	}
	return t, true, nil
}
