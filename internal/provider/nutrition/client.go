package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nickolasww/nutriday/internal/model"
)

const defaultBaseURL = "https://api.nutriday.app"

// ErrNotFound means the server has no record for the requested date. This is
// a normal outcome for a day with no logged food, not a failure.
var ErrNotFound = errors.New("no day record for date")

// ErrUnauthorized means the credential is missing or was rejected.
var ErrUnauthorized = errors.New("credential missing or rejected")

// RequestError is any other non-success outcome, with best-effort detail
// extracted from the response body.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("nutrition request failed with status %d", e.Status)
	}
	return fmt.Sprintf("nutrition request failed with status %d: %s", e.Status, e.Detail)
}

// TokenSource yields the bearer credential for requests.
type TokenSource interface {
	Token() (string, error)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
}

// FetchDay retrieves the full day snapshot for a YYYY-MM-DD date key. Server
// aggregates are not trusted; totals are recomputed locally from the entries.
func (c *Client) FetchDay(ctx context.Context, date string) (*model.DayLedger, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	token, err := c.Tokens.Token()
	if err != nil || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("fetch day %s: %w", date, ErrUnauthorized)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	url := fmt.Sprintf("%s/v1/days/%s", baseURL, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create day request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute day request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read day response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch day %s: %w", date, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("fetch day %s: %w", date, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &RequestError{Status: resp.StatusCode, Detail: extractMessage(body)}
	}

	var parsed dayPayload
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode day response: %w", err)
	}
	return mapDay(date, parsed), nil
}

type dayPayload struct {
	Breakfast []foodRecord `json:"breakfast"`
	Lunch     []foodRecord `json:"lunch"`
	Dinner    []foodRecord `json:"dinner"`

	TotalCalories          float64 `json:"total_calories"`
	TotalCarbohydrate      float64 `json:"total_carbohydrate"`
	TotalProtein           float64 `json:"total_protein"`
	TotalFat               float64 `json:"total_fat"`
	TotalFiber             float64 `json:"total_fiber"`
	TotalBreakfastCalories float64 `json:"total_breakfast_calories"`
	TotalLunchCalories     float64 `json:"total_lunch_calories"`
	TotalDinnerCalories    float64 `json:"total_dinner_calories"`

	DailyCalories     float64 `json:"daily_calories"`
	DailyCarbohydrate float64 `json:"daily_carbohydrate"`
	DailyProtein      float64 `json:"daily_protein"`
	DailyFat          float64 `json:"daily_fat"`
	DailyFiber        float64 `json:"daily_fiber"`
}

type foodRecord struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Calories      int      `json:"calories"`
	Carbohydrates float64  `json:"carbohydrates"`
	Protein       float64  `json:"protein"`
	Fats          float64  `json:"fats"`
	Fiber         float64  `json:"fiber"`
	CreatedAt     string   `json:"created_at"`
	Steps         []string `json:"steps"`
	Recipes       []string `json:"recipes"`
	Difficulty    string   `json:"difficulty"`
}

func mapDay(date string, p dayPayload) *model.DayLedger {
	targets := model.DefaultTargets()
	if p.DailyCalories > 0 {
		targets.Calories = int(p.DailyCalories)
	}
	if p.DailyCarbohydrate > 0 {
		targets.CarbsG = p.DailyCarbohydrate
	}
	if p.DailyProtein > 0 {
		targets.ProteinG = p.DailyProtein
	}
	if p.DailyFat > 0 {
		targets.FatG = p.DailyFat
	}
	if p.DailyFiber > 0 {
		targets.FiberG = p.DailyFiber
	}

	d := model.NewDayLedger(date, targets)
	d.Breakfast.Entries = mapRecords(p.Breakfast)
	d.Lunch.Entries = mapRecords(p.Lunch)
	d.Dinner.Entries = mapRecords(p.Dinner)
	d.Recompute()
	return d
}

func mapRecords(records []foodRecord) []model.FoodEntry {
	// Null or absent slot arrays are an empty bucket.
	entries := make([]model.FoodEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, model.FoodEntry{
			ID:          model.RemoteID(r.ID),
			Name:        strings.TrimSpace(r.Name),
			Calories:    nonNegativeInt(r.Calories),
			CarbsG:      nonNegative(r.Carbohydrates),
			ProteinG:    nonNegative(r.Protein),
			FatG:        nonNegative(r.Fats),
			FiberG:      nonNegative(r.Fiber),
			CreatedAt:   parseCreatedAt(r.CreatedAt),
			Steps:       r.Steps,
			Ingredients: r.Recipes,
			Difficulty:  strings.TrimSpace(r.Difficulty),
		})
	}
	return entries
}

func parseCreatedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func nonNegativeInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// extractMessage pulls a human-readable detail from a JSON or plain-text
// error body.
func extractMessage(body []byte) string {
	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
