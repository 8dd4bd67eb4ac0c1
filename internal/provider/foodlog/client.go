package foodlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.nutriday.app"

// TokenSource yields the bearer credential for requests.
type TokenSource interface {
	Token() (string, error)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
}

type saveRequest struct {
	Date     string   `json:"date"`
	MealSlot string   `json:"meal_slot"`
	FoodIDs  []string `json:"food_ids"`
}

// SaveEntries durably records consumed entries for a date and slot. Writes
// are best-effort: the caller logs or queues a failure and never rolls back
// local state.
func (c *Client) SaveEntries(ctx context.Context, date, slot string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	token, err := c.Tokens.Token()
	if err != nil || strings.TrimSpace(token) == "" {
		return fmt.Errorf("save entries for %s: missing credential", date)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	payload, err := json.Marshal(saveRequest{Date: date, MealSlot: slot, FoodIDs: ids})
	if err != nil {
		return fmt.Errorf("marshal save payload: %w", err)
	}

	url := baseURL + "/v1/food-logs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create save request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute save request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read save response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return fmt.Errorf("save entries failed with status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
