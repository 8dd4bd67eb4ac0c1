package foodlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func TestSaveEntriesPostsContext(t *testing.T) {
	t.Parallel()

	var got saveRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/food-logs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode save request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client(), Tokens: staticToken("demo")}
	if err := c.SaveEntries(context.Background(), "2025-05-14", "breakfast", []string{"local:abc", "42"}); err != nil {
		t.Fatalf("save entries: %v", err)
	}
	if got.Date != "2025-05-14" || got.MealSlot != "breakfast" || len(got.FoodIDs) != 2 {
		t.Fatalf("unexpected save payload: %+v", got)
	}
}

func TestSaveEntriesReportsFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "write quota exceeded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client(), Tokens: staticToken("demo")}
	if err := c.SaveEntries(context.Background(), "2025-05-14", "lunch", []string{"7"}); err == nil {
		t.Fatalf("expected error for failed save")
	}
}

func TestSaveEntriesNoopOnEmptyIDs(t *testing.T) {
	t.Parallel()

	c := &Client{BaseURL: "http://127.0.0.1:0", Tokens: staticToken("demo")}
	if err := c.SaveEntries(context.Background(), "2025-05-14", "dinner", nil); err != nil {
		t.Fatalf("empty id set must be a no-op, got %v", err)
	}
}
