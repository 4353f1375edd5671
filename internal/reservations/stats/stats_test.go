package stats

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	entries := []Entry{
		{Operation: "reserve", Outcome: "ok"},
		{Operation: "reserve", Outcome: "ok"},
		{Operation: "reserve", Outcome: "conflict"},
		{Operation: "confirm", Outcome: "ok"},
	}
	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()
			if err := s.Record(t.Context(), e); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		}(e)
	}
	wg.Wait()

	summary, err := s.Summary(t.Context())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Total["ok"] != 3 || summary.Total["conflict"] != 1 {
		t.Errorf("Total = %v", summary.Total)
	}
	if summary.ByOperation["reserve"]["ok"] != 2 || summary.ByOperation["confirm"]["ok"] != 1 {
		t.Errorf("ByOperation = %v", summary.ByOperation)
	}

	summary.Total["ok"] = 100
	again, _ := s.Summary(t.Context())
	if again.Total["ok"] != 3 {
		t.Error("Summary() must return a copy")
	}
}

func TestParseOperationHash(t *testing.T) {
	summary := parseOperationHash(map[string]string{
		"reserve:ok":           "4",
		"reserve:lock_timeout": "2",
		"expire:ok":            "1",
		"garbage":              "9",
		"confirm:ok":           "NaN",
	})

	if summary.Total["ok"] != 5 || summary.Total["lock_timeout"] != 2 {
		t.Errorf("Total = %v", summary.Total)
	}
	if _, ok := summary.ByOperation["confirm"]; ok {
		t.Error("malformed counts must be skipped")
	}
	if len(summary.ByOperation) != 2 {
		t.Errorf("ByOperation = %v", summary.ByOperation)
	}
}

func TestRedisStore_KeysAndNilClient(t *testing.T) {
	s := NewRedisStore(nil, WithPrefix(":slots:stats:"), WithTTL(time.Hour))

	if s.totalKey() != "slots:stats:total" {
		t.Errorf("totalKey() = %q", s.totalKey())
	}
	at := time.Date(2026, 3, 1, 9, 5, 59, 0, time.UTC)
	if got := s.minuteKey(at); got != "slots:stats:minute:202603010905" {
		t.Errorf("minuteKey() = %q", got)
	}

	if err := s.Record(t.Context(), Entry{Operation: "reserve", Outcome: "ok"}); err != nil {
		t.Errorf("Record() on nil client error = %v", err)
	}
	if summary, err := s.Summary(t.Context()); err != nil || len(summary.Total) != 0 {
		t.Errorf("Summary() on nil client = %v, %v", summary, err)
	}
}
