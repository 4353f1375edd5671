package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/model"
)

func TestReservationClient_WaitForHealthy(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewReservationClient(server.URL)
	if err := c.WaitForHealthy(t.Context(), 5*time.Second); err != nil {
		t.Fatalf("WaitForHealthy() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("health calls = %d, want 2", calls.Load())
	}
}

func TestReservationClient_WaitForHealthyGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewReservationClient(server.URL)
	if err := c.WaitForHealthy(t.Context(), 50*time.Millisecond); err == nil {
		t.Fatal("WaitForHealthy() succeeded against an unhealthy service")
	}
}

func TestReservationClient_SubmitMapsRejections(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"queue full", http.StatusTooManyRequests, reserrors.ErrQueueFull},
		{"engine stopped", http.StatusServiceUnavailable, reserrors.ErrEngineStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get(RequesterHeader) != "alice" {
					t.Errorf("requester header = %q", r.Header.Get(RequesterHeader))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"busy","code":"X"}`))
			}))
			defer server.Close()

			_, err := NewReservationClient(server.URL).SubmitReservation(t.Context(), &model.ReservationRequest{
				Requester: "alice",
				SlotIDs:   []int{1},
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitReservation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReservationClient_FindHold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("requester") != "bob" || q.Get("slots") != "2,5" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"h-9","requester":"bob","slots":[2,5]}}`))
	}))
	defer server.Close()

	c := NewReservationClient(server.URL)
	hold, err := c.FindHold(t.Context(), "bob", []int{2, 5})
	if err != nil {
		t.Fatalf("FindHold() error = %v", err)
	}
	if hold.ID != "h-9" || len(hold.Slots) != 2 {
		t.Errorf("FindHold() = %+v", hold)
	}

	if _, err := c.FindHold(t.Context(), "carol", []int{1}); !errors.Is(err, reserrors.ErrHoldNotFound) {
		t.Errorf("FindHold() error = %v, want %v", err, reserrors.ErrHoldNotFound)
	}
}
