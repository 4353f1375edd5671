package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "slotkeeper/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"app error", apperrors.Conflict("slot 3 is HELD"), http.StatusConflict, apperrors.CodeConflict, "slot 3 is HELD"},
		{"too many requests", apperrors.TooManyRequests("queue full"), http.StatusTooManyRequests, apperrors.CodeTooManyRequests, "queue full"},
		{"plain error hides text", errors.New("secret detail"), http.StatusInternalServerError, apperrors.CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError() error = %v", err)
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode || resp.Error != tt.wantMsg {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Requester string `json:"requester"`
	}

	tests := []struct {
		name     string
		body     string
		limit    int64
		wantCode string
	}{
		{"valid", `{"requester":"alice"}`, 0, ""},
		{"empty", ``, 0, apperrors.CodeInvalidInput},
		{"malformed", `{"requester":`, 0, apperrors.CodeInvalidInput},
		{"unknown field", `{"requester":"a","extra":1}`, 0, apperrors.CodeInvalidInput},
		{"trailing object", `{"requester":"a"}{"requester":"b"}`, 0, apperrors.CodeInvalidInput},
		{"too large", `{"requester":"` + strings.Repeat("a", 64) + `"}`, 16, apperrors.CodePayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, tt.limit)
			}

			var p payload
			err := DecodeJSON(req, &p)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				if p.Requester != "alice" {
					t.Errorf("decoded %+v", p)
				}
				return
			}
			if got := apperrors.AsAppError(err).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s (err %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestParseIntList(t *testing.T) {
	got, err := ParseIntList(" 2, 5 ,7")
	if err != nil {
		t.Fatalf("ParseIntList() error = %v", err)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 5 || got[2] != 7 {
		t.Errorf("ParseIntList() = %v", got)
	}

	if got, err := ParseIntList(""); err != nil || got != nil {
		t.Errorf("ParseIntList(\"\") = %v, %v", got, err)
	}
	if _, err := ParseIntList("1,x"); err == nil {
		t.Error("expected error for non-integer entry")
	}
}
