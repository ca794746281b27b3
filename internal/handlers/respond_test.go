package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maraude-bknd/internal/services"
	"maraude-bknd/internal/validate"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"duplicate report", services.ErrDuplicateReport, http.StatusConflict},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"field errors", validate.FieldErrors{"email": "is required"}, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)

			if rec.Code != tc.want {
				t.Errorf("got status %d, want %d", rec.Code, tc.want)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["success"] != false {
				t.Errorf("expected success=false, got %v", body["success"])
			}
		})
	}
}

func TestValidationErrorsIncludeFieldDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, validate.FieldErrors{"email": "must be a valid email address"})

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Errors["email"] != "must be a valid email address" {
		t.Errorf("field detail missing, got %v", body.Errors)
	}
}

func TestMaraudeScheduleExclusivity(t *testing.T) {
	day := 3
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		req  maraudeReq
		want bool
	}{
		{"recurring with day", maraudeReq{IsRecurring: true, DayOfWeek: &day}, true},
		{"recurring without day", maraudeReq{IsRecurring: true}, false},
		{"recurring with both", maraudeReq{IsRecurring: true, DayOfWeek: &day, ScheduledDate: &date}, false},
		{"one-off with date", maraudeReq{ScheduledDate: &date}, true},
		{"one-off without date", maraudeReq{}, false},
		{"one-off with day", maraudeReq{DayOfWeek: &day, ScheduledDate: &date}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.scheduleValid(); got != tc.want {
				t.Errorf("scheduleValid() = %v, want %v", got, tc.want)
			}
		})
	}
}
