package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		started time.Time
		wantID  string
	}{
		{
			name:    "utc start",
			op:      "Capture",
			started: time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC),
			wantID:  "20240615T143045Z",
		},
		{
			name:    "local start is normalized",
			op:      "Purge",
			started: time.Date(2024, 6, 15, 16, 30, 45, 0, time.FixedZone("CEST", 2*60*60)),
			wantID:  "20240615T143045Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.op, tt.started)

			if op.Name != tt.op {
				t.Errorf("Name = %q, want %q", op.Name, tt.op)
			}
			if op.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", op.ID, tt.wantID)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.Failed() {
				t.Error("Failed() = true for a new operation")
			}
		})
	}
}

func TestOperation_Record(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		errs       []error
		wantStatus string
	}{
		{name: "no errors", errs: nil, wantStatus: "success"},
		{name: "nil errors", errs: []error{nil, nil}, wantStatus: "success"},
		{name: "one failure", errs: []error{nil, boom}, wantStatus: "error"},
		{name: "failure is sticky", errs: []error{boom, nil}, wantStatus: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("Trash", time.Now())
			for _, err := range tt.errs {
				if got := op.Record(err); got != err {
					t.Errorf("Record(%v) = %v, want it passed through", err, got)
				}
			}
			if op.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", op.Status, tt.wantStatus)
			}
		})
	}
}
