package syncrun_test

import (
	"testing"
	"time"

	"gymcrm/internal/domain/syncrun"
)

// TestRunValidation tests validation of Run.
func TestRunValidation(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		run     syncrun.Run
		wantErr bool
	}{
		{"valid", syncrun.Run{ID: "r1", StartedAt: start, FinishedAt: start.Add(time.Second)}, false},
		{"missing id", syncrun.Run{StartedAt: start, FinishedAt: start}, true},
		{"missing times", syncrun.Run{ID: "r1"}, true},
		{"finished before start", syncrun.Run{ID: "r1", StartedAt: start, FinishedAt: start.Add(-time.Second)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestRunSucceededAndDuration tests the derived accessors.
func TestRunSucceededAndDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := syncrun.Run{ID: "r1", StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	if !r.Succeeded() {
		t.Error("run without error should succeed")
	}
	if r.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %v", r.Duration())
	}
	r.Error = "GET /pagos: status 502"
	if r.Succeeded() {
		t.Error("run with error should not succeed")
	}
}
