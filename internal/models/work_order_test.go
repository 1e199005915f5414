package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWorkOrder_EffectiveTime(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantValid bool
		want      time.Time
	}{
		{
			name:      "createdAt rfc3339",
			payload:   `{"machineId":"m1","createdAt":"2026-10-01T08:30:00.000Z"}`,
			wantValid: true,
			want:      time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC),
		},
		{
			name:      "falls back to _time",
			payload:   `{"machineId":"m1","_time":"2026-09-20T00:00:00Z"}`,
			wantValid: true,
			want:      time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "empty createdAt falls back",
			payload:   `{"machineId":"m1","createdAt":"","_time":"2026-09-21"}`,
			wantValid: true,
			want:      time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "zone-less date-time is local",
			payload:   `{"machineId":"m1","createdAt":"2026-10-01T08:30:00"}`,
			wantValid: true,
			want:      time.Date(2026, 10, 1, 8, 30, 0, 0, time.Local),
		},
		{
			name:      "epoch milliseconds",
			payload:   `{"machineId":"m1","createdAt":1790000000000}`,
			wantValid: true,
			want:      time.UnixMilli(1790000000000),
		},
		{
			name:      "garbage createdAt does not fall back",
			payload:   `{"machineId":"m1","createdAt":"yesterday","_time":"2026-09-21"}`,
			wantValid: false,
		},
		{
			name:      "no timestamp",
			payload:   `{"machineId":"m1"}`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wo WorkOrder
			if err := json.Unmarshal([]byte(tt.payload), &wo); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			got, ok := wo.EffectiveTime()
			if ok != tt.wantValid {
				t.Fatalf("valid = %v, want %v", ok, tt.wantValid)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("time = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackStats(t *testing.T) {
	s := FallbackStats(4)
	if s.TotalMachines != 4 || s.ScheduledMaintenanceCount != 0 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.UptimePercentage != 100 || s.DowntimePercentage != 0 {
		t.Fatalf("unexpected percentages: %+v", s)
	}
	if s.MachinesWithMaintenance == nil {
		t.Fatal("MachinesWithMaintenance should encode as [] not null")
	}

	if e := EmptyLabStats(); e.TotalMachines != 0 || e.UptimePercentage != 100 {
		t.Fatalf("unexpected empty stats: %+v", e)
	}
}
