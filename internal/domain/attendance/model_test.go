package attendance_test

import (
	"testing"
	"time"

	"clubhouse/internal/domain/attendance"
)

func TestRecord_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		record  attendance.Record
		wantErr error
	}{
		{
			name: "valid self check-in",
			record: attendance.Record{
				ID:          "att-1",
				SessionID:   "sess-1",
				AthleteID:   "ath-1",
				CheckedInAt: now,
				Method:      attendance.MethodSelf,
			},
			wantErr: nil,
		},
		{
			name: "valid coach check-in",
			record: attendance.Record{
				ID:          "att-2",
				SessionID:   "sess-1",
				AthleteID:   "ath-2",
				CheckedInAt: now,
				Method:      attendance.MethodCoach,
				RecordedBy:  "acct-coach",
			},
			wantErr: nil,
		},
		{
			name: "missing session",
			record: attendance.Record{
				AthleteID:   "ath-1",
				CheckedInAt: now,
				Method:      attendance.MethodSelf,
			},
			wantErr: attendance.ErrNoSession,
		},
		{
			name: "missing athlete",
			record: attendance.Record{
				SessionID:   "sess-1",
				CheckedInAt: now,
				Method:      attendance.MethodSelf,
			},
			wantErr: attendance.ErrNoAthlete,
		},
		{
			name: "zero check-in time",
			record: attendance.Record{
				SessionID: "sess-1",
				AthleteID: "ath-1",
				Method:    attendance.MethodSelf,
			},
			wantErr: attendance.ErrNoCheckInTime,
		},
		{
			name: "unknown method",
			record: attendance.Record{
				SessionID:   "sess-1",
				AthleteID:   "ath-1",
				CheckedInAt: now,
				Method:      "kiosk",
			},
			wantErr: attendance.ErrInvalidMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.record.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_IsSelf(t *testing.T) {
	self := attendance.Record{Method: attendance.MethodSelf}
	if !self.IsSelf() {
		t.Error("IsSelf() = false for self check-in, want true")
	}

	coach := attendance.Record{Method: attendance.MethodCoach}
	if coach.IsSelf() {
		t.Error("IsSelf() = true for coach check-in, want false")
	}
}
