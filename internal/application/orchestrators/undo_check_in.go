package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/attendance"
)

// ErrUndoTooLate is returned when a check-in is undone after the day it
// was recorded.
var ErrUndoTooLate = errors.New("check-ins can only be undone on the day they were recorded")

// AttendanceStoreForUndo is the attendance access undo needs.
type AttendanceStoreForUndo interface {
	GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (attendance.Record, error)
	Delete(ctx context.Context, id string) error
}

// UndoCheckInInput carries input for the undo-check-in orchestrator.
type UndoCheckInInput struct {
	SessionID string
	AthleteID string
	// UndoneBy is the account performing the undo, for the log.
	UndoneBy string
}

// UndoCheckInDeps holds dependencies for UndoCheckIn.
type UndoCheckInDeps struct {
	AttendanceStore AttendanceStoreForUndo
	Now             func() time.Time
	Location        *time.Location
}

// ExecuteUndoCheckIn removes a mistaken check-in. Only allowed on the
// same calendar day the record was made; after that the register is
// history and stays put.
// PRE: a record exists for (SessionID, AthleteID)
// POST: the record is deleted
func ExecuteUndoCheckIn(ctx context.Context, input UndoCheckInInput, deps UndoCheckInDeps) error {
	if input.SessionID == "" {
		return errors.New("session ID is required")
	}
	if input.AthleteID == "" {
		return errors.New("athlete ID is required")
	}

	record, err := deps.AttendanceStore.GetBySessionAndAthlete(ctx, input.SessionID, input.AthleteID)
	if err != nil {
		return errors.New("check-in not found")
	}

	loc := checkInLocation(deps.Location)
	recordedDay := record.CheckedInAt.In(loc).Format("2006-01-02")
	today := deps.Now().In(loc).Format("2006-01-02")
	if recordedDay != today {
		return ErrUndoTooLate
	}

	if err := deps.AttendanceStore.Delete(ctx, record.ID); err != nil {
		return err
	}

	slog.Info("checkin_event", "event", "checkin_undone", "session_id", input.SessionID, "athlete_id", input.AthleteID, "undone_by", input.UndoneBy)
	return nil
}
