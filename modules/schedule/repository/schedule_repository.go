package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"schedule-board/core/database"
	"schedule-board/core/errors"
	"schedule-board/core/logger"
	"schedule-board/modules/schedule/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type ScheduleRepository struct {
	db database.IDatabase
}

func NewScheduleRepository(db database.IDatabase) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListWeek returns all entries of one (organization, week), ordered by day
// then slot.
func (r *ScheduleRepository) ListWeek(ctx context.Context, organizationID uuid.UUID, weekStartDate string) ([]entity.ScheduleEntry, error) {
	query := `
		SELECT * FROM schedule_entries
		WHERE organization_id = $1 AND week_start_date = $2
		ORDER BY day_of_week, time_slot_index
	`
	entries := []entity.ScheduleEntry{}
	err := r.db.SelectContext(ctx, &entries, query, organizationID, weekStartDate)
	if err != nil {
		logger.Error("ScheduleRepository:ListWeek:Error:", err)
		return nil, err
	}
	return entries, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*entity.ScheduleEntry, error) {
	var entry entity.ScheduleEntry
	err := r.db.GetContext(ctx, &entry, `SELECT * FROM schedule_entries WHERE id = $1`, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewAppError(errors.ErrNotFound, "schedule entry not found", err)
		}
		logger.Error("ScheduleRepository:GetByID:Error:", err)
		return nil, err
	}
	return &entry, nil
}

// Insert persists a new entry. A unique violation on the position index is
// surfaced as ErrPositionConflict naming the occupying course.
func (r *ScheduleRepository) Insert(ctx context.Context, entry *entity.ScheduleEntry) (*entity.ScheduleEntry, error) {
	query := `
		INSERT INTO schedule_entries (
			id, organization_id, week_start_date, day_of_week, time_slot_index,
			duration_slots, course_id, course_title, course_code, course_color,
			instructor_id, instructor_name, room, notes, color_tag, version,
			created_at, updated_at
		) VALUES (
			:id, :organization_id, :week_start_date, :day_of_week, :time_slot_index,
			:duration_slots, :course_id, :course_title, :course_code, :course_color,
			:instructor_id, :instructor_name, :room, :notes, :color_tag, :version,
			:created_at, :updated_at
		)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, entry)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, r.positionConflict(ctx, entry)
		}
		logger.Error("ScheduleRepository:Insert:Error:", err)
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&entry.ID); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// UpdateByID applies a conditional update: the write only lands when the
// stored version still matches expectedVersion, otherwise the caller lost
// the update race.
func (r *ScheduleRepository) UpdateByID(ctx context.Context, id string, entry *entity.ScheduleEntry, expectedVersion int) (*entity.ScheduleEntry, error) {
	query := `
		UPDATE schedule_entries SET
			day_of_week = $3, time_slot_index = $4, duration_slots = $5,
			course_id = $6, course_title = $7, course_code = $8, course_color = $9,
			instructor_id = $10, instructor_name = $11, room = $12, notes = $13,
			color_tag = $14, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING *
	`
	var updated entity.ScheduleEntry
	err := r.db.GetContext(ctx, &updated, query,
		id, expectedVersion,
		entry.DayOfWeek, entry.TimeSlotIndex, entry.DurationSlots,
		entry.CourseID, entry.CourseTitle, entry.CourseCode, entry.CourseColor,
		entry.InstructorID, entry.InstructorName, entry.Room, entry.Notes,
		entry.ColorTag,
	)
	if err == nil {
		return &updated, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		logger.Error("ScheduleRepository:UpdateByID:Error:", err)
		return nil, err
	}

	// No row matched: distinguish a missing id from a stale version.
	var exists bool
	checkErr := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM schedule_entries WHERE id = $1)`, id)
	if checkErr != nil {
		logger.Error("ScheduleRepository:UpdateByID:ExistsCheck:Error:", checkErr)
		return nil, checkErr
	}
	if exists {
		return nil, errors.NewAppError(errors.ErrStaleVersion,
			"the schedule was modified by another user", err)
	}
	return nil, errors.NewAppError(errors.ErrNotFound, "schedule entry not found", err)
}

func (r *ScheduleRepository) DeleteByID(ctx context.Context, id string) error {
	err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id)
	if err != nil {
		logger.Error("ScheduleRepository:DeleteByID:Error:", err)
		return err
	}
	return nil
}

// positionConflict builds the conflict error, naming the course currently
// occupying the contested cell when it can be read back.
func (r *ScheduleRepository) positionConflict(ctx context.Context, entry *entity.ScheduleEntry) *errors.AppError {
	var occupant string
	err := r.db.GetContext(ctx, &occupant, `
		SELECT course_title FROM schedule_entries
		WHERE organization_id = $1 AND week_start_date = $2
		  AND day_of_week = $3 AND time_slot_index = $4
	`, entry.OrganizationID, entry.WeekStartDate, entry.DayOfWeek, entry.TimeSlotIndex)
	if err != nil || occupant == "" {
		occupant = "another course"
	}
	return errors.NewAppError(errors.ErrPositionConflict,
		"slot already occupied by "+occupant+"; update or resize it instead", nil)
}
