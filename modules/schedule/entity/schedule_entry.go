package entity

import (
	"time"

	"schedule-board/core/utils"

	"github.com/google/uuid"
)

// ScheduleEntry is a single occupied cell of the week grid. ID is a string
// rather than uuid.UUID because unconfirmed entries carry a client-local
// placeholder id until the server echo arrives.
type ScheduleEntry struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	WeekStartDate  string    `db:"week_start_date" json:"week_start_date"`
	DayOfWeek      int       `db:"day_of_week" json:"day_of_week"`
	TimeSlotIndex  int       `db:"time_slot_index" json:"time_slot_index"`
	DurationSlots  int       `db:"duration_slots" json:"duration_slots"`
	CourseID       string    `db:"course_id" json:"course_id,omitempty"`
	CourseTitle    string    `db:"course_title" json:"course_title,omitempty"`
	CourseCode     string    `db:"course_code" json:"course_code,omitempty"`
	CourseColor    string    `db:"course_color" json:"course_color,omitempty"`
	InstructorID   string    `db:"instructor_id" json:"instructor_id,omitempty"`
	InstructorName string    `db:"instructor_name" json:"instructor_name,omitempty"`
	Room           string    `db:"room" json:"room,omitempty"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	ColorTag       string    `db:"color_tag" json:"color_tag,omitempty"`
	Version        int       `db:"version" json:"version"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Position returns the grid position key of this entry.
func (e *ScheduleEntry) Position() string {
	return PositionKey(e.DayOfWeek, e.TimeSlotIndex)
}

// IsPersisted reports whether the entry carries a durable server-assigned id.
func (e *ScheduleEntry) IsPersisted() bool {
	return e.ID != "" && !utils.IsTempID(e.ID)
}
