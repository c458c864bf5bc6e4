package dto

type CreateScheduleRequest struct {
	WeekStartDate  string `json:"week_start_date"`
	DayOfWeek      int    `json:"day_of_week"`
	TimeSlotIndex  int    `json:"time_slot_index"`
	DurationSlots  int    `json:"duration_slots"`
	CourseID       string `json:"course_id"`
	CourseTitle    string `json:"course_title"`
	CourseCode     string `json:"course_code"`
	CourseColor    string `json:"course_color"`
	InstructorID   string `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	Room           string `json:"room"`
	Notes          string `json:"notes"`
	ColorTag       string `json:"color_tag"`
}

type UpdateScheduleRequest struct {
	DayOfWeek      int    `json:"day_of_week"`
	TimeSlotIndex  int    `json:"time_slot_index"`
	DurationSlots  int    `json:"duration_slots"`
	CourseID       string `json:"course_id"`
	CourseTitle    string `json:"course_title"`
	CourseCode     string `json:"course_code"`
	CourseColor    string `json:"course_color"`
	InstructorID   string `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	Room           string `json:"room"`
	Notes          string `json:"notes"`
	ColorTag       string `json:"color_tag"`
	// Version is the version the client last saw; the update only lands when
	// it still matches.
	Version int `json:"version"`
}
