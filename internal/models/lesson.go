package models

import "time"

// TimeOfDayLayout is the wire and storage format for lesson start/end times.
const TimeOfDayLayout = "15:04"

// Lesson is one concrete dated occurrence of a class. StartTime and EndTime
// are clock times in TimeOfDayLayout; EndTime is always derived from StartTime
// plus the owning class duration, never set directly.
type Lesson struct {
	ID                string    `db:"id" json:"id"`
	ClassID           string    `db:"class_id" json:"class_id"`
	LessonDate        time.Time `db:"lesson_date" json:"lesson_date"`
	StartTime         string    `db:"start_time" json:"start_time"`
	EndTime           string    `db:"end_time" json:"end_time"`
	ParticipantNumber int       `db:"participant_number" json:"participant_number"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
