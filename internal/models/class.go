package models

import "time"

// MaxTagsPerClass caps how many discovery tags a class may carry.
const MaxTagsPerClass = 5

// OneDayClass represents a tutor-authored offering under which dated lessons
// are scheduled. Duration is in minutes; Personal is the per-lesson capacity.
type OneDayClass struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	Name      string    `db:"name" json:"name"`
	Duration  int       `db:"duration" json:"duration"`
	Personal  int       `db:"personal" json:"personal"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassTag is a short discovery label attached to a class.
type ClassTag struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFAQ is a question/answer entry attached to a class.
type ClassFAQ struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
