package models

import "time"

// TutorPayment is one completed transaction on the payment ledger. The ledger
// is append-only; this service only ever reads it.
type TutorPayment struct {
	ID        string    `db:"id" json:"id"`
	PayerID   string    `db:"payer_id" json:"payer_id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	LessonID  *string   `db:"lesson_id" json:"lesson_id,omitempty"`
	Amount    int64     `db:"amount" json:"amount"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
