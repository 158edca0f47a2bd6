package models

// ClassDocument is the denormalized search-index mirror of a class. It is not
// authoritative: the relational catalog is, and the mirror is patched
// best-effort on each tag or class mutation. A class without a document is a
// normal state, not an error.
type ClassDocument struct {
	ClassID  string   `json:"class_id"`
	Name     string   `json:"name"`
	TutorID  string   `json:"tutor_id"`
	Duration int      `json:"duration"`
	Price    int64    `json:"price"`
	TagList  []string `json:"tag_list"`
}
