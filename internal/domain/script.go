package domain

import "time"

type ScriptStatus string

const (
	ScriptSubmitted ScriptStatus = "submitted"
	ScriptAssigned  ScriptStatus = "assigned"
	ScriptInReview  ScriptStatus = "in_review"
	ScriptApproved  ScriptStatus = "approved"
	ScriptRejected  ScriptStatus = "rejected"
)

// Script is the parent entity of the workflow. Every dependent table
// (script_files, assignments, feedbacks, activities, meetings) carries a
// ScriptID with a schema-level ON DELETE CASCADE, so deleting a script
// removes all of its children without application-side bookkeeping.
type Script struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title" validate:"required"`
	Logline  string       `json:"logline,omitempty" gorm:"type:text"`
	Genre    string       `json:"genre,omitempty"`
	Status   ScriptStatus `json:"status"`
	WriterID int64        `json:"writer_id"`

	// CoverImageURL is a locator, not a foreign key. It may go dangling if
	// the blob is removed out-of-band; the auditor nulls it in repair mode.
	CoverImageURL string `json:"cover_image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Writer *User        `json:"writer,omitempty" gorm:"foreignKey:WriterID"`
	Files  []ScriptFile `json:"files,omitempty" gorm:"foreignKey:ScriptID;constraint:OnDelete:CASCADE"`
}
