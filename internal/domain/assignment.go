package domain

import "time"

type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentDone     AssignmentStatus = "done"
)

// Assignment links a script to a reviewer. Cascade-deleted with the script.
type Assignment struct {
	ID         int64            `json:"id"`
	ScriptID   int64            `json:"script_id" gorm:"index"`
	ReviewerID int64            `json:"reviewer_id"`
	AssignerID int64            `json:"assigner_id"`
	Status     AssignmentStatus `json:"status"`
	DueAt      *time.Time       `json:"due_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`

	Script *Script `json:"-" gorm:"foreignKey:ScriptID;constraint:OnDelete:CASCADE"`
}
