package domain

import "time"

// Feedback is a reviewer's note on a script. Cascade-deleted with the script.
type Feedback struct {
	ID         int64     `json:"id"`
	ScriptID   int64     `json:"script_id" gorm:"index"`
	ReviewerID int64     `json:"reviewer_id"`
	Rating     int       `json:"rating,omitempty"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`

	Script *Script `json:"-" gorm:"foreignKey:ScriptID;constraint:OnDelete:CASCADE"`
}

func (Feedback) TableName() string { return "feedbacks" }
