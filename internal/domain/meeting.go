package domain

import "time"

// Meeting is a scheduled discussion of a script. Cascade-deleted with the
// script; its participants cascade with the meeting in turn.
type Meeting struct {
	ID          int64     `json:"id"`
	ScriptID    int64     `json:"script_id" gorm:"index"`
	OrganizerID int64     `json:"organizer_id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Script       *Script              `json:"-" gorm:"foreignKey:ScriptID;constraint:OnDelete:CASCADE"`
	Participants []MeetingParticipant `json:"participants,omitempty" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
}

type MeetingParticipant struct {
	ID        int64     `json:"id"`
	MeetingID int64     `json:"meeting_id" gorm:"index"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
