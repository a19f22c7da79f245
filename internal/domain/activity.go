package domain

import "time"

type ActivityAction string

const (
	ActivityScriptSubmitted ActivityAction = "script_submitted"
	ActivityFileUploaded    ActivityAction = "file_uploaded"
	ActivityCoverChanged    ActivityAction = "cover_changed"
)

// Activity is one entry in a script's audit timeline. Cascade-deleted with
// the script.
type Activity struct {
	ID        int64          `json:"id"`
	ScriptID  int64          `json:"script_id" gorm:"index"`
	ActorID   int64          `json:"actor_id"`
	Action    ActivityAction `json:"action"`
	Detail    string         `json:"detail,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`

	Script *Script `json:"-" gorm:"foreignKey:ScriptID;constraint:OnDelete:CASCADE"`
}

func (Activity) TableName() string { return "activities" }
