package domain

import "time"

type FileType string

const (
	FileScreenplay   FileType = "SCREENPLAY"
	FilePitchdeck    FileType = "PITCHDECK"
	FileTreatment    FileType = "TREATMENT"
	FileOnelineOrder FileType = "ONELINE_ORDER"
	FileStoryboard   FileType = "STORYBOARD"
	FileTeamProfile  FileType = "TEAM_PROFILE"
)

// ValidFileType reports whether t is one of the accepted upload tags.
func ValidFileType(t FileType) bool {
	switch t {
	case FileScreenplay, FilePitchdeck, FileTreatment, FileOnelineOrder, FileStoryboard, FileTeamProfile:
		return true
	}
	return false
}

// ScriptFile is one versioned upload for a script. For a given
// (script_id, file_type) pair at most one row has is_latest = true; a new
// upload of the same type flips the previous latest off and inserts
// version = previous + 1 in a single transaction. Rows are never
// hard-deleted except by the parent script's cascade.
type ScriptFile struct {
	ID       int64    `json:"id"`
	ScriptID int64    `json:"script_id" gorm:"index:idx_script_type"`
	FileType FileType `json:"file_type" gorm:"index:idx_script_type"`
	FileName string   `json:"file_name"`
	// FileURL is the locator returned by storage, shaped /api/files/<key>.
	FileURL    string    `json:"file_url"`
	Size       int64     `json:"size"`
	Version    int       `json:"version"`
	IsLatest   bool      `json:"is_latest"`
	UploaderID int64     `json:"uploader_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ScriptFile) TableName() string { return "script_files" }
