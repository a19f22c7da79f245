package integrity

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"scriptrack/internal/domain"
)

// Auditor runs full-scan consistency sweeps over the record store:
// dependent rows whose parent script is gone ("orphans") and locators
// whose blob is gone ("dangling"). Check mode never mutates; repair mode
// aggregates every finding first and only then acts, so a partial repair
// can only leave findings unrepaired, never half-applied. There is no
// cross-collection transaction: this is an offline maintenance tool, not
// a serving path.
type Auditor struct {
	db        *gorm.DB
	validator *Validator
}

func NewAuditor(db *gorm.DB, validator *Validator) *Auditor {
	return &Auditor{db: db, validator: validator}
}

// CollectionReport summarizes one dependent table.
type CollectionReport struct {
	Collection string  `json:"collection"`
	Total      int64   `json:"total"`
	OrphanIDs  []int64 `json:"orphan_ids,omitempty"`
	Repaired   int     `json:"repaired,omitempty"`
}

// DanglingRef is a persisted locator with no blob behind it.
type DanglingRef struct {
	RecordID int64  `json:"record_id"`
	ScriptID int64  `json:"script_id"`
	Locator  string `json:"locator"`
	Reason   string `json:"reason"`
	Repaired bool   `json:"repaired,omitempty"`
}

// Report is the outcome of one audit run.
type Report struct {
	Scripts        int64              `json:"scripts"`
	Collections    []CollectionReport `json:"collections"`
	DanglingCovers []DanglingRef      `json:"dangling_covers,omitempty"`
	DanglingFiles  []DanglingRef      `json:"dangling_files,omitempty"`
	RepairMode     bool               `json:"repair_mode"`
	RepairErrors   []string           `json:"repair_errors,omitempty"`
}

// Clean reports whether the sweep found nothing wrong.
func (r *Report) Clean() bool {
	for _, c := range r.Collections {
		if len(c.OrphanIDs) > 0 {
			return false
		}
	}
	return len(r.DanglingCovers) == 0 && len(r.DanglingFiles) == 0
}

// dependent tables scanned for orphans, in scan order.
var dependentTables = []struct {
	name  string
	model interface{}
}{
	{"assignments", &domain.Assignment{}},
	{"feedbacks", &domain.Feedback{}},
	{"activities", &domain.Activity{}},
	{"meetings", &domain.Meeting{}},
	{"script_files", &domain.ScriptFile{}},
}

type idPair struct {
	ID       int64
	ScriptID int64
}

// Scope selects which sweeps a run performs.
type Scope string

const (
	ScopeAll     Scope = "all"
	ScopeOrphans Scope = "orphans"
	ScopeFiles   Scope = "files"
)

// Run performs a fresh full scan. Each invocation is stateless; there is
// no incremental checkpointing between runs.
func (a *Auditor) Run(ctx context.Context, scope Scope, repair bool) (*Report, error) {
	report := &Report{RepairMode: repair}

	scriptIDs, err := a.loadScriptIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load script ids: %w", err)
	}
	report.Scripts = int64(len(scriptIDs))

	if scope == ScopeAll || scope == ScopeOrphans {
		if err := a.scanOrphans(ctx, scriptIDs, report); err != nil {
			return nil, err
		}
	}
	if scope == ScopeAll || scope == ScopeFiles {
		if err := a.scanDangling(ctx, report); err != nil {
			return nil, err
		}
	}

	if repair {
		a.repairAll(ctx, report)
	}
	return report, nil
}

func (a *Auditor) loadScriptIDs(ctx context.Context) (map[int64]struct{}, error) {
	var ids []int64
	if err := a.db.WithContext(ctx).Model(&domain.Script{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (a *Auditor) scanOrphans(ctx context.Context, scriptIDs map[int64]struct{}, report *Report) error {
	for _, table := range dependentTables {
		var rows []idPair
		err := a.db.WithContext(ctx).Model(table.model).
			Select("id", "script_id").Find(&rows).Error
		if err != nil {
			return fmt.Errorf("scan %s: %w", table.name, err)
		}

		cr := CollectionReport{Collection: table.name, Total: int64(len(rows))}
		for _, row := range rows {
			if _, ok := scriptIDs[row.ScriptID]; !ok {
				cr.OrphanIDs = append(cr.OrphanIDs, row.ID)
			}
		}
		if len(cr.OrphanIDs) > 0 {
			log.Printf("audit orphans collection=%s count=%d", table.name, len(cr.OrphanIDs))
		}
		report.Collections = append(report.Collections, cr)
	}
	return nil
}

func (a *Auditor) scanDangling(ctx context.Context, report *Report) error {
	var scripts []domain.Script
	err := a.db.WithContext(ctx).
		Where("cover_image_url IS NOT NULL AND cover_image_url <> ''").
		Find(&scripts).Error
	if err != nil {
		return fmt.Errorf("scan covers: %w", err)
	}
	for _, s := range scripts {
		if isExternal(s.CoverImageURL) {
			// external links are a legitimate locator shape and outside
			// blob-audit scope
			continue
		}
		if res := a.validator.Validate(s.CoverImageURL); !res.IsValid {
			report.DanglingCovers = append(report.DanglingCovers, DanglingRef{
				RecordID: s.ID, ScriptID: s.ID, Locator: s.CoverImageURL, Reason: res.Reason,
			})
		}
	}

	var files []domain.ScriptFile
	if err := a.db.WithContext(ctx).Find(&files).Error; err != nil {
		return fmt.Errorf("scan script files: %w", err)
	}
	for _, f := range files {
		if isExternal(f.FileURL) {
			continue
		}
		if res := a.validator.Validate(f.FileURL); !res.IsValid {
			report.DanglingFiles = append(report.DanglingFiles, DanglingRef{
				RecordID: f.ID, ScriptID: f.ScriptID, Locator: f.FileURL, Reason: res.Reason,
			})
		}
	}
	return nil
}

// repairAll acts on findings already collected. Individual failures are
// recorded and the sweep keeps going; they never abort the run.
func (a *Auditor) repairAll(ctx context.Context, report *Report) {
	for i := range report.Collections {
		cr := &report.Collections[i]
		if len(cr.OrphanIDs) == 0 {
			continue
		}
		res := a.db.WithContext(ctx).Where("id IN ?", cr.OrphanIDs).Delete(modelFor(cr.Collection))
		if res.Error != nil {
			report.RepairErrors = append(report.RepairErrors,
				fmt.Sprintf("%s: delete orphans: %v", cr.Collection, res.Error))
			continue
		}
		cr.Repaired = int(res.RowsAffected)
	}

	for i := range report.DanglingCovers {
		ref := &report.DanglingCovers[i]
		err := a.db.WithContext(ctx).Model(&domain.Script{}).
			Where("id = ?", ref.ScriptID).
			Update("cover_image_url", "").Error
		if err != nil {
			report.RepairErrors = append(report.RepairErrors,
				fmt.Sprintf("script %d: clear cover: %v", ref.ScriptID, err))
			continue
		}
		ref.Repaired = true
	}

	for i := range report.DanglingFiles {
		ref := &report.DanglingFiles[i]
		err := a.db.WithContext(ctx).Delete(&domain.ScriptFile{}, ref.RecordID).Error
		if err != nil {
			report.RepairErrors = append(report.RepairErrors,
				fmt.Sprintf("script_file %d: delete: %v", ref.RecordID, err))
			continue
		}
		ref.Repaired = true
	}
}

// VerifyCascade proves the schema-level cascade is live, not just
// declared: it creates a throwaway script with one row in every dependent
// collection, deletes the script, and asserts nothing referencing it
// survives.
func (a *Auditor) VerifyCascade(ctx context.Context) error {
	db := a.db.WithContext(ctx)

	probe := time.Now().UnixMilli()
	writer := domain.User{
		Email: fmt.Sprintf("cascade-probe-%d@invalid", probe),
		Role:  domain.RoleWriter,
		Name:  "cascade probe",
	}
	if err := db.Create(&writer).Error; err != nil {
		return fmt.Errorf("create probe writer: %w", err)
	}
	defer db.Delete(&domain.User{}, writer.ID)

	script := domain.Script{
		Title:    fmt.Sprintf("cascade-probe-%d", probe),
		Status:   domain.ScriptSubmitted,
		WriterID: writer.ID,
	}
	if err := db.Create(&script).Error; err != nil {
		return fmt.Errorf("create probe script: %w", err)
	}

	meeting := domain.Meeting{ScriptID: script.ID, Title: "probe", ScheduledAt: time.Now()}
	deps := []interface{}{
		&domain.Assignment{ScriptID: script.ID, Status: domain.AssignmentPending},
		&domain.Feedback{ScriptID: script.ID, Comment: "probe"},
		&domain.Activity{ScriptID: script.ID, Action: domain.ActivityScriptSubmitted},
		&meeting,
		&domain.ScriptFile{ScriptID: script.ID, FileType: domain.FileScreenplay, FileName: "probe", FileURL: "/api/files/probe", Version: 1, IsLatest: true},
	}
	for _, dep := range deps {
		if err := db.Create(dep).Error; err != nil {
			return fmt.Errorf("create probe dependent: %w", err)
		}
	}
	if err := db.Create(&domain.MeetingParticipant{MeetingID: meeting.ID}).Error; err != nil {
		return fmt.Errorf("create probe participant: %w", err)
	}

	if err := db.Delete(&domain.Script{}, script.ID).Error; err != nil {
		return fmt.Errorf("delete probe script: %w", err)
	}

	var leftovers []string
	for _, table := range dependentTables {
		var n int64
		if err := db.Model(table.model).Where("script_id = ?", script.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("count %s leftovers: %w", table.name, err)
		}
		if n > 0 {
			leftovers = append(leftovers, fmt.Sprintf("%s=%d", table.name, n))
		}
	}
	var pn int64
	if err := db.Model(&domain.MeetingParticipant{}).Where("meeting_id = ?", meeting.ID).Count(&pn).Error; err != nil {
		return fmt.Errorf("count participant leftovers: %w", err)
	}
	if pn > 0 {
		leftovers = append(leftovers, fmt.Sprintf("meeting_participants=%d", pn))
	}

	if len(leftovers) > 0 {
		return fmt.Errorf("cascade incomplete: %s", strings.Join(leftovers, " "))
	}
	return nil
}

func modelFor(collection string) interface{} {
	for _, t := range dependentTables {
		if t.name == collection {
			return t.model
		}
	}
	return nil
}

func isExternal(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}
