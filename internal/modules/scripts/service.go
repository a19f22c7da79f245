package scripts

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"scriptrack/internal/domain"
	"scriptrack/internal/integrity"
	"scriptrack/internal/storage"
)

const MaxFileSize = 50 * 1024 * 1024 // 50 MB

// Service owns the script lifecycle: submission, versioned file uploads,
// cover images and deletion. Uploads go through the storage facade; cover
// locators go through the integrity validator before they are persisted.
type Service struct {
	repo      Repository
	store     *storage.Service
	validator *integrity.Validator
}

func NewService(repo Repository, store *storage.Service, validator *integrity.Validator) *Service {
	return &Service{repo: repo, store: store, validator: validator}
}

func (s *Service) Submit(ctx context.Context, writerID int64, req SubmitScriptRequest) (*domain.Script, error) {
	script := &domain.Script{
		Title:    req.Title,
		Logline:  req.Logline,
		Genre:    req.Genre,
		Status:   domain.ScriptSubmitted,
		WriterID: writerID,
	}
	if err := s.repo.Create(ctx, script); err != nil {
		return nil, fmt.Errorf("create script: %w", err)
	}
	s.logActivity(ctx, script.ID, writerID, domain.ActivityScriptSubmitted, script.Title)
	return script, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Script, error) {
	script, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.repo.LatestFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	script.Files = files
	return script, nil
}

// Delete removes the script; every dependent row disappears through the
// schema cascade. The blobs themselves stay on disk — they are reclaimed
// by the audit tool, not the request path.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AttachFile stores an upload and inserts the next version of the given
// file type. The previous latest of the same (script, type) is flipped
// off inside the same transaction as the insert.
func (s *Service) AttachFile(ctx context.Context, scriptID, uploaderID int64, fileType domain.FileType, fh *multipart.FileHeader) (*domain.ScriptFile, error) {
	if !domain.ValidFileType(fileType) {
		return nil, ErrInvalidFileType
	}
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if _, err := s.repo.GetByID(ctx, scriptID); err != nil {
		return nil, err
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	contentType := http.DetectContentType(data)
	contentType = strings.Split(contentType, ";")[0]

	stored, err := s.store.Save(ctx, data, fh.Filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	record := &domain.ScriptFile{
		ScriptID:   scriptID,
		FileType:   fileType,
		FileName:   fh.Filename,
		FileURL:    stored.URL,
		Size:       stored.Size,
		UploaderID: uploaderID,
	}
	if err := s.repo.InsertVersioned(ctx, record); err != nil {
		// roll the blob back so it does not sit unreferenced
		s.store.Delete(ctx, stored.Key)
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logActivity(ctx, scriptID, uploaderID, domain.ActivityFileUploaded,
		fmt.Sprintf("%s v%d %s", fileType, record.Version, fh.Filename))
	return record, nil
}

func (s *Service) Files(ctx context.Context, scriptID int64) ([]domain.ScriptFile, error) {
	if _, err := s.repo.GetByID(ctx, scriptID); err != nil {
		return nil, err
	}
	return s.repo.ListFiles(ctx, scriptID)
}

// SetCover persists a cover locator after the validator confirms the blob
// exists, so a cover is never knowingly dangling at write time. It can
// still go dangling later if the blob is removed out-of-band; the auditor
// handles that.
func (s *Service) SetCover(ctx context.Context, scriptID, actorID int64, locator string) error {
	if _, err := s.repo.GetByID(ctx, scriptID); err != nil {
		return err
	}
	cleaned := s.validator.ValidateAndClean(locator)
	if cleaned == "" {
		return ErrDanglingCover
	}
	if err := s.repo.UpdateCover(ctx, scriptID, cleaned); err != nil {
		return err
	}
	s.logActivity(ctx, scriptID, actorID, domain.ActivityCoverChanged, cleaned)
	return nil
}

func (s *Service) logActivity(ctx context.Context, scriptID, actorID int64, action domain.ActivityAction, detail string) {
	err := s.repo.AddActivity(ctx, &domain.Activity{
		ScriptID: scriptID,
		ActorID:  actorID,
		Action:   action,
		Detail:   detail,
	})
	if err != nil {
		// timeline is advisory; never fail the operation over it
		log.Printf("activity write script=%d action=%s error=%v", scriptID, action, err)
	}
}
