package scripts

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scriptrack/internal/database"
	"scriptrack/internal/domain"
	"scriptrack/internal/integrity"
	"scriptrack/internal/storage"
)

func setupService(t *testing.T) (*Service, *gorm.DB, *storage.Local) {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "scripts.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Script{},
		&domain.ScriptFile{},
		&domain.Assignment{},
		&domain.Feedback{},
		&domain.Activity{},
		&domain.Meeting{},
		&domain.MeetingParticipant{},
	))
	require.NoError(t, db.Create(&domain.User{Email: "writer@test.local", Role: domain.RoleWriter, Name: "writer"}).Error)
	require.NoError(t, db.Create(&domain.User{Email: "producer@test.local", Role: domain.RoleProducer, Name: "producer"}).Error)

	primary := storage.NewLocal(t.TempDir())
	store := storage.NewService(nil, primary, nil)
	validator := integrity.NewValidator(primary, nil)

	return NewService(NewRepository(db), store, validator), db, primary
}

// fileHeader builds a real multipart.FileHeader the way gin would hand it
// to the handler.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func submitScript(t *testing.T, s *Service) *domain.Script {
	t.Helper()
	script, err := s.Submit(context.Background(), 1, SubmitScriptRequest{Title: "Take One", Genre: "drama"})
	require.NoError(t, err)
	return script
}

func TestSubmit_CreatesScriptAndActivity(t *testing.T) {
	s, db, _ := setupService(t)

	script := submitScript(t, s)
	assert.Equal(t, domain.ScriptSubmitted, script.Status)
	assert.NotZero(t, script.ID)

	var acts []domain.Activity
	require.NoError(t, db.Where("script_id = ?", script.ID).Find(&acts).Error)
	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActivityScriptSubmitted, acts[0].Action)
}

func TestAttachFile_VersionFlip(t *testing.T) {
	s, db, _ := setupService(t)
	ctx := context.Background()
	script := submitScript(t, s)

	v1, err := s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "screenplay.pdf", []byte("draft one")))
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
	assert.True(t, v1.IsLatest)

	v2, err := s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "screenplay-v2.pdf", []byte("draft two")))
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.True(t, v2.IsLatest)

	var rows []domain.ScriptFile
	require.NoError(t, db.Where("script_id = ?", script.ID).Order("version").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].IsLatest)
	assert.Equal(t, 1, rows[0].Version)
	assert.True(t, rows[1].IsLatest)
	assert.Equal(t, 2, rows[1].Version)

	// at most one latest per (script, type)
	var latest int64
	require.NoError(t, db.Model(&domain.ScriptFile{}).
		Where("script_id = ? AND file_type = ? AND is_latest = ?", script.ID, domain.FileScreenplay, true).
		Count(&latest).Error)
	assert.Equal(t, int64(1), latest)
}

func TestAttachFile_IndependentTypesDoNotFlip(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()
	script := submitScript(t, s)

	sp, err := s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "a.pdf", []byte("x")))
	require.NoError(t, err)
	deck, err := s.AttachFile(ctx, script.ID, 2, domain.FilePitchdeck, fileHeader(t, "b.pdf", []byte("y")))
	require.NoError(t, err)

	assert.Equal(t, 1, sp.Version)
	assert.Equal(t, 1, deck.Version)
	assert.True(t, sp.IsLatest)
	assert.True(t, deck.IsLatest)
}

func TestAttachFile_StoresRetrievableBlob(t *testing.T) {
	s, _, primary := setupService(t)
	script := submitScript(t, s)

	content := []byte("FADE IN:")
	rec, err := s.AttachFile(context.Background(), script.ID, 2, domain.FileTreatment, fileHeader(t, "t.txt", content))
	require.NoError(t, err)

	key, ok := storage.ExtractKey(rec.FileURL)
	require.True(t, ok)
	obj, err := primary.Retrieve(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, content, obj.Data)
	assert.Equal(t, int64(len(content)), rec.Size)
}

func TestAttachFile_Validation(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()
	script := submitScript(t, s)

	_, err := s.AttachFile(ctx, script.ID, 2, "POSTER", fileHeader(t, "p.png", []byte("x")))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "empty.pdf", nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = s.AttachFile(ctx, 424242, 2, domain.FileScreenplay, fileHeader(t, "a.pdf", []byte("x")))
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestSetCover_GuardsDanglingLocator(t *testing.T) {
	s, db, primary := setupService(t)
	ctx := context.Background()
	script := submitScript(t, s)

	err := s.SetCover(ctx, script.ID, 1, "/api/files/abc.png")
	assert.ErrorIs(t, err, ErrDanglingCover)

	require.NoError(t, primary.Store(ctx, "abc.png", []byte("img"), "image/png"))
	require.NoError(t, s.SetCover(ctx, script.ID, 1, "/api/files/abc.png"))

	var got domain.Script
	require.NoError(t, db.First(&got, script.ID).Error)
	assert.Equal(t, "/api/files/abc.png", got.CoverImageURL)
}

func TestDelete_CascadesDependents(t *testing.T) {
	s, db, _ := setupService(t)
	ctx := context.Background()
	script := submitScript(t, s)

	_, err := s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "a.pdf", []byte("x")))
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Assignment{ScriptID: script.ID, ReviewerID: 3}).Error)
	require.NoError(t, db.Create(&domain.Feedback{ScriptID: script.ID, Comment: "notes"}).Error)

	require.NoError(t, s.Delete(ctx, script.ID))

	for _, model := range []interface{}{
		&domain.ScriptFile{}, &domain.Assignment{}, &domain.Feedback{}, &domain.Activity{},
	} {
		var n int64
		require.NoError(t, db.Model(model).Where("script_id = ?", script.ID).Count(&n).Error)
		assert.Zero(t, n)
	}

	err = s.Delete(ctx, script.ID)
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestGet_IncludesLatestFilesOnly(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()
	script := submitScript(t, s)

	_, err := s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "a.pdf", []byte("one")))
	require.NoError(t, err)
	_, err = s.AttachFile(ctx, script.ID, 2, domain.FileScreenplay, fileHeader(t, "b.pdf", []byte("two")))
	require.NoError(t, err)

	got, err := s.Get(ctx, script.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, 2, got.Files[0].Version)

	history, err := s.Files(ctx, script.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
