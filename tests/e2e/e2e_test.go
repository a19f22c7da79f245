package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scriptrack/internal/database"
	"scriptrack/internal/domain"
	"scriptrack/internal/integrity"
	"scriptrack/internal/middleware"
	"scriptrack/internal/modules/files"
	"scriptrack/internal/modules/scripts"
	jwtsvc "scriptrack/internal/pkg/jwt"
	"scriptrack/internal/storage"
)

type suite struct {
	router  *gin.Engine
	db      *gorm.DB
	jwt     *jwtsvc.Service
	primary *storage.Local
	auditor *integrity.Auditor
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// setup wires the full stack the way cmd/api does, on a temp sqlite store
// and temp blob directories.
func setup(t *testing.T) *suite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(filepath.Join(t.TempDir(), "e2e.db"))
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
	require.NoError(t, db.Create(&domain.User{Email: "producer@e2e.local", Role: domain.RoleProducer, Name: "producer"}).Error)
	require.NoError(t, db.Create(&domain.User{Email: "writer@e2e.local", Role: domain.RoleWriter, Name: "writer"}).Error)

	primary := storage.NewLocal(t.TempDir())
	legacy := storage.NewLocal(t.TempDir())
	store := storage.NewService(nil, primary, legacy)
	validator := integrity.NewValidator(primary, legacy)

	j := jwtsvc.New("e2e-secret", time.Hour)

	router := gin.New()
	api := router.Group("/api")
	files.RegisterRoutes(api, files.NewHandler(files.NewResolver(store)))

	protected := api.Group("/")
	protected.Use(middleware.Auth(j))
	scriptsService := scripts.NewService(scripts.NewRepository(db), store, validator)
	scripts.RegisterRoutes(protected, scripts.NewHandler(scriptsService),
		middleware.RequireRole(domain.RoleProducer, domain.RoleAdmin))

	return &suite{
		router:  router,
		db:      db,
		jwt:     j,
		primary: primary,
		auditor: integrity.NewAuditor(db, validator),
	}
}

func (s *suite) token(t *testing.T, userID int64, role domain.UserRole) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func (s *suite) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *suite) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(body).Encode(payload))
	return s.do(t, method, path, token, body, "application/json")
}

func parse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func multipartUpload(t *testing.T, fileType string, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("file_type", fileType))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestScriptLifecycle(t *testing.T) {
	s := setup(t)
	producer := s.token(t, 1, domain.RoleProducer)

	// submit
	w := s.doJSON(t, http.MethodPost, "/api/scripts", producer,
		gin.H{"title": "The Long Take", "genre": "drama"})
	require.Equal(t, http.StatusCreated, w.Code)
	var script domain.Script
	require.NoError(t, json.Unmarshal(parse(t, w).Data, &script))
	require.NotZero(t, script.ID)

	// upload screenplay v1, then a revised v2
	base := fmt.Sprintf("/api/scripts/%d/files", script.ID)
	body, ct := multipartUpload(t, "SCREENPLAY", "screenplay.pdf", []byte("draft one"))
	w = s.do(t, http.MethodPost, base, producer, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body, ct = multipartUpload(t, "SCREENPLAY", "screenplay-v2.pdf", []byte("draft two"))
	w = s.do(t, http.MethodPost, base, producer, body, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	var v2 domain.ScriptFile
	require.NoError(t, json.Unmarshal(parse(t, w).Data, &v2))
	assert.Equal(t, 2, v2.Version)
	assert.True(t, v2.IsLatest)

	// file history holds both versions, exactly one latest
	w = s.do(t, http.MethodGet, base, producer, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []domain.ScriptFile
	require.NoError(t, json.Unmarshal(parse(t, w).Data, &history))
	require.Len(t, history, 2)
	assert.False(t, history[0].IsLatest)
	assert.True(t, history[1].IsLatest)

	// the uploaded blob is served back through the public route
	w = s.do(t, http.MethodGet, v2.FileURL, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "draft two", w.Body.String())

	// the same blob through the legacy link shape
	key, ok := storage.ExtractKey(v2.FileURL)
	require.True(t, ok)
	w = s.do(t, http.MethodGet, "/api/files/uploads/"+key, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "draft two", w.Body.String())

	// delete cascades everything
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/scripts/%d", script.ID), producer, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var n int64
	require.NoError(t, s.db.Model(&domain.ScriptFile{}).Where("script_id = ?", script.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&domain.Activity{}).Where("script_id = ?", script.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeleteRequiresRole(t *testing.T) {
	s := setup(t)
	producer := s.token(t, 1, domain.RoleProducer)
	writer := s.token(t, 2, domain.RoleWriter)

	w := s.doJSON(t, http.MethodPost, "/api/scripts", writer, gin.H{"title": "Mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	var script domain.Script
	require.NoError(t, json.Unmarshal(parse(t, w).Data, &script))

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/scripts/%d", script.ID), writer, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/scripts/%d", script.ID), producer, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCoverGuardAndAudit(t *testing.T) {
	s := setup(t)
	producer := s.token(t, 1, domain.RoleProducer)

	w := s.doJSON(t, http.MethodPost, "/api/scripts", producer, gin.H{"title": "Covered"})
	require.Equal(t, http.StatusCreated, w.Code)
	var script domain.Script
	require.NoError(t, json.Unmarshal(parse(t, w).Data, &script))

	coverPath := fmt.Sprintf("/api/scripts/%d/cover", script.ID)

	// dangling locator is rejected at write time
	w = s.doJSON(t, http.MethodPut, coverPath, producer, gin.H{"url": "/api/files/abc.png"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := parse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DANGLING_LOCATOR", resp.Error.Code)

	// store the blob, set the cover, then remove the blob out-of-band
	require.NoError(t, s.primary.Store(context.Background(), "abc.png", []byte("img"), "image/png"))
	w = s.doJSON(t, http.MethodPut, coverPath, producer, gin.H{"url": "/api/files/abc.png"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, s.primary.Delete(context.Background(), "abc.png"))

	report, err := s.auditor.Run(context.Background(), integrity.ScopeFiles, true)
	require.NoError(t, err)
	require.Len(t, report.DanglingCovers, 1)

	var got domain.Script
	require.NoError(t, s.db.First(&got, script.ID).Error)
	assert.Empty(t, got.CoverImageURL)
}

func TestUnauthenticatedRejected(t *testing.T) {
	s := setup(t)
	w := s.doJSON(t, http.MethodPost, "/api/scripts", "", gin.H{"title": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
