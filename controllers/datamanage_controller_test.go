package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datamanageapi/config"
	"datamanageapi/models"
	"datamanageapi/services"
	"datamanageapi/utils"
)

type fakeDatamanageService struct {
	getResult    *models.Datamanage
	getErr       error
	listResult   []models.Datamanage
	listTotal    int64
	updateResult *models.Datamanage
	updateErr    error
	deleteErr    error
	createResult *models.Datamanage
	createErr    error

	lastOverride bool
}

func (f *fakeDatamanageService) Get(ctx context.Context, id uint) (*models.Datamanage, error) {
	return f.getResult, f.getErr
}

func (f *fakeDatamanageService) List(ctx context.Context, page, pageSize int) ([]models.Datamanage, int64, error) {
	return f.listResult, f.listTotal, nil
}

func (f *fakeDatamanageService) Create(ctx context.Context, user *models.User, req models.DatamanageCreateRequest) (*models.Datamanage, error) {
	return f.createResult, f.createErr
}

func (f *fakeDatamanageService) Update(ctx context.Context, user *models.User, id uint, req models.DatamanageUpdateRequest, overrideColumns bool) (*models.Datamanage, error) {
	f.lastOverride = overrideColumns
	return f.updateResult, f.updateErr
}

func (f *fakeDatamanageService) Delete(ctx context.Context, user *models.User, id uint) error {
	return f.deleteErr
}

type fakeSessionService struct {
	user *models.User
}

func (f *fakeSessionService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	if f.user == nil {
		return nil, services.ErrUnauthorized
	}
	return f.user, nil
}

func (f *fakeSessionService) Login(ctx context.Context, username string) (*models.User, error) {
	if f.user != nil && f.user.Username == username {
		return f.user, nil
	}
	return nil, services.ErrUnauthorized
}

func (f *fakeSessionService) AllUsers(ctx context.Context) ([]models.User, error) {
	if f.user == nil {
		return nil, nil
	}
	return []models.User{*f.user}, nil
}

func setupRouter(t *testing.T, dm *fakeDatamanageService, sess *fakeSessionService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpiry = time.Hour

	if dm != nil {
		SetDatamanageService(dm)
	}
	if sess == nil {
		sess = &fakeSessionService{user: &models.User{ID: 7, Username: "alice", IsActive: true}}
	}
	SetSessionService(sess)

	router := gin.New()
	v1 := router.Group("/api/v1")
	RegisterDatamanageRoutes(v1)
	RegisterUserRoutes(v1)
	return router
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	token, err := utils.GenerateToken(7, "alice")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestGetDatamanage_OK(t *testing.T) {
	svc := &fakeDatamanageService{
		getResult: &models.Datamanage{ID: 1, Name: "birth_names", UUID: "dm-uuid"},
	}
	router := setupRouter(t, svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/datamanages/1", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "birth_names")
}

func TestGetDatamanage_NotFound(t *testing.T) {
	svc := &fakeDatamanageService{getErr: services.ErrNotFound}
	router := setupRouter(t, svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/datamanages/99", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDatamanage_BadID(t *testing.T) {
	router := setupRouter(t, &fakeDatamanageService{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/datamanages/abc", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatamanageRoutes_RequireToken(t *testing.T) {
	router := setupRouter(t, &fakeDatamanageService{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/datamanages/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateDatamanage_Forbidden(t *testing.T) {
	svc := &fakeDatamanageService{updateErr: services.ErrForbidden}
	router := setupRouter(t, svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPut, "/api/v1/datamanages/1", `{"name":"x"}`))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateDatamanage_ValidationIssues(t *testing.T) {
	svc := &fakeDatamanageService{
		updateErr: &services.ValidationError{Issues: []string{
			"database cannot be changed on an existing datamanage",
			`a datamanage named "taken" already exists in this database`,
		}},
	}
	router := setupRouter(t, svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPut, "/api/v1/datamanages/1", `{"name":"taken","database_id":5}`))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
	assert.Contains(t, w.Body.String(), "database cannot be changed")
}

func TestUpdateDatamanage_OverrideColumnsFlag(t *testing.T) {
	svc := &fakeDatamanageService{
		updateResult: &models.Datamanage{ID: 1, Name: "renamed"},
	}
	router := setupRouter(t, svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPut, "/api/v1/datamanages/1?override_columns=true", `{"name":"renamed"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastOverride)
}

func TestDeleteDatamanage_OK(t *testing.T) {
	router := setupRouter(t, &fakeDatamanageService{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodDelete, "/api/v1/datamanages/1", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted successfully")
}

func TestCreateDatamanage_Created(t *testing.T) {
	svc := &fakeDatamanageService{
		createResult: &models.Datamanage{ID: 5, Name: "orders"},
	}
	router := setupRouter(t, svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/api/v1/datamanages", `{"database_id":1,"name":"orders"}`))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateDatamanage_MissingName(t *testing.T) {
	router := setupRouter(t, &fakeDatamanageService{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodPost, "/api/v1/datamanages", `{"database_id":1}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeImportService struct {
	release chan struct{}
	ctxErr  chan error
}

func (f *fakeImportService) Import(ctx context.Context, user *models.User, payload models.DatamanagePayload, overwrite, forceData bool) (*models.Datamanage, error) {
	<-f.release
	f.ctxErr <- ctx.Err()
	return &models.Datamanage{ID: 9, UUID: payload.UUID}, nil
}

func TestImportDatamanage_AsyncOutlivesResponse(t *testing.T) {
	imp := &fakeImportService{release: make(chan struct{}), ctxErr: make(chan error, 1)}
	SetImportService(imp)
	router := setupRouter(t, &fakeDatamanageService{}, nil)

	payload := strings.Join([]string{
		"version: 1.0.0",
		"uuid: 2cdf0c6d-2a5c-4f20-a15f-0cf41cba1b41",
		"name: birth_names",
		"database_uuid: 50ae2dc5-0a30-46a4-9b5e-7e80dcd03c67",
		"data: http://example.com/birth_names.csv.gz",
	}, "\n")

	reqCtx, cancel := context.WithCancel(context.Background())
	req := authedRequest(t, http.MethodPost, "/api/v1/datamanages/import?async=true", payload)
	req = req.WithContext(reqCtx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	// The HTTP server cancels the request context once the handler returns.
	cancel()

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job_id")

	close(imp.release)
	select {
	case err := <-imp.ctxErr:
		assert.NoError(t, err, "background import must keep running after the 202")
	case <-time.After(2 * time.Second):
		t.Fatal("background import never ran")
	}
}

func TestGetCurrentUser(t *testing.T) {
	router := setupRouter(t, &fakeDatamanageService{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/users/me", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestGetCurrentUserRoles_EmptyNotNull(t *testing.T) {
	sess := &fakeSessionService{user: &models.User{ID: 7, Username: "alice", IsActive: true}}
	router := setupRouter(t, &fakeDatamanageService{}, sess)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/v1/users/me/roles", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"result":[]`)
}

func TestLogin(t *testing.T) {
	sess := &fakeSessionService{user: &models.User{ID: 7, Username: "alice", IsActive: true}}
	router := setupRouter(t, &fakeDatamanageService{}, sess)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"mallory"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
