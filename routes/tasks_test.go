package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/models"
	"qqueue-app/qqueue/services"
	"qqueue-app/qqueue/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type taskRouterFixture struct {
	router *gin.Engine
	db     *database.Database
	auth   *testutils.MockAuthService
}

func setupTaskRouter(t *testing.T) *taskRouterFixture {
	gin.SetMode(gin.TestMode)
	db := testutils.SetupTestDB(t)
	auth := testutils.NewMockAuthService()

	router := gin.New()
	RegisterTaskRoutes(router, db, services.NewTaskService(5), services.NewCommentService(), auth)

	return &taskRouterFixture{router: router, db: db, auth: auth}
}

func (f *taskRouterFixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateTaskRoute(t *testing.T) {
	f := setupTaskRouter(t)
	alice := testutils.CreateTestUser(t, f.db, "alice")
	token := f.auth.TokenFor(alice.ID)

	input := models.TaskInput{
		Summary:        "Mow the lawn",
		Detail:         "Front and back, bag the clippings",
		RewardAmount:   40,
		RewardCurrency: "USD",
		DueBy:          time.Now().UTC().AddDate(0, 0, 3),
	}

	w := f.request(t, http.MethodPost, "/api/v1/tasks", token, input)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Task
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Mow the lawn", created.Summary)
	assert.Equal(t, alice.ID, created.RequestedBy)

	// No token, no task.
	w = f.request(t, http.MethodPost, "/api/v1/tasks", "", input)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A past due date is a validation error.
	input.DueBy = time.Now().UTC().AddDate(0, 0, -3)
	w = f.request(t, http.MethodPost, "/api/v1/tasks", token, input)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskRouteVisibility(t *testing.T) {
	f := setupTaskRouter(t)
	alice := testutils.CreateTestUser(t, f.db, "alice")
	bob := testutils.CreateTestUser(t, f.db, "bob")
	carol := testutils.CreateTestUser(t, f.db, "carol")
	task := testutils.CreateTestTask(t, f.db, alice, "Visible task")

	path := "/api/v1/tasks/" + task.ID.String()

	// Anonymous detail requests are redirected to the listing.
	w := f.request(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/tasks", w.Header().Get("Location"))

	// Any authenticated user sees the open task.
	w = f.request(t, http.MethodGet, path, f.auth.TokenFor(carol.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var view models.TaskView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.TaskOpen, view.Status)
	assert.Contains(t, view.Actions, models.ActionAccept)

	// After bob accepts, carol gets the same redirect as an anonymous viewer.
	w = f.request(t, http.MethodPost, path+"/accept", f.auth.TokenFor(bob.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, http.MethodGet, path, f.auth.TokenFor(carol.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/tasks", w.Header().Get("Location"))

	// A missing task is a plain 404 for parties and strangers alike.
	w = f.request(t, http.MethodGet, "/api/v1/tasks/00000000-0000-0000-0000-000000000000", f.auth.TokenFor(alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskTransitionRoutes(t *testing.T) {
	f := setupTaskRouter(t)
	alice := testutils.CreateTestUser(t, f.db, "alice")
	bob := testutils.CreateTestUser(t, f.db, "bob")
	task := testutils.CreateTestTask(t, f.db, alice, "Lifecycle task")

	base := "/api/v1/tasks/" + task.ID.String()
	aliceToken := f.auth.TokenFor(alice.ID)
	bobToken := f.auth.TokenFor(bob.ID)

	// The requester cannot accept their own task.
	w := f.request(t, http.MethodPost, base+"/accept", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	steps := []struct {
		path  string
		token string
	}{
		{base + "/accept", bobToken},
		{base + "/complete", bobToken},
		{base + "/reject", aliceToken},
		{base + "/complete", bobToken},
		{base + "/approve", aliceToken},
	}
	for _, step := range steps {
		w := f.request(t, http.MethodPost, step.path, step.token, nil)
		assert.Equal(t, http.StatusOK, w.Code, "POST %s", step.path)
	}

	var final models.Task
	assert.NoError(t, f.db.DB.First(&final, "id = ?", task.ID).Error)
	assert.Equal(t, models.TaskApproved, final.Status())

	// Approved is terminal.
	w = f.request(t, http.MethodPost, base+"/release", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateAndDeleteTaskRoutes(t *testing.T) {
	f := setupTaskRouter(t)
	alice := testutils.CreateTestUser(t, f.db, "alice")
	bob := testutils.CreateTestUser(t, f.db, "bob")
	task := testutils.CreateTestTask(t, f.db, alice, "Editable task")

	path := "/api/v1/tasks/" + task.ID.String()

	w := f.request(t, http.MethodPut, path, f.auth.TokenFor(alice.ID), map[string]string{"summary": "Renamed task"})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Task
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed task", updated.Summary)
	assert.Equal(t, task.Detail, updated.Detail)

	// Non-requesters cannot edit or delete.
	w = f.request(t, http.MethodPut, path, f.auth.TokenFor(bob.ID), map[string]string{"summary": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.request(t, http.MethodDelete, path, f.auth.TokenFor(bob.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.request(t, http.MethodDelete, path, f.auth.TokenFor(alice.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.request(t, http.MethodDelete, path, f.auth.TokenFor(alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskListRoute(t *testing.T) {
	f := setupTaskRouter(t)
	alice := testutils.CreateTestUser(t, f.db, "alice")
	for i := 0; i < 7; i++ {
		testutils.CreateTestTask(t, f.db, alice, fmt.Sprintf("Task %d", i))
	}

	// Anonymous listing is the bounded teaser.
	w := f.request(t, http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var anonList models.TaskList
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &anonList))
	assert.Len(t, anonList.Teaser, 5)
	assert.Empty(t, anonList.Open)

	// Authenticated listing carries the partitions.
	w = f.request(t, http.MethodGet, "/api/v1/tasks", f.auth.TokenFor(alice.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list models.TaskList
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Teaser)
	assert.Len(t, list.Open, 7)
	assert.Len(t, list.Requested, 7)
}

func TestTaskCommentRoutes(t *testing.T) {
	f := setupTaskRouter(t)
	alice := testutils.CreateTestUser(t, f.db, "alice")
	bob := testutils.CreateTestUser(t, f.db, "bob")
	task := testutils.CreateTestTask(t, f.db, alice, "Discussed task")

	path := "/api/v1/tasks/" + task.ID.String() + "/comments"

	w := f.request(t, http.MethodPost, path, f.auth.TokenFor(bob.ID), map[string]string{"text": "I can help"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodPost, path, f.auth.TokenFor(bob.ID), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.request(t, http.MethodPost, path, "", map[string]string{"text": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.request(t, http.MethodGet, path, f.auth.TokenFor(alice.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var comments []models.Comment
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	assert.Len(t, comments, 1)
	assert.Equal(t, "I can help", comments[0].Text)

	// The thread is masked from anonymous viewers.
	w = f.request(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}
