package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/assignmate/assignmate/internal/constants"
	"github.com/assignmate/assignmate/internal/database"
	apierrors "github.com/assignmate/assignmate/internal/errors"
	"github.com/assignmate/assignmate/internal/models"
	"github.com/assignmate/assignmate/internal/services"
	"github.com/assignmate/assignmate/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AssignmentHandlerTestSuite defines the test suite for AssignmentHandler
type AssignmentHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *AssignmentHandler
	router  *gin.Engine
	userID  string
}

// SetupTest runs before each test
func (suite *AssignmentHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Assignment{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	assignmentStore := store.NewGormAssignmentStore(suite.db)
	suite.handler = NewAssignmentHandler(services.NewAssignmentService(assignmentStore))

	gin.SetMode(gin.TestMode)

	user := suite.createTestUser("student@example.com")
	suite.userID = user.ID

	// Stand-in for the session middleware: authenticates every request as
	// suite.userID unless it was cleared.
	suite.router = gin.New()
	suite.router.Use(func(c *gin.Context) {
		if suite.userID != "" {
			c.Set(constants.ContextKeyUserID, suite.userID)
		}
		c.Next()
	})
	suite.router.GET("/api/assignments", suite.handler.ListAssignments)
	suite.router.POST("/api/assignments", suite.handler.CreateAssignment)
	suite.router.GET("/api/assignments/:id", suite.handler.GetAssignment)
	suite.router.PUT("/api/assignments/:id", suite.handler.ReplaceAssignment)
	suite.router.PATCH("/api/assignments/:id", suite.handler.PatchAssignment)
	suite.router.DELETE("/api/assignments/:id", suite.handler.DeleteAssignment)
}

// TearDownTest runs after each test
func (suite *AssignmentHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *AssignmentHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Email:        email,
		Name:         "Test Student",
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *AssignmentHandlerTestSuite) request(method, url string, payload any) *httptest.ResponseRecorder {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		suite.Require().NoError(err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AssignmentHandlerTestSuite) TestCreateAssignment_Success() {
	w := suite.request("POST", "/api/assignments", gin.H{
		"title":    "Essay",
		"subject":  "History",
		"due_date": "2025-01-10T00:00:00Z",
		"priority": "high",
		"status":   "completed", // must be ignored
	})

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var created models.Assignment
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(suite.T(), created.ID)
	assert.Equal(suite.T(), models.StatusPending, created.Status)
	assert.Equal(suite.T(), models.PriorityHigh, created.Priority)
}

func (suite *AssignmentHandlerTestSuite) TestCreateAssignment_ValidationErrors() {
	w := suite.request("POST", "/api/assignments", gin.H{
		"due_date": "2025-01-10T00:00:00Z",
		"priority": "high",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var apiErr apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(suite.T(), apierrors.ErrCodeInvalidInput, apiErr.Code)

	fields := make([]string, len(apiErr.Errors))
	for i, f := range apiErr.Errors {
		fields[i] = f.Field
	}
	assert.ElementsMatch(suite.T(), []string{"title", "subject"}, fields)
}

func (suite *AssignmentHandlerTestSuite) TestListAssignments_Unauthenticated() {
	suite.userID = ""

	w := suite.request("GET", "/api/assignments", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *AssignmentHandlerTestSuite) TestListAssignments_ScopedToCaller() {
	other := suite.createTestUser("other@example.com")
	suite.db.Create(&models.Assignment{
		Title:    "Not mine",
		Subject:  "Math",
		DueDate:  time.Now().Add(24 * time.Hour),
		Priority: models.PriorityLow,
		Status:   models.StatusPending,
		UserID:   other.ID,
	})

	w := suite.request("POST", "/api/assignments", gin.H{
		"title":    "Mine",
		"subject":  "History",
		"due_date": "2025-01-10T00:00:00Z",
		"priority": "low",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request("GET", "/api/assignments", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var assignments []models.Assignment
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &assignments))
	suite.Require().Len(assignments, 1)
	assert.Equal(suite.T(), "Mine", assignments[0].Title)
	assert.Equal(suite.T(), suite.userID, assignments[0].UserID)
}

func (suite *AssignmentHandlerTestSuite) TestPatchAssignment_OtherUsersRecordIs404() {
	other := suite.createTestUser("other@example.com")
	foreign := &models.Assignment{
		Title:    "Not mine",
		Subject:  "Math",
		DueDate:  time.Now().Add(24 * time.Hour),
		Priority: models.PriorityLow,
		Status:   models.StatusPending,
		UserID:   other.ID,
	}
	suite.db.Create(foreign)

	w := suite.request("PATCH", "/api/assignments/"+foreign.ID, gin.H{"status": "completed"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("PATCH", "/api/assignments/no-such-id", gin.H{"status": "completed"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *AssignmentHandlerTestSuite) TestPutAssignment_ValidationFailure() {
	w := suite.request("POST", "/api/assignments", gin.H{
		"title":    "Essay",
		"subject":  "History",
		"due_date": "2025-01-10T00:00:00Z",
		"priority": "high",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	var created models.Assignment
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))

	w = suite.request("PUT", "/api/assignments/"+created.ID, gin.H{
		"title":    "Essay v2",
		"subject":  "History",
		"due_date": "not-a-date",
		"priority": "high",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestAssignmentLifecycle walks the full create, patch, list, delete flow.
func (suite *AssignmentHandlerTestSuite) TestAssignmentLifecycle() {
	w := suite.request("POST", "/api/assignments", gin.H{
		"title":    "Essay",
		"subject":  "History",
		"due_date": "2025-01-10T00:00:00Z",
		"priority": "high",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	var created models.Assignment
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	suite.Require().NotEmpty(created.ID)
	assert.Equal(suite.T(), models.StatusPending, created.Status)
	assert.Equal(suite.T(), models.PriorityHigh, created.Priority)

	time.Sleep(10 * time.Millisecond)

	w = suite.request("PATCH", "/api/assignments/"+created.ID, gin.H{"status": "completed"})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request("GET", "/api/assignments", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var assignments []models.Assignment
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &assignments))
	suite.Require().Len(assignments, 1)
	assert.Equal(suite.T(), models.StatusCompleted, assignments[0].Status)
	assert.True(suite.T(), assignments[0].UpdatedAt.After(assignments[0].CreatedAt))

	w = suite.request("DELETE", "/api/assignments/"+created.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request("GET", "/api/assignments", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &assignments))
	assert.Empty(suite.T(), assignments)

	// Deleting again reports not found.
	w = suite.request("DELETE", "/api/assignments/"+created.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *AssignmentHandlerTestSuite) TestDashboardEndpoint() {
	dashboardHandler := NewDashboardHandler(services.NewAssignmentService(store.NewGormAssignmentStore(suite.db)))
	suite.router.GET("/api/dashboard", dashboardHandler.GetDashboard)
	suite.router.GET("/api/calendar", dashboardHandler.GetCalendar)

	due := time.Now().Add(48 * time.Hour).UTC()
	w := suite.request("POST", "/api/assignments", gin.H{
		"title":    "Essay",
		"subject":  "History",
		"due_date": due.Format(time.RFC3339),
		"priority": "high",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request("GET", "/api/dashboard", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var summary services.DashboardSummary
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(suite.T(), 1, summary.Total)
	assert.Equal(suite.T(), 1, summary.Pending)
	suite.Require().Len(summary.Upcoming, 1)

	url := fmt.Sprintf("/api/calendar?year=%d&month=%d", due.Year(), int(due.Month()))
	w = suite.request("GET", url, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var calendar struct {
		Year  int                    `json:"year"`
		Month int                    `json:"month"`
		Days  []services.CalendarDay `json:"days"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &calendar))
	assert.Equal(suite.T(), due.Year(), calendar.Year)

	found := 0
	for _, day := range calendar.Days {
		found += len(day.Assignments)
	}
	assert.Equal(suite.T(), 1, found)
}

func TestAssignmentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AssignmentHandlerTestSuite))
}
