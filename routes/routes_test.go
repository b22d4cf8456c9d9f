package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/strawberrymilktea0604/HealthSync-sub001/config"
	"github.com/strawberrymilktea0604/HealthSync-sub001/controllers"
	"github.com/strawberrymilktea0604/HealthSync-sub001/llm"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

const testSecret = "router-secret"

type cannedCompleter struct{}

func (cannedCompleter) Chat(context.Context, []llm.Message) (string, error) { return "drink water", nil }
func (cannedCompleter) Model() string                                      { return "canned" }

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := config.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := config.Seed(db); err != nil {
		t.Fatal(err)
	}

	hub := services.NewRealtimeHub()
	push := services.NewPushService(db, nil, "")
	notify := services.NewNotificationService(db, hub, push)
	actions := services.NewActionLogService(db)
	perms := services.NewPermissionService(db)
	roles := services.NewRoleService(db, notify, actions)

	r := SetupRouter(Deps{
		JWTSecret:      testSecret,
		Permissions:    perms,
		Users:          perms,
		Auth:           controllers.NewAuthController(services.NewAuthService(db, perms, utils.LogMailer{}, actions, testSecret, time.Hour), nil, "http://localhost:3000", false),
		Profile:        controllers.NewProfileController(services.NewProfileService(db, nil, actions)),
		Goals:          controllers.NewGoalController(services.NewGoalService(db, notify, actions)),
		Workouts:       controllers.NewWorkoutController(services.NewWorkoutService(db, actions)),
		Nutrition:      controllers.NewNutritionController(services.NewNutritionService(db, actions), services.NewFoodRecognitionService(db, nil)),
		Chat:           controllers.NewChatController(services.NewChatService(db, cannedCompleter{}, 10)),
		Notifications:  controllers.NewNotificationController(notify, push, hub, nil),
		Admin:          controllers.NewAdminController(services.NewAdminService(db, perms, actions), services.NewStatisticsService(db), actions),
		UserManagement: controllers.NewUserManagementController(roles),
	})
	return &testServer{t: t, db: db, router: r}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in, returning the bearer token and user id.
func (s *testServer) signup(email string) (string, uint) {
	s.t.Helper()
	if w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "password123", "full_name": "Test Person"}); w.Code != http.StatusCreated {
		s.t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "password123"})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		s.t.Fatal(err)
	}
	return res.Token, res.User.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/goals", "/api/userprofile", "/api/workout", "/api/nutrition", "/api/auth/me", "/api/admin/users"} {
		if w := s.do(http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: %d", path, w.Code)
		}
	}
}

func TestGoalFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup("flow@example.com")

	w := s.do(http.MethodPost, "/api/goals", token, gin.H{
		"type": "weight_loss", "target_value": 70, "start_value": 80,
		"start_date": "2026-01-01", "end_date": "2026-12-31",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create goal: %d %s", w.Code, w.Body.String())
	}
	goal := decode[struct {
		ID         uint     `json:"id"`
		StartValue *float64 `json:"start_value"`
	}](t, w)
	if goal.ID == 0 || goal.StartValue == nil || *goal.StartValue != 80 {
		t.Fatalf("goal %+v", goal)
	}

	if w := s.do(http.MethodPost, "/api/goals", token, gin.H{"type": "weight_loss", "target_value": 70, "start_date": "2026-02-01", "end_date": "2026-01-01"}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid goal: %d", w.Code)
	}

	w = s.do(http.MethodPost, fmt.Sprintf("/api/goals/%d/progress", goal.ID), token, gin.H{"value": 70})
	if w.Code != http.StatusCreated {
		t.Fatalf("progress: %d %s", w.Code, w.Body.String())
	}
	res := decode[struct {
		Goal struct {
			Progress      float64 `json:"progress"`
			DerivedStatus string  `json:"derived_status"`
		} `json:"goal"`
	}](t, w)
	if res.Goal.Progress != 100 || res.Goal.DerivedStatus != models.GoalDerivedCompleted {
		t.Fatalf("progress result %+v", res)
	}

	w = s.do(http.MethodGet, "/api/notifications?unread=true", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications: %d", w.Code)
	}
	notes := decode[[]models.Notification](t, w)
	if len(notes) != 1 || notes[0].Type != services.NotifyGoalCompleted {
		t.Fatalf("notifications %+v", notes)
	}

	other, _ := s.signup("other@example.com")
	if w := s.do(http.MethodGet, fmt.Sprintf("/api/goals/%d", goal.ID), other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign goal: %d", w.Code)
	}
}

func TestAdminRoutesRequirePermission(t *testing.T) {
	s := newTestServer(t)
	userToken, userID := s.signup("plain@example.com")
	adminToken, adminID := s.signup("boss@example.com")

	if w := s.do(http.MethodGet, "/api/admin/users", userToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("plain user: %d", w.Code)
	}

	var adminRole models.Role
	s.db.Where("name = ?", models.RoleAdmin).First(&adminRole)
	s.db.Create(&models.UserRole{UserID: adminID, RoleID: adminRole.ID})

	// Permissions are read per request, so the existing token now works.
	w := s.do(http.MethodGet, "/api/admin/users?page_size=1", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: %d %s", w.Code, w.Body.String())
	}
	page := decode[struct {
		Total    int64 `json:"total"`
		PageSize int   `json:"page_size"`
	}](t, w)
	if page.Total != 2 || page.PageSize != 1 {
		t.Fatalf("page %+v", page)
	}

	if w := s.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", userID), adminToken, gin.H{"is_active": false}); w.Code != http.StatusOK {
		t.Fatalf("deactivate: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "plain@example.com", "password": "password123"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("login while disabled: %d", w.Code)
	}

	if w := s.do(http.MethodPost, "/api/admin/exercises", adminToken, gin.H{"name": "Rowing", "category": "cardio", "calories_per_minute": 8}); w.Code != http.StatusCreated {
		t.Fatalf("create exercise: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/admin/statistics", adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("statistics: %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/admin/statistics/registrations?days=7", adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("registrations: %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/admin/action-logs?action="+services.ActionLogin, adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("action logs: %d", w.Code)
	}
	if w := s.do(http.MethodDelete, fmt.Sprintf("/api/admin/usermanagement/users/%d/roles/%d", adminID, adminRole.ID), adminToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("remove last admin: %d", w.Code)
	}
}

func TestDisabledAccountTokenRejected(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signup("gone@example.com")
	goal := gin.H{"type": "weight_loss", "target_value": 70, "start_value": 80, "start_date": "2026-01-01", "end_date": "2026-06-01"}

	if w := s.do(http.MethodGet, "/api/auth/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}

	s.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", false)
	if w := s.do(http.MethodGet, "/api/auth/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me while disabled: %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/goals", token, goal); w.Code != http.StatusUnauthorized {
		t.Fatalf("create goal while disabled: %d", w.Code)
	}

	s.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", true)
	if w := s.do(http.MethodGet, "/api/auth/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("me after reactivation: %d", w.Code)
	}

	s.db.Exec("DELETE FROM user_roles WHERE user_id = ?", userID)
	s.db.Exec("DELETE FROM user_profiles WHERE user_id = ?", userID)
	s.db.Exec("DELETE FROM users WHERE id = ?", userID)
	if w := s.do(http.MethodPost, "/api/goals", token, goal); w.Code != http.StatusUnauthorized {
		t.Fatalf("create goal after delete: %d", w.Code)
	}
}

func TestEmptyListsAreArrays(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup("quiet@example.com")
	for _, path := range []string{"/api/notifications?unread=true", "/api/chat/history"} {
		w := s.do(http.MethodGet, path, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body.String())
		}
		if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
			t.Fatalf("%s: got %s, want []", path, body)
		}
	}
}

func TestGoogleDisabled(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/api/auth/google/login", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("google login: %d", w.Code)
	}
}
