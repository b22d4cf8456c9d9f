package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

// Actions recorded in the user action log.
const (
	ActionRegister        = "register"
	ActionLogin           = "login"
	ActionGoogleLogin     = "google_login"
	ActionPasswordReset   = "password_reset"
	ActionPasswordChange  = "password_change"
	ActionProfileUpdate   = "profile_update"
	ActionAvatarUpload    = "avatar_upload"
	ActionGoalCreate      = "goal_create"
	ActionGoalUpdate      = "goal_update"
	ActionGoalDelete      = "goal_delete"
	ActionProgressAdd     = "progress_add"
	ActionWorkoutCreate   = "workout_create"
	ActionWorkoutUpdate   = "workout_update"
	ActionWorkoutDelete   = "workout_delete"
	ActionNutritionCreate = "nutrition_create"
	ActionNutritionUpdate = "nutrition_update"
	ActionNutritionDelete = "nutrition_delete"
	ActionUserStatus      = "admin_user_status"
	ActionUserDelete      = "admin_user_delete"
	ActionRoleAssign      = "admin_role_assign"
	ActionRoleRemove      = "admin_role_remove"
	ActionRoleManage      = "admin_role_manage"
	ActionCatalogManage   = "admin_catalog_manage"
)

// ActionRecorder appends to the action log.
type ActionRecorder interface {
	Record(ctx context.Context, userID uint, action, details, ip string)
}

type ActionLogService struct{ db *gorm.DB }

func NewActionLogService(db *gorm.DB) *ActionLogService { return &ActionLogService{db: db} }

// Record never fails the calling operation; a write error is only logged.
func (s *ActionLogService) Record(ctx context.Context, userID uint, action, details, ip string) {
	entry := &models.UserActionLog{UserID: userID, Action: action, Details: details, IPAddress: ip}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warn("action log write failed",
			zap.Uint("user_id", userID), zap.String("action", action), zap.Error(err))
	}
}

type ActionLogFilter struct {
	PageQuery
	UserID uint   `form:"user_id"`
	Action string `form:"action"`
}

func (s *ActionLogService) List(ctx context.Context, f ActionLogFilter) (*Paged[models.UserActionLog], error) {
	q := s.db.WithContext(ctx).Model(&models.UserActionLog{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	return paginate[models.UserActionLog](q, f.PageQuery, "created_at DESC, id DESC")
}
