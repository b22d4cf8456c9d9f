package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

// PermissionService answers authorization questions. Nothing is cached:
// every check reads user_roles and role_permissions.
type PermissionService struct{ db *gorm.DB }

func NewPermissionService(db *gorm.DB) *PermissionService { return &PermissionService{db: db} }

// HasPermission reports whether any role of an active user grants code.
func (s *PermissionService) HasPermission(ctx context.Context, userID uint, code string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.RolePermission{}).
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("user_roles.user_id = ? AND permissions.code = ? AND users.is_active = ?", userID, code, true).
		Count(&n).Error
	return n > 0, err
}

// IsActiveUser is false for deleted accounts as well as deactivated ones.
func (s *PermissionService) IsActiveUser(ctx context.Context, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&n).Error
	return n > 0, err
}

func (s *PermissionService) UserPermissions(ctx context.Context, userID uint) ([]string, error) {
	codes := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.Permission{}).
		Distinct("permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("permissions.code").
		Pluck("permissions.code", &codes).Error
	return codes, err
}

func (s *PermissionService) UserRoles(ctx context.Context, userID uint) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	return names, err
}
