package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type RoleService struct {
	db      *gorm.DB
	notify  Notifier
	actions ActionRecorder
}

func NewRoleService(db *gorm.DB, notify Notifier, actions ActionRecorder) *RoleService {
	return &RoleService{db: db, notify: notify, actions: actions}
}

type RoleView struct {
	models.Role
	Permissions []string `json:"permissions"`
}

type CreateRoleInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (s *RoleService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	out := []models.Permission{}
	err := s.db.WithContext(ctx).Order("code").Find(&out).Error
	return out, err
}

func (s *RoleService) ListRoles(ctx context.Context) ([]RoleView, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}

	type row struct {
		RoleID uint
		Code   string
	}
	var rows []row
	if err := s.db.WithContext(ctx).
		Model(&models.RolePermission{}).
		Select("role_permissions.role_id, permissions.code").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Order("permissions.code").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	byRole := map[uint][]string{}
	for _, r := range rows {
		byRole[r.RoleID] = append(byRole[r.RoleID], r.Code)
	}

	out := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		perms := byRole[r.ID]
		if perms == nil {
			perms = []string{}
		}
		out = append(out, RoleView{Role: r, Permissions: perms})
	}
	return out, nil
}

func (s *RoleService) CreateRole(ctx context.Context, actorID uint, in CreateRoleInput) (*RoleView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("role name is required")
	}

	role := models.Role{Name: name, Description: in.Description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Role{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflict("role %q already exists", name)
		}
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		return replaceRolePermissions(tx, role.ID, in.Permissions)
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionRoleManage, fmt.Sprintf("created role %s", name), "")
	return s.roleView(ctx, role)
}

// SetRolePermissions replaces the role's permission set.
func (s *RoleService) SetRolePermissions(ctx context.Context, actorID, roleID uint, codes []string) (*RoleView, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&role, roleID).Error; err != nil {
			return dbErr(err, "role")
		}
		return replaceRolePermissions(tx, role.ID, codes)
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionRoleManage, fmt.Sprintf("set permissions of %s to %s", role.Name, strings.Join(codes, ",")), "")
	return s.roleView(ctx, role)
}

func (s *RoleService) DeleteRole(ctx context.Context, actorID, roleID uint) error {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return dbErr(err, "role")
	}
	if role.IsSystem {
		return invalid("built-in role %s cannot be deleted", role.Name)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, actorID, ActionRoleManage, fmt.Sprintf("deleted role %s", role.Name), "")
	return nil
}

func (s *RoleService) RolesOfUser(ctx context.Context, userID uint) ([]models.Role, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	roles := []models.Role{}
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Find(&roles).Error
	return roles, err
}

// AssignRole is idempotent.
func (s *RoleService) AssignRole(ctx context.Context, actorID, userID, roleID uint) error {
	if err := s.userExists(ctx, userID); err != nil {
		return err
	}
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return dbErr(err, "role")
	}
	link := models.UserRole{UserID: userID, RoleID: roleID}
	if err := s.db.WithContext(ctx).Where(link).FirstOrCreate(&link).Error; err != nil {
		return err
	}
	s.actions.Record(ctx, actorID, ActionRoleAssign, fmt.Sprintf("user %d -> %s", userID, role.Name), "")
	s.notify.Emit(ctx, userID, NotifyRoleChanged, fmt.Sprintf("You were granted the %s role", role.Name))
	return nil
}

// RemoveRole refuses to take Admin from the last active administrator.
func (s *RoleService) RemoveRole(ctx context.Context, actorID, userID, roleID uint) error {
	var role models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&role, roleID).Error; err != nil {
			return dbErr(err, "role")
		}
		var link models.UserRole
		if err := tx.Where("user_id = ? AND role_id = ?", userID, roleID).First(&link).Error; err != nil {
			return dbErr(err, "role assignment")
		}
		if role.Name == models.RoleAdmin {
			if err := ensureNotLastAdmin(tx, userID, "remove"); err != nil {
				return err
			}
		}
		return tx.Where("user_id = ? AND role_id = ?", userID, roleID).Delete(&models.UserRole{}).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, actorID, ActionRoleRemove, fmt.Sprintf("user %d -x %s", userID, role.Name), "")
	s.notify.Emit(ctx, userID, NotifyRoleChanged, fmt.Sprintf("Your %s role was removed", role.Name))
	return nil
}

// AssignRoleByName is used by the CLI to bootstrap the first administrator.
func (s *RoleService) AssignRoleByName(ctx context.Context, email, roleName string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return dbErr(err, "user")
	}
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", roleName).First(&role).Error; err != nil {
		return dbErr(err, "role")
	}
	link := models.UserRole{UserID: user.ID, RoleID: role.ID}
	return s.db.WithContext(ctx).Where(link).FirstOrCreate(&link).Error
}

func (s *RoleService) userExists(ctx context.Context, userID uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound("user")
	}
	return nil
}

func (s *RoleService) roleView(ctx context.Context, role models.Role) (*RoleView, error) {
	codes := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", role.ID).
		Order("permissions.code").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, err
	}
	return &RoleView{Role: role, Permissions: codes}, nil
}

// replaceRolePermissions rejects unknown codes before touching anything.
func replaceRolePermissions(tx *gorm.DB, roleID uint, codes []string) error {
	uniq := map[string]struct{}{}
	for _, c := range codes {
		uniq[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	wanted := make([]string, 0, len(uniq))
	for c := range uniq {
		wanted = append(wanted, c)
	}

	var perms []models.Permission
	if len(wanted) > 0 {
		if err := tx.Where("code IN ?", wanted).Find(&perms).Error; err != nil {
			return err
		}
	}
	if len(perms) != len(wanted) {
		known := map[string]bool{}
		for _, p := range perms {
			known[p.Code] = true
		}
		var unknown []string
		for _, c := range wanted {
			if !known[c] {
				unknown = append(unknown, c)
			}
		}
		return invalid("unknown permission codes: %s", strings.Join(unknown, ", "))
	}

	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	links := make([]models.RolePermission, 0, len(perms))
	for _, p := range perms {
		links = append(links, models.RolePermission{RoleID: roleID, PermissionID: p.ID})
	}
	return tx.Create(&links).Error
}
