package models

import "time"

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
}

// UserRole is the users <-> roles join table.
type UserRole struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	RoleID    uint      `gorm:"primaryKey" json:"role_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Role *Role `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// RolePermission is the roles <-> permissions join table.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey" json:"role_id"`
	PermissionID uint `gorm:"primaryKey" json:"permission_id"`

	Role       *Role       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Permission *Permission `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Permission codes checked by the admin routes.
const (
	PermUserRead       = "USER_READ"
	PermUserUpdate     = "USER_UPDATE"
	PermUserDelete     = "USER_DELETE"
	PermRoleRead       = "ROLE_READ"
	PermRoleManage     = "ROLE_MANAGE"
	PermExerciseCreate = "EXERCISE_CREATE"
	PermExerciseUpdate = "EXERCISE_UPDATE"
	PermExerciseDelete = "EXERCISE_DELETE"
	PermFoodCreate     = "FOOD_CREATE"
	PermFoodUpdate     = "FOOD_UPDATE"
	PermFoodDelete     = "FOOD_DELETE"
	PermStatisticsRead = "STATISTICS_READ"
	PermActionLogRead  = "ACTIONLOG_READ"
)

// AllPermissions is the seeded catalogue, code -> description.
var AllPermissions = map[string]string{
	PermUserRead:       "List and view users",
	PermUserUpdate:     "Activate or deactivate users",
	PermUserDelete:     "Delete users",
	PermRoleRead:       "View roles and permissions",
	PermRoleManage:     "Create roles and assign them",
	PermExerciseCreate: "Add exercises to the catalogue",
	PermExerciseUpdate: "Edit catalogue exercises",
	PermExerciseDelete: "Remove catalogue exercises",
	PermFoodCreate:     "Add food items to the catalogue",
	PermFoodUpdate:     "Edit catalogue food items",
	PermFoodDelete:     "Remove catalogue food items",
	PermStatisticsRead: "View admin statistics",
	PermActionLogRead:  "View user action logs",
}
