package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type AdminService struct {
	db      *gorm.DB
	perms   *PermissionService
	actions ActionRecorder
}

func NewAdminService(db *gorm.DB, perms *PermissionService, actions ActionRecorder) *AdminService {
	return &AdminService{db: db, perms: perms, actions: actions}
}

type UserFilter struct {
	PageQuery
	Search string `form:"search"`
	Active *bool  `form:"active"`
}

func (s *AdminService) ListUsers(ctx context.Context, f UserFilter) (*Paged[models.User], error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", p, p)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	return paginate[models.User](q, f.PageQuery, "created_at DESC, id DESC")
}

func (s *AdminService) GetUser(ctx context.Context, userID uint) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, userID).Error; err != nil {
		return nil, dbErr(err, "user")
	}
	roles, err := s.perms.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, Roles: roles}, nil
}

func (s *AdminService) SetUserActive(ctx context.Context, actorID, userID uint, active bool) (*UserView, error) {
	if actorID == userID && !active {
		return nil, invalid("you cannot deactivate your own account")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return dbErr(err, "user")
		}
		if !active {
			if err := ensureNotLastAdmin(tx, userID, "deactivate"); err != nil {
				return err
			}
		}
		return tx.Model(&user).Update("is_active", active).Error
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionUserStatus, fmt.Sprintf("user %d active=%t", userID, active), "")
	return s.GetUser(ctx, userID)
}

// DeleteUser removes the account and everything it owns.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return invalid("you cannot delete your own account")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return dbErr(err, "user")
		}
		if err := ensureNotLastAdmin(tx, userID, "delete"); err != nil {
			return err
		}

		goalIDs := tx.Model(&models.Goal{}).Select("id").Where("user_id = ?", userID)
		workoutIDs := tx.Model(&models.WorkoutLog{}).Select("id").Where("user_id = ?", userID)
		nutritionIDs := tx.Model(&models.NutritionLog{}).Select("id").Where("user_id = ?", userID)
		steps := []struct {
			model any
			query string
			arg   any
		}{
			{&models.ProgressRecord{}, "goal_id IN (?)", goalIDs},
			{&models.ExerciseSession{}, "workout_log_id IN (?)", workoutIDs},
			{&models.FoodEntry{}, "nutrition_log_id IN (?)", nutritionIDs},
			{&models.Goal{}, "user_id = ?", userID},
			{&models.WorkoutLog{}, "user_id = ?", userID},
			{&models.NutritionLog{}, "user_id = ?", userID},
			{&models.ChatMessage{}, "user_id = ?", userID},
			{&models.UserActionLog{}, "user_id = ?", userID},
			{&models.Notification{}, "user_id = ?", userID},
			{&models.UserDevice{}, "user_id = ?", userID},
			{&models.UserRole{}, "user_id = ?", userID},
			{&models.UserProfile{}, "user_id = ?", userID},
		}
		for _, st := range steps {
			if err := tx.Where(st.query, st.arg).Delete(st.model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, actorID, ActionUserDelete, fmt.Sprintf("user %d", userID), "")
	return nil
}

// ensureNotLastAdmin refuses an action that would leave no active user
// holding the Admin role. Deactivated admins do not count.
func ensureNotLastAdmin(tx *gorm.DB, userID uint, action string) error {
	var admin models.Role
	if err := tx.Where("name = ?", models.RoleAdmin).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	var isAdmin, others int64
	if err := tx.Model(&models.UserRole{}).Where("user_id = ? AND role_id = ?", userID, admin.ID).Count(&isAdmin).Error; err != nil {
		return err
	}
	if isAdmin == 0 {
		return nil
	}
	if err := tx.Model(&models.UserRole{}).
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("user_roles.role_id = ? AND user_roles.user_id <> ? AND users.is_active = ?", admin.ID, userID, true).
		Count(&others).Error; err != nil {
		return err
	}
	if others == 0 {
		return invalid("cannot %s the last active administrator", action)
	}
	return nil
}

type ExerciseInput struct {
	Name              string  `json:"name" binding:"required"`
	Category          string  `json:"category"`
	MuscleGroup       string  `json:"muscle_group"`
	CaloriesPerMinute float64 `json:"calories_per_minute"`
	Description       string  `json:"description"`
}

func (in ExerciseInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if in.CaloriesPerMinute < 0 {
		return invalid("calories per minute cannot be negative")
	}
	return nil
}

func (s *AdminService) CreateExercise(ctx context.Context, actorID uint, in ExerciseInput) (*models.Exercise, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e := models.Exercise{
		Name:              strings.TrimSpace(in.Name),
		Category:          strings.ToLower(strings.TrimSpace(in.Category)),
		MuscleGroup:       strings.ToLower(strings.TrimSpace(in.MuscleGroup)),
		CaloriesPerMinute: in.CaloriesPerMinute,
		Description:       in.Description,
	}
	if err := s.uniqueName(ctx, &models.Exercise{}, e.Name, 0); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionCatalogManage, "created exercise "+e.Name, "")
	return &e, nil
}

func (s *AdminService) UpdateExercise(ctx context.Context, actorID, id uint, in ExerciseInput) (*models.Exercise, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var e models.Exercise
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, dbErr(err, "exercise")
	}
	name := strings.TrimSpace(in.Name)
	if err := s.uniqueName(ctx, &models.Exercise{}, name, id); err != nil {
		return nil, err
	}
	e.Name = name
	e.Category = strings.ToLower(strings.TrimSpace(in.Category))
	e.MuscleGroup = strings.ToLower(strings.TrimSpace(in.MuscleGroup))
	e.CaloriesPerMinute = in.CaloriesPerMinute
	e.Description = in.Description
	if err := s.db.WithContext(ctx).Save(&e).Error; err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionCatalogManage, "updated exercise "+e.Name, "")
	return &e, nil
}

// DeleteExercise refuses while any logged session still references the exercise.
func (s *AdminService) DeleteExercise(ctx context.Context, actorID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e models.Exercise
		if err := tx.First(&e, id).Error; err != nil {
			return dbErr(err, "exercise")
		}
		var used int64
		if err := tx.Model(&models.ExerciseSession{}).Where("exercise_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return conflict("exercise %q is used by %d logged sessions", e.Name, used)
		}
		return tx.Delete(&e).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, actorID, ActionCatalogManage, fmt.Sprintf("deleted exercise %d", id), "")
	return nil
}

type FoodItemInput struct {
	Name            string  `json:"name" binding:"required"`
	Category        string  `json:"category"`
	ServingSizeG    float64 `json:"serving_size_g"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	CarbsPer100g    float64 `json:"carbs_per_100g"`
	FatPer100g      float64 `json:"fat_per_100g"`
}

func (in FoodItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if in.ServingSizeG < 0 || in.CaloriesPer100g < 0 || in.ProteinPer100g < 0 || in.CarbsPer100g < 0 || in.FatPer100g < 0 {
		return invalid("nutrition values cannot be negative")
	}
	return nil
}

func (in FoodItemInput) applyTo(f *models.FoodItem) {
	f.Name = strings.TrimSpace(in.Name)
	f.Category = strings.ToLower(strings.TrimSpace(in.Category))
	f.ServingSizeG = in.ServingSizeG
	f.CaloriesPer100g = in.CaloriesPer100g
	f.ProteinPer100g = in.ProteinPer100g
	f.CarbsPer100g = in.CarbsPer100g
	f.FatPer100g = in.FatPer100g
}

func (s *AdminService) CreateFoodItem(ctx context.Context, actorID uint, in FoodItemInput) (*models.FoodItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var f models.FoodItem
	in.applyTo(&f)
	if err := s.uniqueName(ctx, &models.FoodItem{}, f.Name, 0); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionCatalogManage, "created food "+f.Name, "")
	return &f, nil
}

func (s *AdminService) UpdateFoodItem(ctx context.Context, actorID, id uint, in FoodItemInput) (*models.FoodItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var f models.FoodItem
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, dbErr(err, "food item")
	}
	if err := s.uniqueName(ctx, &models.FoodItem{}, strings.TrimSpace(in.Name), id); err != nil {
		return nil, err
	}
	in.applyTo(&f)
	if err := s.db.WithContext(ctx).Save(&f).Error; err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actorID, ActionCatalogManage, "updated food "+f.Name, "")
	return &f, nil
}

func (s *AdminService) DeleteFoodItem(ctx context.Context, actorID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.FoodItem
		if err := tx.First(&f, id).Error; err != nil {
			return dbErr(err, "food item")
		}
		var used int64
		if err := tx.Model(&models.FoodEntry{}).Where("food_item_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return conflict("food item %q is used by %d logged entries", f.Name, used)
		}
		return tx.Delete(&f).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, actorID, ActionCatalogManage, fmt.Sprintf("deleted food item %d", id), "")
	return nil
}

// uniqueName checks case-insensitively, ignoring the row being updated.
func (s *AdminService) uniqueName(ctx context.Context, model any, name string, exceptID uint) error {
	var n int64
	q := s.db.WithContext(ctx).Model(model).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return conflict("%q already exists", name)
	}
	return nil
}
