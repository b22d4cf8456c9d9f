package config

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

var seedExercises = []models.Exercise{
	{Name: "Push-up", Category: "strength", MuscleGroup: "chest", CaloriesPerMinute: 7, Description: "Bodyweight press from a plank position"},
	{Name: "Squat", Category: "strength", MuscleGroup: "legs", CaloriesPerMinute: 8, Description: "Bodyweight or barbell squat"},
	{Name: "Deadlift", Category: "strength", MuscleGroup: "back", CaloriesPerMinute: 9, Description: "Barbell hip hinge"},
	{Name: "Bench Press", Category: "strength", MuscleGroup: "chest", CaloriesPerMinute: 6, Description: "Barbell press on a flat bench"},
	{Name: "Pull-up", Category: "strength", MuscleGroup: "back", CaloriesPerMinute: 8, Description: "Overhand grip bar pull"},
	{Name: "Plank", Category: "strength", MuscleGroup: "core", CaloriesPerMinute: 4, Description: "Isometric core hold"},
	{Name: "Running", Category: "cardio", MuscleGroup: "full_body", CaloriesPerMinute: 11, Description: "Steady pace outdoor or treadmill run"},
	{Name: "Cycling", Category: "cardio", MuscleGroup: "legs", CaloriesPerMinute: 9, Description: "Road or stationary bike"},
	{Name: "Swimming", Category: "cardio", MuscleGroup: "full_body", CaloriesPerMinute: 10, Description: "Freestyle laps"},
	{Name: "Jump Rope", Category: "cardio", MuscleGroup: "full_body", CaloriesPerMinute: 12, Description: "Continuous skipping"},
	{Name: "Walking", Category: "cardio", MuscleGroup: "legs", CaloriesPerMinute: 4, Description: "Brisk walk"},
	{Name: "Yoga", Category: "flexibility", MuscleGroup: "full_body", CaloriesPerMinute: 3, Description: "Hatha flow"},
}

var seedFoods = []models.FoodItem{
	{Name: "Chicken Breast", Category: "protein", ServingSizeG: 120, CaloriesPer100g: 165, ProteinPer100g: 31, CarbsPer100g: 0, FatPer100g: 3.6},
	{Name: "Egg", Category: "protein", ServingSizeG: 50, CaloriesPer100g: 155, ProteinPer100g: 13, CarbsPer100g: 1.1, FatPer100g: 11},
	{Name: "Salmon", Category: "protein", ServingSizeG: 150, CaloriesPer100g: 208, ProteinPer100g: 20, CarbsPer100g: 0, FatPer100g: 13},
	{Name: "Tofu", Category: "protein", ServingSizeG: 100, CaloriesPer100g: 76, ProteinPer100g: 8, CarbsPer100g: 1.9, FatPer100g: 4.8},
	{Name: "White Rice", Category: "grain", ServingSizeG: 150, CaloriesPer100g: 130, ProteinPer100g: 2.7, CarbsPer100g: 28, FatPer100g: 0.3},
	{Name: "Brown Rice", Category: "grain", ServingSizeG: 150, CaloriesPer100g: 112, ProteinPer100g: 2.3, CarbsPer100g: 24, FatPer100g: 0.8},
	{Name: "Oats", Category: "grain", ServingSizeG: 40, CaloriesPer100g: 389, ProteinPer100g: 16.9, CarbsPer100g: 66, FatPer100g: 6.9},
	{Name: "Whole Wheat Bread", Category: "grain", ServingSizeG: 30, CaloriesPer100g: 247, ProteinPer100g: 13, CarbsPer100g: 41, FatPer100g: 3.4},
	{Name: "Banana", Category: "fruit", ServingSizeG: 118, CaloriesPer100g: 89, ProteinPer100g: 1.1, CarbsPer100g: 23, FatPer100g: 0.3},
	{Name: "Apple", Category: "fruit", ServingSizeG: 182, CaloriesPer100g: 52, ProteinPer100g: 0.3, CarbsPer100g: 14, FatPer100g: 0.2},
	{Name: "Broccoli", Category: "vegetable", ServingSizeG: 90, CaloriesPer100g: 34, ProteinPer100g: 2.8, CarbsPer100g: 7, FatPer100g: 0.4},
	{Name: "Spinach", Category: "vegetable", ServingSizeG: 30, CaloriesPer100g: 23, ProteinPer100g: 2.9, CarbsPer100g: 3.6, FatPer100g: 0.4},
	{Name: "Greek Yogurt", Category: "dairy", ServingSizeG: 170, CaloriesPer100g: 59, ProteinPer100g: 10, CarbsPer100g: 3.6, FatPer100g: 0.4},
	{Name: "Milk", Category: "dairy", ServingSizeG: 244, CaloriesPer100g: 42, ProteinPer100g: 3.4, CarbsPer100g: 5, FatPer100g: 1},
	{Name: "Almonds", Category: "nuts", ServingSizeG: 28, CaloriesPer100g: 579, ProteinPer100g: 21, CarbsPer100g: 22, FatPer100g: 50},
	{Name: "Avocado", Category: "fruit", ServingSizeG: 150, CaloriesPer100g: 160, ProteinPer100g: 2, CarbsPer100g: 9, FatPer100g: 15},
}

// Seed inserts the permission catalogue, the built-in roles and the exercise and
// food catalogues. Running it again only fills in what is missing.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms := make([]models.Permission, 0, len(models.AllPermissions))
		for code, desc := range models.AllPermissions {
			p := models.Permission{Code: code}
			if err := tx.Where(models.Permission{Code: code}).
				Attrs(models.Permission{Description: desc}).
				FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", code, err)
			}
			perms = append(perms, p)
		}

		admin, err := seedRole(tx, models.RoleAdmin, "Full administrative access")
		if err != nil {
			return err
		}
		if _, err := seedRole(tx, models.RoleUser, "Regular application user"); err != nil {
			return err
		}

		links := make([]models.RolePermission, 0, len(perms))
		for _, p := range perms {
			links = append(links, models.RolePermission{RoleID: admin.ID, PermissionID: p.ID})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
			return fmt.Errorf("seed admin permissions: %w", err)
		}

		for _, e := range seedExercises {
			e := e
			if err := tx.Where(models.Exercise{Name: e.Name}).Attrs(e).FirstOrCreate(&e).Error; err != nil {
				return fmt.Errorf("seed exercise %s: %w", e.Name, err)
			}
		}
		for _, f := range seedFoods {
			f := f
			if err := tx.Where(models.FoodItem{Name: f.Name}).Attrs(f).FirstOrCreate(&f).Error; err != nil {
				return fmt.Errorf("seed food %s: %w", f.Name, err)
			}
		}
		return nil
	})
}

func seedRole(tx *gorm.DB, name, desc string) (models.Role, error) {
	r := models.Role{}
	err := tx.Where(models.Role{Name: name}).
		Attrs(models.Role{Description: desc, IsSystem: true}).
		FirstOrCreate(&r).Error
	if err != nil {
		return r, fmt.Errorf("seed role %s: %w", name, err)
	}
	return r, nil
}
