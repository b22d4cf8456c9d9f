package models

// All lists every entity in migration order: parents before children.
func All() []any {
	return []any{
		&User{},
		&UserProfile{},
		&Role{},
		&Permission{},
		&UserRole{},
		&RolePermission{},
		&Goal{},
		&ProgressRecord{},
		&Exercise{},
		&WorkoutLog{},
		&ExerciseSession{},
		&FoodItem{},
		&NutritionLog{},
		&FoodEntry{},
		&ChatMessage{},
		&UserActionLog{},
		&Notification{},
		&UserDevice{},
	}
}
