package models

import "time"

// Exercise is a catalogue entry, seeded at startup and managed by admins.
type Exercise struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Category          string    `gorm:"size:50;index" json:"category"` // strength | cardio | flexibility
	MuscleGroup       string    `gorm:"size:50" json:"muscle_group"`
	CaloriesPerMinute float64   `json:"calories_per_minute"`
	Description       string    `gorm:"type:text" json:"description"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type WorkoutLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	Name          string    `gorm:"size:100" json:"name"`
	Date          time.Time `gorm:"index;not null" json:"date"`
	Notes         string    `gorm:"type:text" json:"notes"`
	TotalMinutes  int       `json:"total_minutes"`
	TotalCalories float64   `json:"total_calories"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Sessions []ExerciseSession `gorm:"constraint:OnDelete:CASCADE" json:"sessions"`
	User     *User             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type ExerciseSession struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	WorkoutLogID    uint    `gorm:"index;not null" json:"workout_log_id"`
	ExerciseID      uint    `gorm:"index;not null" json:"exercise_id"`
	Sets            int     `json:"sets"`
	Reps            int     `json:"reps"`
	WeightKg        float64 `json:"weight_kg"`
	DurationMinutes int     `json:"duration_minutes"`
	CaloriesBurned  float64 `json:"calories_burned"`
	Notes           string  `gorm:"size:255" json:"notes"`

	Exercise *Exercise `gorm:"constraint:OnDelete:RESTRICT" json:"exercise,omitempty"`
}
