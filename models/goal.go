package models

import "time"

const (
	GoalTypeWeightLoss = "weight_loss"
	GoalTypeWeightGain = "weight_gain"
	GoalTypeMuscleGain = "muscle_gain"
	GoalTypeFatLoss    = "fat_loss"
)

// Stored goal status. The status shown to clients is derived, see services.DeriveGoalStatus.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusCancelled = "cancelled"
)

const (
	GoalDerivedCompleted  = "completed"
	GoalDerivedOverdue    = "overdue"
	GoalDerivedUpcoming   = "upcoming"
	GoalDerivedInProgress = "in-progress"
)

type Goal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	TargetValue float64   `gorm:"not null" json:"target_value"`
	StartValue  *float64  `json:"start_value,omitempty"`
	Unit        string    `gorm:"size:16;default:'kg'" json:"unit"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	Status      string    `gorm:"size:20;default:'active'" json:"status"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	ProgressRecords []ProgressRecord `gorm:"constraint:OnDelete:CASCADE" json:"progress_records,omitempty"`
	User            *User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsDecrease reports whether progress means the measured value going down.
func (g Goal) IsDecrease() bool {
	return g.Type == GoalTypeWeightLoss || g.Type == GoalTypeFatLoss
}

type ProgressRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GoalID     uint      `gorm:"index;not null" json:"goal_id"`
	Value      float64   `gorm:"not null" json:"value"`
	RecordedAt time.Time `gorm:"index;not null" json:"recorded_at"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}
