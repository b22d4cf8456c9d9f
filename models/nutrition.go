package models

import "time"

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// FoodItem is a catalogue entry; macros are per 100 g.
type FoodItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Category        string    `gorm:"size:50;index" json:"category"`
	ServingSizeG    float64   `json:"serving_size_g"`
	CaloriesPer100g float64   `json:"calories_per_100g"`
	ProteinPer100g  float64   `json:"protein_per_100g"`
	CarbsPer100g    float64   `json:"carbs_per_100g"`
	FatPer100g      float64   `json:"fat_per_100g"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NutritionLog is one meal; totals are the sum of its entries.
type NutritionLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	Date          time.Time `gorm:"index;not null" json:"date"`
	MealType      string    `gorm:"size:20;not null" json:"meal_type"`
	Notes         string    `gorm:"type:text" json:"notes"`
	TotalCalories float64   `json:"total_calories"`
	TotalProtein  float64   `json:"total_protein"`
	TotalCarbs    float64   `json:"total_carbs"`
	TotalFat      float64   `json:"total_fat"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Entries []FoodEntry `gorm:"constraint:OnDelete:CASCADE" json:"entries"`
	User    *User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// FoodEntry stores a snapshot of the macros for the logged quantity.
type FoodEntry struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	NutritionLogID uint    `gorm:"index;not null" json:"nutrition_log_id"`
	FoodItemID     uint    `gorm:"index;not null" json:"food_item_id"`
	QuantityG      float64 `json:"quantity_g"`
	Calories       float64 `json:"calories"`
	Protein        float64 `json:"protein"`
	Carbs          float64 `json:"carbs"`
	Fat            float64 `json:"fat"`

	FoodItem *FoodItem `gorm:"constraint:OnDelete:RESTRICT" json:"food_item,omitempty"`
}
