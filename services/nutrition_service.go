package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type NutritionService struct {
	db      *gorm.DB
	actions ActionRecorder
	now     func() time.Time
}

func NewNutritionService(db *gorm.DB, actions ActionRecorder) *NutritionService {
	return &NutritionService{db: db, actions: actions, now: time.Now}
}

var mealTypes = map[string]bool{
	models.MealBreakfast: true,
	models.MealLunch:     true,
	models.MealDinner:    true,
	models.MealSnack:     true,
}

type FoodEntryInput struct {
	FoodItemID uint    `json:"food_item_id" binding:"required"`
	QuantityG  float64 `json:"quantity_g"`
}

type NutritionLogInput struct {
	Date     string           `json:"date"` // defaults to today
	MealType string           `json:"meal_type" binding:"required"`
	Notes    string           `json:"notes"`
	Entries  []FoodEntryInput `json:"entries"`
}

type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (m *Macros) add(o Macros) {
	m.Calories += o.Calories
	m.Protein += o.Protein
	m.Carbs += o.Carbs
	m.Fat += o.Fat
}

func (m Macros) rounded() Macros {
	return Macros{round2(m.Calories), round2(m.Protein), round2(m.Carbs), round2(m.Fat)}
}

// MacrosFor scales the per-100 g values of a food to quantityG grams.
func MacrosFor(f models.FoodItem, quantityG float64) Macros {
	k := quantityG / 100
	return Macros{
		Calories: round2(f.CaloriesPer100g * k),
		Protein:  round2(f.ProteinPer100g * k),
		Carbs:    round2(f.CarbsPer100g * k),
		Fat:      round2(f.FatPer100g * k),
	}
}

func (s *NutritionService) SearchFoods(ctx context.Context, query, category string, limit int) ([]models.FoodItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&models.FoodItem{})
	if query != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(query))
	}
	if category != "" {
		q = q.Where("category = ?", strings.ToLower(category))
	}
	out := []models.FoodItem{}
	err := q.Order("name").Limit(limit).Find(&out).Error
	return out, err
}

func (s *NutritionService) buildEntries(tx *gorm.DB, in []FoodEntryInput) ([]models.FoodEntry, Macros, error) {
	if len(in) == 0 {
		return nil, Macros{}, invalid("a nutrition log needs at least one food entry")
	}
	ids := make([]uint, 0, len(in))
	for _, e := range in {
		ids = append(ids, e.FoodItemID)
	}
	var foods []models.FoodItem
	if err := tx.Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, Macros{}, err
	}
	byID := make(map[uint]models.FoodItem, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	entries := make([]models.FoodEntry, 0, len(in))
	var total Macros
	for i, e := range in {
		food, ok := byID[e.FoodItemID]
		if !ok {
			return nil, Macros{}, invalid("entry %d: food item %d does not exist", i+1, e.FoodItemID)
		}
		if e.QuantityG <= 0 {
			return nil, Macros{}, invalid("entry %d: quantity must be positive", i+1)
		}
		m := MacrosFor(food, e.QuantityG)
		entries = append(entries, models.FoodEntry{
			FoodItemID: food.ID,
			QuantityG:  e.QuantityG,
			Calories:   m.Calories,
			Protein:    m.Protein,
			Carbs:      m.Carbs,
			Fat:        m.Fat,
		})
		total.add(m)
	}
	return entries, total.rounded(), nil
}

func (s *NutritionService) Create(ctx context.Context, userID uint, in NutritionLogInput) (*models.NutritionLog, error) {
	mealType := strings.ToLower(strings.TrimSpace(in.MealType))
	if !mealTypes[mealType] {
		return nil, invalid("meal type must be one of breakfast, lunch, dinner, snack")
	}
	date, err := parseOptionalDate(in.Date, dayStart(s.now().UTC()))
	if err != nil {
		return nil, err
	}

	var log models.NutritionLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, total, err := s.buildEntries(tx, in.Entries)
		if err != nil {
			return err
		}
		log = models.NutritionLog{
			UserID:        userID,
			Date:          date,
			MealType:      mealType,
			Notes:         in.Notes,
			TotalCalories: total.Calories,
			TotalProtein:  total.Protein,
			TotalCarbs:    total.Carbs,
			TotalFat:      total.Fat,
			Entries:       entries,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, userID, ActionNutritionCreate, fmt.Sprintf("nutrition log %d", log.ID), "")
	return s.Get(ctx, userID, log.ID)
}

func (s *NutritionService) List(ctx context.Context, userID uint, from, to *time.Time) ([]models.NutritionLog, error) {
	q := s.db.WithContext(ctx).
		Preload("Entries.FoodItem").
		Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", dayStart(*from))
	}
	if to != nil {
		q = q.Where("date <= ?", dayEnd(*to))
	}
	out := []models.NutritionLog{}
	err := q.Order("date DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *NutritionService) Get(ctx context.Context, userID, id uint) (*models.NutritionLog, error) {
	var log models.NutritionLog
	err := s.db.WithContext(ctx).
		Preload("Entries.FoodItem").
		Where("id = ? AND user_id = ?", id, userID).
		First(&log).Error
	if err != nil {
		return nil, dbErr(err, "nutrition log")
	}
	return &log, nil
}

// Update replaces the log's fields and all of its entries.
func (s *NutritionService) Update(ctx context.Context, userID, id uint, in NutritionLogInput) (*models.NutritionLog, error) {
	mealType := strings.ToLower(strings.TrimSpace(in.MealType))
	if !mealTypes[mealType] {
		return nil, invalid("meal type must be one of breakfast, lunch, dinner, snack")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.NutritionLog
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
			return dbErr(err, "nutrition log")
		}
		date, err := parseOptionalDate(in.Date, log.Date)
		if err != nil {
			return err
		}
		entries, total, err := s.buildEntries(tx, in.Entries)
		if err != nil {
			return err
		}
		if err := tx.Where("nutrition_log_id = ?", log.ID).Delete(&models.FoodEntry{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].NutritionLogID = log.ID
		}
		if err := tx.Create(&entries).Error; err != nil {
			return err
		}
		return tx.Model(&log).Updates(map[string]any{
			"date":           date,
			"meal_type":      mealType,
			"notes":          in.Notes,
			"total_calories": total.Calories,
			"total_protein":  total.Protein,
			"total_carbs":    total.Carbs,
			"total_fat":      total.Fat,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, userID, ActionNutritionUpdate, fmt.Sprintf("nutrition log %d", id), "")
	return s.Get(ctx, userID, id)
}

func (s *NutritionService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.NutritionLog
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
			return dbErr(err, "nutrition log")
		}
		if err := tx.Where("nutrition_log_id = ?", log.ID).Delete(&models.FoodEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&log).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, userID, ActionNutritionDelete, fmt.Sprintf("nutrition log %d", id), "")
	return nil
}

type DailyNutrition struct {
	Date    string            `json:"date"`
	Totals  Macros            `json:"totals"`
	ByMeal  map[string]Macros `json:"by_meal"`
	Entries int               `json:"entries"`
}

func (s *NutritionService) DailySummary(ctx context.Context, userID uint, date time.Time) (*DailyNutrition, error) {
	var logs []models.NutritionLog
	if err := s.db.WithContext(ctx).
		Preload("Entries").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, dayStart(date), dayEnd(date)).
		Find(&logs).Error; err != nil {
		return nil, err
	}

	out := &DailyNutrition{Date: date.Format(dateLayout), ByMeal: map[string]Macros{}}
	for mt := range mealTypes {
		out.ByMeal[mt] = Macros{}
	}
	var total Macros
	for _, l := range logs {
		m := Macros{l.TotalCalories, l.TotalProtein, l.TotalCarbs, l.TotalFat}
		meal := out.ByMeal[l.MealType]
		meal.add(m)
		out.ByMeal[l.MealType] = meal.rounded()
		total.add(m)
		out.Entries += len(l.Entries)
	}
	out.Totals = total.rounded()
	return out, nil
}
