package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type WorkoutService struct {
	db      *gorm.DB
	actions ActionRecorder
	now     func() time.Time
}

func NewWorkoutService(db *gorm.DB, actions ActionRecorder) *WorkoutService {
	return &WorkoutService{db: db, actions: actions, now: time.Now}
}

type ExerciseSessionInput struct {
	ExerciseID      uint    `json:"exercise_id" binding:"required"`
	Sets            int     `json:"sets"`
	Reps            int     `json:"reps"`
	WeightKg        float64 `json:"weight_kg"`
	DurationMinutes int     `json:"duration_minutes"`
	Notes           string  `json:"notes"`
}

type WorkoutLogInput struct {
	Name     string                 `json:"name"`
	Date     string                 `json:"date"` // defaults to today
	Notes    string                 `json:"notes"`
	Sessions []ExerciseSessionInput `json:"sessions"`
}

func (s *WorkoutService) ListExercises(ctx context.Context, query, category string) ([]models.Exercise, error) {
	q := s.db.WithContext(ctx).Model(&models.Exercise{})
	if query != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(query))
	}
	if category != "" {
		q = q.Where("category = ?", strings.ToLower(category))
	}
	out := []models.Exercise{}
	err := q.Order("name").Find(&out).Error
	return out, err
}

// buildSessions resolves every referenced exercise and computes the calories.
func (s *WorkoutService) buildSessions(tx *gorm.DB, in []ExerciseSessionInput) ([]models.ExerciseSession, int, float64, error) {
	if len(in) == 0 {
		return nil, 0, 0, invalid("a workout needs at least one exercise session")
	}
	ids := make([]uint, 0, len(in))
	for _, si := range in {
		ids = append(ids, si.ExerciseID)
	}
	var exercises []models.Exercise
	if err := tx.Where("id IN ?", ids).Find(&exercises).Error; err != nil {
		return nil, 0, 0, err
	}
	byID := make(map[uint]models.Exercise, len(exercises))
	for _, e := range exercises {
		byID[e.ID] = e
	}

	var (
		sessions = make([]models.ExerciseSession, 0, len(in))
		minutes  int
		calories float64
	)
	for i, si := range in {
		ex, ok := byID[si.ExerciseID]
		if !ok {
			return nil, 0, 0, invalid("session %d: exercise %d does not exist", i+1, si.ExerciseID)
		}
		if si.DurationMinutes < 0 || si.Sets < 0 || si.Reps < 0 || si.WeightKg < 0 {
			return nil, 0, 0, invalid("session %d: values cannot be negative", i+1)
		}
		burned := round2(ex.CaloriesPerMinute * float64(si.DurationMinutes))
		sessions = append(sessions, models.ExerciseSession{
			ExerciseID:      ex.ID,
			Sets:            si.Sets,
			Reps:            si.Reps,
			WeightKg:        si.WeightKg,
			DurationMinutes: si.DurationMinutes,
			CaloriesBurned:  burned,
			Notes:           si.Notes,
		})
		minutes += si.DurationMinutes
		calories += burned
	}
	return sessions, minutes, round2(calories), nil
}

func (s *WorkoutService) Create(ctx context.Context, userID uint, in WorkoutLogInput) (*models.WorkoutLog, error) {
	date, err := parseOptionalDate(in.Date, dayStart(s.now().UTC()))
	if err != nil {
		return nil, err
	}
	var log models.WorkoutLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions, minutes, calories, err := s.buildSessions(tx, in.Sessions)
		if err != nil {
			return err
		}
		log = models.WorkoutLog{
			UserID:        userID,
			Name:          strings.TrimSpace(in.Name),
			Date:          date,
			Notes:         in.Notes,
			TotalMinutes:  minutes,
			TotalCalories: calories,
			Sessions:      sessions,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, userID, ActionWorkoutCreate, fmt.Sprintf("workout %d", log.ID), "")
	return s.Get(ctx, userID, log.ID)
}

func (s *WorkoutService) List(ctx context.Context, userID uint, from, to *time.Time) ([]models.WorkoutLog, error) {
	q := s.db.WithContext(ctx).
		Preload("Sessions.Exercise").
		Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", dayStart(*from))
	}
	if to != nil {
		q = q.Where("date <= ?", dayEnd(*to))
	}
	out := []models.WorkoutLog{}
	err := q.Order("date DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *WorkoutService) Get(ctx context.Context, userID, id uint) (*models.WorkoutLog, error) {
	var log models.WorkoutLog
	err := s.db.WithContext(ctx).
		Preload("Sessions.Exercise").
		Where("id = ? AND user_id = ?", id, userID).
		First(&log).Error
	if err != nil {
		return nil, dbErr(err, "workout log")
	}
	return &log, nil
}

// Update replaces the log's fields and its whole session list.
func (s *WorkoutService) Update(ctx context.Context, userID, id uint, in WorkoutLogInput) (*models.WorkoutLog, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.WorkoutLog
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
			return dbErr(err, "workout log")
		}
		date, err := parseOptionalDate(in.Date, log.Date)
		if err != nil {
			return err
		}
		sessions, minutes, calories, err := s.buildSessions(tx, in.Sessions)
		if err != nil {
			return err
		}
		if err := tx.Where("workout_log_id = ?", log.ID).Delete(&models.ExerciseSession{}).Error; err != nil {
			return err
		}
		for i := range sessions {
			sessions[i].WorkoutLogID = log.ID
		}
		if err := tx.Create(&sessions).Error; err != nil {
			return err
		}
		return tx.Model(&log).Updates(map[string]any{
			"name":           strings.TrimSpace(in.Name),
			"date":           date,
			"notes":          in.Notes,
			"total_minutes":  minutes,
			"total_calories": calories,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, userID, ActionWorkoutUpdate, fmt.Sprintf("workout %d", id), "")
	return s.Get(ctx, userID, id)
}

func (s *WorkoutService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.WorkoutLog
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
			return dbErr(err, "workout log")
		}
		if err := tx.Where("workout_log_id = ?", log.ID).Delete(&models.ExerciseSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(&log).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, userID, ActionWorkoutDelete, fmt.Sprintf("workout %d", id), "")
	return nil
}

type ExerciseUsage struct {
	ExerciseID uint    `json:"exercise_id"`
	Name       string  `json:"name"`
	Sessions   int64   `json:"sessions"`
	Minutes    int64   `json:"minutes"`
	Calories   float64 `json:"calories"`
}

type WorkoutSummary struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Workouts      int64           `json:"workouts"`
	TotalMinutes  int64           `json:"total_minutes"`
	TotalCalories float64         `json:"total_calories"`
	ByExercise    []ExerciseUsage `json:"by_exercise"`
}

func (s *WorkoutService) Summary(ctx context.Context, userID uint, from, to time.Time) (*WorkoutSummary, error) {
	if to.Before(from) {
		return nil, invalid("'to' cannot be before 'from'")
	}
	out := &WorkoutSummary{From: from.Format(dateLayout), To: to.Format(dateLayout), ByExercise: []ExerciseUsage{}}

	var totals struct {
		Workouts int64
		Minutes  int64
		Calories float64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.WorkoutLog{}).
		Select("COUNT(*) AS workouts, COALESCE(SUM(total_minutes),0) AS minutes, COALESCE(SUM(total_calories),0) AS calories").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, dayStart(from), dayEnd(to)).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	out.Workouts = totals.Workouts
	out.TotalMinutes = totals.Minutes
	out.TotalCalories = round2(totals.Calories)

	if err := s.db.WithContext(ctx).
		Model(&models.ExerciseSession{}).
		Select("exercises.id AS exercise_id, exercises.name AS name, COUNT(*) AS sessions, "+
			"COALESCE(SUM(exercise_sessions.duration_minutes),0) AS minutes, "+
			"COALESCE(SUM(exercise_sessions.calories_burned),0) AS calories").
		Joins("JOIN workout_logs ON workout_logs.id = exercise_sessions.workout_log_id").
		Joins("JOIN exercises ON exercises.id = exercise_sessions.exercise_id").
		Where("workout_logs.user_id = ? AND workout_logs.date BETWEEN ? AND ?", userID, dayStart(from), dayEnd(to)).
		Group("exercises.id, exercises.name").
		Order("sessions DESC, exercises.name").
		Scan(&out.ByExercise).Error; err != nil {
		return nil, err
	}
	return out, nil
}
