package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type StatisticsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatisticsService(db *gorm.DB) *StatisticsService {
	return &StatisticsService{db: db, now: time.Now}
}

type UserStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Disabled     int64 `json:"disabled"`
	ActiveLast7d int64 `json:"active_last_7d"`
	NewToday     int64 `json:"new_today"`
	NewLast7d    int64 `json:"new_last_7d"`
	NewLast30d   int64 `json:"new_last_30d"`
}

type GoalStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	Completed      int64            `json:"completed"`
	CompletionRate float64          `json:"completion_rate"`
}

type ExerciseRank struct {
	ExerciseID uint   `json:"exercise_id"`
	Name       string `json:"name"`
	Sessions   int64  `json:"sessions"`
}

type Statistics struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	Users         UserStats      `json:"users"`
	Goals         GoalStats      `json:"goals"`
	WorkoutLogs   int64          `json:"workout_logs"`
	NutritionLogs int64          `json:"nutrition_logs"`
	ChatMessages  int64          `json:"chat_messages"`
	TopExercises  []ExerciseRank `json:"top_exercises"`
}

func (s *StatisticsService) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

func (s *StatisticsService) Overview(ctx context.Context) (*Statistics, error) {
	now := s.now().UTC()
	today := dayStart(now)
	out := &Statistics{GeneratedAt: now}

	type counter struct {
		dst   *int64
		model any
		query string
		args  []any
	}
	for _, c := range []counter{
		{&out.Users.Total, &models.User{}, "", nil},
		{&out.Users.Active, &models.User{}, "is_active = ?", []any{true}},
		{&out.Users.ActiveLast7d, &models.User{}, "last_login_at >= ?", []any{now.AddDate(0, 0, -7)}},
		{&out.Users.NewToday, &models.User{}, "created_at >= ?", []any{today}},
		{&out.Users.NewLast7d, &models.User{}, "created_at >= ?", []any{today.AddDate(0, 0, -6)}},
		{&out.Users.NewLast30d, &models.User{}, "created_at >= ?", []any{today.AddDate(0, 0, -29)}},
		{&out.Goals.Total, &models.Goal{}, "", nil},
		{&out.WorkoutLogs, &models.WorkoutLog{}, "", nil},
		{&out.NutritionLogs, &models.NutritionLog{}, "", nil},
		{&out.ChatMessages, &models.ChatMessage{}, "", nil},
	} {
		n, err := s.count(ctx, c.model, c.query, c.args...)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	out.Users.Disabled = out.Users.Total - out.Users.Active

	var byStatus []struct {
		Status string
		N      int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	out.Goals.ByStatus = map[string]int64{
		models.GoalStatusActive:    0,
		models.GoalStatusCompleted: 0,
		models.GoalStatusCancelled: 0,
	}
	for _, r := range byStatus {
		out.Goals.ByStatus[r.Status] = r.N
	}
	out.Goals.Completed = out.Goals.ByStatus[models.GoalStatusCompleted]
	out.Goals.CompletionRate = pct(float64(out.Goals.Completed), float64(out.Goals.Total))

	top, err := s.TopExercises(ctx, 5)
	if err != nil {
		return nil, err
	}
	out.TopExercises = top
	return out, nil
}

func (s *StatisticsService) TopExercises(ctx context.Context, limit int) ([]ExerciseRank, error) {
	out := []ExerciseRank{}
	err := s.db.WithContext(ctx).
		Model(&models.ExerciseSession{}).
		Select("exercises.id AS exercise_id, exercises.name AS name, COUNT(*) AS sessions").
		Joins("JOIN exercises ON exercises.id = exercise_sessions.exercise_id").
		Group("exercises.id, exercises.name").
		Order("sessions DESC, exercises.name").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Registrations counts sign-ups per day for the last days days, today
// included. Days without sign-ups are reported as zero.
func (s *StatisticsService) Registrations(ctx context.Context, days int) ([]DailyCount, error) {
	if days < 1 || days > 365 {
		return nil, invalid("days must be between 1 and 365")
	}
	today := dayStart(s.now().UTC())
	from := today.AddDate(0, 0, -(days - 1))

	var stamps []time.Time
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("created_at >= ?", from).
		Pluck("created_at", &stamps).Error; err != nil {
		return nil, err
	}
	idx := map[string]int64{}
	for _, t := range stamps {
		idx[t.In(today.Location()).Format(dateLayout)]++
	}

	out := make([]DailyCount, 0, days)
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		out = append(out, DailyCount{Date: key, Count: idx[key]})
	}
	return out, nil
}
