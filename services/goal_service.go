package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type GoalService struct {
	db      *gorm.DB
	notify  Notifier
	actions ActionRecorder
	now     func() time.Time
}

func NewGoalService(db *gorm.DB, notify Notifier, actions ActionRecorder) *GoalService {
	return &GoalService{db: db, notify: notify, actions: actions, now: time.Now}
}

var goalTypes = map[string]bool{
	models.GoalTypeWeightLoss: true,
	models.GoalTypeWeightGain: true,
	models.GoalTypeMuscleGain: true,
	models.GoalTypeFatLoss:    true,
}

var goalStatuses = map[string]bool{
	models.GoalStatusActive:    true,
	models.GoalStatusCompleted: true,
	models.GoalStatusCancelled: true,
}

type GoalInput struct {
	Type        string   `json:"type" binding:"required"`
	TargetValue float64  `json:"target_value"`
	StartValue  *float64 `json:"start_value"`
	Unit        string   `json:"unit"`
	StartDate   string   `json:"start_date" binding:"required"`
	EndDate     string   `json:"end_date" binding:"required"`
	Notes       string   `json:"notes"`
	Status      string   `json:"status"`
}

type ProgressInput struct {
	Value      float64 `json:"value"`
	RecordedAt string  `json:"recorded_at"` // defaults to now
	Notes      string  `json:"notes"`
}

// GoalView is a goal plus its computed progress. StartValue here is the
// effective baseline, which falls back to the first record.
type GoalView struct {
	models.Goal
	Progress      float64  `json:"progress"`
	DerivedStatus string   `json:"derived_status"`
	StartValue    *float64 `json:"start_value"`
	CurrentValue  *float64 `json:"current_value"`
}

func (s *GoalService) view(g models.Goal, records []models.ProgressRecord) GoalView {
	ev := EvaluateGoal(g, records, s.now())
	return GoalView{
		Goal:          g,
		Progress:      ev.Progress,
		DerivedStatus: ev.DerivedStatus,
		StartValue:    ev.StartValue,
		CurrentValue:  ev.CurrentValue,
	}
}

func (s *GoalService) apply(g *models.Goal, in GoalInput) error {
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if !goalTypes[typ] {
		return invalid("unknown goal type %q", in.Type)
	}
	if in.TargetValue <= 0 {
		return invalid("target value must be positive")
	}
	if in.StartValue != nil && *in.StartValue <= 0 {
		return invalid("start value must be positive")
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return err
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return invalid("end date cannot be before start date")
	}
	if in.Status != "" {
		if !goalStatuses[in.Status] {
			return invalid("unknown goal status %q", in.Status)
		}
		g.Status = in.Status
	}

	g.Type = typ
	g.TargetValue = in.TargetValue
	g.StartValue = in.StartValue
	g.StartDate = start
	g.EndDate = end
	g.Notes = in.Notes
	g.Unit = strings.TrimSpace(in.Unit)
	if g.Unit == "" {
		g.Unit = "kg"
	}
	return nil
}

func (s *GoalService) Create(ctx context.Context, userID uint, in GoalInput) (*GoalView, error) {
	g := models.Goal{UserID: userID, Status: models.GoalStatusActive}
	if err := s.apply(&g, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, err
	}
	s.actions.Record(ctx, userID, ActionGoalCreate, fmt.Sprintf("goal %d (%s)", g.ID, g.Type), "")
	v := s.view(g, nil)
	return &v, nil
}

// List returns the caller's goals, newest first. status filters on the derived status.
func (s *GoalService) List(ctx context.Context, userID uint, status string) ([]GoalView, error) {
	var goals []models.Goal
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&goals).Error; err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return []GoalView{}, nil
	}

	ids := make([]uint, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	var records []models.ProgressRecord
	if err := s.db.WithContext(ctx).Where("goal_id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	byGoal := map[uint][]models.ProgressRecord{}
	for _, r := range records {
		byGoal[r.GoalID] = append(byGoal[r.GoalID], r)
	}

	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		v := s.view(g, byGoal[g.ID])
		if status != "" && v.DerivedStatus != status {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *GoalService) load(ctx context.Context, userID, goalID uint) (*models.Goal, error) {
	var g models.Goal
	err := s.db.WithContext(ctx).
		Preload("ProgressRecords", func(db *gorm.DB) *gorm.DB { return db.Order("recorded_at ASC, id ASC") }).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&g).Error
	if err != nil {
		return nil, dbErr(err, "goal")
	}
	return &g, nil
}

func (s *GoalService) Get(ctx context.Context, userID, goalID uint) (*GoalView, error) {
	g, err := s.load(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	v := s.view(*g, g.ProgressRecords)
	return &v, nil
}

func (s *GoalService) Update(ctx context.Context, userID, goalID uint, in GoalInput) (*GoalView, error) {
	g, err := s.load(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(g, in); err != nil {
		return nil, err
	}
	records := g.ProgressRecords
	g.ProgressRecords = nil
	if err := s.db.WithContext(ctx).Save(g).Error; err != nil {
		return nil, err
	}
	g.ProgressRecords = records
	s.actions.Record(ctx, userID, ActionGoalUpdate, fmt.Sprintf("goal %d", g.ID), "")
	v := s.view(*g, records)
	return &v, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Goal
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).First(&g).Error; err != nil {
			return dbErr(err, "goal")
		}
		if err := tx.Where("goal_id = ?", g.ID).Delete(&models.ProgressRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&g).Error
	})
	if err != nil {
		return err
	}
	s.actions.Record(ctx, userID, ActionGoalDelete, fmt.Sprintf("goal %d", goalID), "")
	return nil
}

// AddProgress stores a measurement. When it brings the goal to 100% the goal
// is marked completed and the user is notified.
func (s *GoalService) AddProgress(ctx context.Context, userID, goalID uint, in ProgressInput) (*models.ProgressRecord, *GoalView, error) {
	if in.Value <= 0 {
		return nil, nil, invalid("value must be positive")
	}
	recordedAt, err := parseOptionalDate(in.RecordedAt, s.now())
	if err != nil {
		return nil, nil, err
	}

	g, err := s.load(ctx, userID, goalID)
	if err != nil {
		return nil, nil, err
	}
	if g.Status == models.GoalStatusCancelled {
		return nil, nil, invalid("goal is cancelled")
	}

	rec := models.ProgressRecord{GoalID: g.ID, Value: in.Value, RecordedAt: recordedAt, Notes: in.Notes}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, nil, err
	}
	records := append(g.ProgressRecords, rec)

	justCompleted := false
	if CalculateGoalProgress(*g, records) >= 100 && g.Status != models.GoalStatusCompleted {
		if err := s.db.WithContext(ctx).Model(&models.Goal{}).
			Where("id = ?", g.ID).
			Update("status", models.GoalStatusCompleted).Error; err != nil {
			return nil, nil, err
		}
		g.Status = models.GoalStatusCompleted
		justCompleted = true
	}

	s.actions.Record(ctx, userID, ActionProgressAdd, fmt.Sprintf("goal %d value %.2f", g.ID, rec.Value), "")
	if justCompleted {
		s.notify.Emit(ctx, userID, NotifyGoalCompleted,
			fmt.Sprintf("Congratulations! You reached your %s goal of %.1f %s", strings.ReplaceAll(g.Type, "_", " "), g.TargetValue, g.Unit))
	}

	g.ProgressRecords = records
	v := s.view(*g, records)
	return &rec, &v, nil
}

func (s *GoalService) ListProgress(ctx context.Context, userID, goalID uint) ([]models.ProgressRecord, error) {
	g, err := s.load(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if g.ProgressRecords == nil {
		return []models.ProgressRecord{}, nil
	}
	return g.ProgressRecords, nil
}

func (s *GoalService) DeleteProgress(ctx context.Context, userID, goalID, recordID uint) error {
	if _, err := s.load(ctx, userID, goalID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND goal_id = ?", recordID, goalID).Delete(&models.ProgressRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("progress record")
	}
	return nil
}
