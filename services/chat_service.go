package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/llm"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

const (
	maxQuestionLen      = 2000
	defaultHistoryLimit = 10
)

// ChatCompleter is the completion API the chatbot talks to.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
	Model() string
}

type ChatService struct {
	db           *gorm.DB
	llm          ChatCompleter
	historyLimit int
	now          func() time.Time
}

func NewChatService(db *gorm.DB, completer ChatCompleter, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatService{db: db, llm: completer, historyLimit: historyLimit, now: time.Now}
}

type AskInput struct {
	Question string `json:"question" binding:"required"`
}

type ChatExchange struct {
	Question models.ChatMessage `json:"question"`
	Answer   models.ChatMessage `json:"answer"`
}

type chatContext struct {
	Model       string `json:"model"`
	HistorySize int    `json:"history_size"`
}

// Ask sends the question with recent history to the completion API. Nothing is
// stored unless the API answers.
func (s *ChatService) Ask(ctx context.Context, userID uint, question string) (*ChatExchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, invalid("question cannot be empty")
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return nil, invalid("question cannot exceed %d characters", maxQuestionLen)
	}

	history, err := s.recent(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	system, err := s.systemPrompt(ctx, userID)
	if err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, h := range history {
		msgs = append(msgs, llm.Message{Role: h.Role, Content: h.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: question})

	answer, err := s.llm.Chat(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	meta, _ := json.Marshal(chatContext{Model: s.llm.Model(), HistorySize: len(history)})
	now := s.now()
	ex := &ChatExchange{
		Question: models.ChatMessage{UserID: userID, Role: models.ChatRoleUser, Content: question, CreatedAt: now},
		Answer: models.ChatMessage{UserID: userID, Role: models.ChatRoleAssistant, Content: strings.TrimSpace(answer),
			Context: datatypes.JSON(meta), CreatedAt: now},
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ex.Question).Error; err != nil {
			return err
		}
		return tx.Create(&ex.Answer).Error
	})
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// History returns up to limit of the latest messages, oldest first.
func (s *ChatService) History(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.recent(ctx, userID, limit)
}

func (s *ChatService) ClearHistory(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ChatMessage{})
	return res.RowsAffected, res.Error
}

func (s *ChatService) recent(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// systemPrompt describes the user's profile, active goals and today's intake.
func (s *ChatService) systemPrompt(ctx context.Context, userID uint) (string, error) {
	var sb bytes.Buffer
	sb.WriteString("You are HealthSync's health assistant. Give practical, safe advice about fitness, nutrition and goal tracking. ")
	sb.WriteString("You are not a doctor; recommend seeing a professional for medical concerns. Keep answers concise.\n\n")

	var profile models.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	sb.WriteString("User profile:\n")
	if profile.DateOfBirth != nil {
		fmt.Fprintf(&sb, "- age: %d\n", utils.CalculateAge(*profile.DateOfBirth, s.now()))
	}
	if profile.Gender != "" {
		fmt.Fprintf(&sb, "- gender: %s\n", profile.Gender)
	}
	if profile.HeightCm > 0 {
		fmt.Fprintf(&sb, "- height: %.0f cm\n", profile.HeightCm)
	}
	if profile.WeightKg > 0 {
		fmt.Fprintf(&sb, "- weight: %.1f kg\n", profile.WeightKg)
	}
	if bmi, err := utils.CalculateBMI(profile.HeightCm, profile.WeightKg); err == nil {
		fmt.Fprintf(&sb, "- BMI: %.1f (%s)\n", bmi, utils.BMICategory(bmi))
	}
	if profile.ActivityLevel != "" {
		fmt.Fprintf(&sb, "- activity level: %s\n", profile.ActivityLevel)
	}

	var goals []models.Goal
	if err := s.db.WithContext(ctx).
		Preload("ProgressRecords").
		Where("user_id = ? AND status = ?", userID, models.GoalStatusActive).
		Find(&goals).Error; err != nil {
		return "", err
	}
	sb.WriteString("\nActive goals:\n")
	if len(goals) == 0 {
		sb.WriteString("- (none)\n")
	}
	for _, g := range goals {
		ev := EvaluateGoal(g, g.ProgressRecords, s.now())
		fmt.Fprintf(&sb, "- %s to %.1f %s by %s, %.0f%% done (%s)\n",
			strings.ReplaceAll(g.Type, "_", " "), g.TargetValue, g.Unit,
			g.EndDate.Format(dateLayout), ev.Progress, ev.DerivedStatus)
	}

	var today Macros
	if err := s.db.WithContext(ctx).
		Model(&models.NutritionLog{}).
		Select("COALESCE(SUM(total_calories),0) AS calories, COALESCE(SUM(total_protein),0) AS protein, "+
			"COALESCE(SUM(total_carbs),0) AS carbs, COALESCE(SUM(total_fat),0) AS fat").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, dayStart(s.now().UTC()), dayEnd(s.now().UTC())).
		Scan(&today).Error; err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "\nToday's intake: %.0f kcal, %.0f g protein, %.0f g carbs, %.0f g fat\n",
		today.Calories, today.Protein, today.Carbs, today.Fat)
	return sb.String(), nil
}
