package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/strawberrymilktea0604/HealthSync-sub001/llm"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

func TestChatAskPersistsExchange(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "chat@example.com", models.RoleUser)
	db.Create(&models.UserProfile{UserID: u.ID, HeightCm: 180, WeightKg: 81})
	ctx := context.Background()

	goals := NewGoalService(db, &fakeNotifier{}, nopRecorder{})
	if _, err := goals.Create(ctx, u.ID, GoalInput{Type: models.GoalTypeWeightLoss, TargetValue: 75, StartDate: "2026-01-01", EndDate: "2026-12-31"}); err != nil {
		t.Fatal(err)
	}

	llmFake := &fakeCompleter{answer: "  Drink water.  "}
	s := NewChatService(db, llmFake, 0)

	ex, err := s.Ask(ctx, u.ID, "How much water?")
	if err != nil {
		t.Fatal(err)
	}
	if ex.Answer.Content != "Drink water." || ex.Question.Role != models.ChatRoleUser || ex.Answer.Role != models.ChatRoleAssistant {
		t.Fatalf("exchange %+v", ex)
	}
	var meta struct {
		Model       string `json:"model"`
		HistorySize int    `json:"history_size"`
	}
	if err := json.Unmarshal(ex.Answer.Context, &meta); err != nil || meta.Model != "test-model" {
		t.Fatalf("context %s (%v)", ex.Answer.Context, err)
	}

	if len(llmFake.got) != 2 || llmFake.got[0].Role != llm.RoleSystem {
		t.Fatalf("messages %+v", llmFake.got)
	}
	system := llmFake.got[0].Content
	for _, want := range []string{"height: 180 cm", "BMI: 25.0", "weight loss to 75.0 kg"} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt lacks %q:\n%s", want, system)
		}
	}

	hist, err := s.History(ctx, u.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[0].Role != models.ChatRoleUser || hist[1].Role != models.ChatRoleAssistant {
		t.Fatalf("history %+v", hist)
	}
}

func TestChatFailureStoresNothing(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "chat@example.com", models.RoleUser)
	s := NewChatService(db, &fakeCompleter{err: errors.New("upstream down")}, 10)
	ctx := context.Background()

	if _, err := s.Ask(ctx, u.ID, "hello"); err == nil {
		t.Fatal("expected error")
	}
	var n int64
	db.Model(&models.ChatMessage{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d messages stored", n)
	}

	for _, q := range []string{"   ", strings.Repeat("a", maxQuestionLen+1)} {
		if _, err := s.Ask(ctx, u.ID, q); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("question of %d chars: %v", len(q), err)
		}
	}
}

func TestChatHistoryWindow(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "chat@example.com", models.RoleUser)
	other := createUser(t, db, "other@example.com", models.RoleUser)
	fake := &fakeCompleter{answer: "ok"}
	s := NewChatService(db, fake, 2)
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		if _, err := s.Ask(ctx, u.ID, q); err != nil {
			t.Fatal(err)
		}
	}
	// system + last 2 stored messages + new question
	if len(fake.got) != 4 || fake.got[1].Content != "second" || fake.got[3].Content != "third" {
		t.Fatalf("sent %+v", fake.got)
	}

	if _, err := s.Ask(ctx, other.ID, "mine"); err != nil {
		t.Fatal(err)
	}
	n, err := s.ClearHistory(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Fatalf("cleared %d", n)
	}
	hist, _ := s.History(ctx, other.ID, 10)
	if len(hist) != 2 {
		t.Fatalf("other user's history: %d", len(hist))
	}
}
