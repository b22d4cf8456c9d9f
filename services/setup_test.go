package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/strawberrymilktea0604/HealthSync-sub001/config"
	"github.com/strawberrymilktea0604/HealthSync-sub001/llm"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := config.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := config.Seed(db); err != nil {
		t.Fatal(err)
	}
	return db
}

// createUser inserts an active user holding the given roles.
func createUser(t *testing.T, db *gorm.DB, email string, roles ...string) models.User {
	t.Helper()
	u := models.User{Email: email, FullName: "Test User", IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	for _, name := range roles {
		var r models.Role
		if err := db.Where("name = ?", name).First(&r).Error; err != nil {
			t.Fatal(err)
		}
		if err := db.Create(&models.UserRole{UserID: u.ID, RoleID: r.ID}).Error; err != nil {
			t.Fatal(err)
		}
	}
	return u
}

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }

type sentNotification struct {
	UserID  uint
	Type    string
	Message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Emit(_ context.Context, userID uint, typ, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{userID, typ, message})
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, uint, string, string, string) {}

type fakeCompleter struct {
	answer string
	err    error
	got    []llm.Message
}

func (f *fakeCompleter) Chat(_ context.Context, msgs []llm.Message) (string, error) {
	f.got = msgs
	return f.answer, f.err
}

func (f *fakeCompleter) Model() string { return "test-model" }

type recordingMailer struct {
	to, subject, body string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}
