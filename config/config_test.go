package config

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{JWTSecret: "s", JWTTTL: time.Hour, DBDriver: "postgres", StorageProvider: "s3"}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }, "JWT_TTL"},
		{"bad driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"bad storage", func(c *Config) { c.StorageProvider = "gcs" }, "STORAGE_PROVIDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("DB_DRIVER", "SQLite")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JWTTTL != 72*time.Hour {
		t.Errorf("JWTTTL = %v", cfg.JWTTTL)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.ChatHistoryLimit != 10 {
		t.Errorf("ChatHistoryLimit = %d", cfg.ChatHistoryLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSQLServerDSN(t *testing.T) {
	c := Config{DBHost: "db", DBPort: "1433", DBUser: "sa", DBPassword: "p@ss", DBName: "HealthSync"}
	got := c.sqlServerDSN()
	if got != "sqlserver://sa:p%40ss@db:1433?database=HealthSync" {
		t.Errorf("dsn = %s", got)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := Seed(db); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	var n int64
	db.Model(&models.Permission{}).Count(&n)
	if int(n) != len(models.AllPermissions) {
		t.Errorf("permissions = %d, want %d", n, len(models.AllPermissions))
	}
	db.Model(&models.Role{}).Count(&n)
	if n != 2 {
		t.Errorf("roles = %d, want 2", n)
	}
	var admin models.Role
	db.Where("name = ?", models.RoleAdmin).First(&admin)
	db.Model(&models.RolePermission{}).Where("role_id = ?", admin.ID).Count(&n)
	if int(n) != len(models.AllPermissions) {
		t.Errorf("admin permissions = %d", n)
	}
	db.Model(&models.Exercise{}).Count(&n)
	if int(n) != len(seedExercises) {
		t.Errorf("exercises = %d", n)
	}
	db.Model(&models.FoodItem{}).Count(&n)
	if int(n) != len(seedFoods) {
		t.Errorf("foods = %d", n)
	}
}
