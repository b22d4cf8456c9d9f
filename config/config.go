package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBDSN      string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string
	FrontendURL string

	AWSRegion     string
	S3Region      string
	S3Bucket      string
	CloudFrontURL string
	SESEmail      string
	SNSFCMArn     string

	StorageProvider     string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
	ChatHistoryLimit int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	AdminEmail string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "healthsync")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("STORAGE_PROVIDER", "s3")
	v.SetDefault("LLM_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("CHAT_HISTORY_LIMIT", 10)

	cfg := &Config{
		Env:        v.GetString("APP_ENV"),
		Port:       v.GetString("PORT"),
		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		DBDSN:      v.GetString("DB_DSN"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		FrontendURL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),

		AWSRegion:     v.GetString("AWS_REGION"),
		S3Region:      v.GetString("S3_REGION"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		CloudFrontURL: strings.TrimRight(v.GetString("CLOUDFRONT_URL"), "/"),
		SESEmail:      v.GetString("SES_EMAIL"),
		SNSFCMArn:     v.GetString("SNS_FCM_ARN"),

		StorageProvider:     strings.ToLower(v.GetString("STORAGE_PROVIDER")),
		CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),

		LLMAPIKey:        v.GetString("LLM_API_KEY"),
		LLMBaseURL:       strings.TrimRight(v.GetString("LLM_BASE_URL"), "/"),
		LLMModel:         v.GetString("LLM_MODEL"),
		ChatHistoryLimit: v.GetInt("CHAT_HISTORY_LIMIT"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),

		AdminEmail: strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
	}
	if cfg.S3Region == "" {
		cfg.S3Region = cfg.AWSRegion // fallback
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.DBDriver {
	case "postgres", "sqlserver", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageProvider {
	case "s3", "cloudinary":
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.StorageProvider)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c *Config) postgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) sqlServerDSN() string {
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		RawQuery: url.Values{"database": {c.DBName}}.Encode(),
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
