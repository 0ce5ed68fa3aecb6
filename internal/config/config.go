package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                 string
	MongoURI             string
	MongoDatabase        string
	SurveyCollection     string
	AccessCodeCollection string
	ResponseCollection   string
	UserCollection       string
	AuditCollection      string
	Timeout              time.Duration
	Timezone             string
	ServerLog            *log.Logger
	JWTConfigs           []JWTConfig
	JWTAudience          string
	AllowedOrigins       []string
	DefaultRewardPoints  int
	// DevAdminSubject が設定されている場合、Authorization ヘッダーなしの
	// 管理リクエストへこの subject の管理者を合成する。ローカル・テスト専用の
	// 明示的なフィクスチャであり、ビジネスロジック側は一切関知しない。
	DevAdminSubject string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	timeout := 10 * time.Second
	if v := os.Getenv("MONGO_CONNECT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			timeout = parsed
		}
	}

	allowedOrigins := parseList("API_ALLOWED_ORIGINS", []string{"*"})

	devAdminSubject := strings.TrimSpace(os.Getenv("AUTH_DEV_ADMIN_SUBJECT"))

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("AUTH_BUSINESS_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_BUSINESS_JWT_ISSUER", "qr-survey-auth"),
			Secret: []byte(secret),
		})
	}
	if secret := strings.TrimSpace(os.Getenv("AUTH_CUSTOMER_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_CUSTOMER_JWT_ISSUER", "qr-survey-customer-auth"),
			Secret: []byte(secret),
		})
	}

	if len(jwtConfigs) == 0 && devAdminSubject == "" {
		log.Fatal("JWT secrets not configured. Set AUTH_BUSINESS_JWT_SECRET or AUTH_CUSTOMER_JWT_SECRET.")
	}

	jwtAudience := strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE"))

	defaultReward := 10
	if raw := strings.TrimSpace(os.Getenv("DEFAULT_REWARD_POINTS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			defaultReward = parsed
		}
	}

	cfg := Config{
		Addr:                 envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:             envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:        envOrDefault("MONGO_DB", "qr-survey-rewards"),
		SurveyCollection:     envOrDefault("SURVEY_COLLECTION", "surveys"),
		AccessCodeCollection: envOrDefault("ACCESS_CODE_COLLECTION", "access_codes"),
		ResponseCollection:   envOrDefault("RESPONSE_COLLECTION", "responses"),
		UserCollection:       envOrDefault("USER_COLLECTION", "users"),
		AuditCollection:      envOrDefault("AUDIT_COLLECTION", "point_audit"),
		Timeout:              timeout,
		Timezone:             envOrDefault("TIMEZONE", "Asia/Tokyo"),
		ServerLog:            log.New(os.Stdout, "[qr-survey-api] ", log.LstdFlags|log.Lshortfile),
		JWTConfigs:           jwtConfigs,
		JWTAudience:          jwtAudience,
		AllowedOrigins:       allowedOrigins,
		DefaultRewardPoints:  defaultReward,
		DevAdminSubject:      devAdminSubject,
	}

	if devAdminSubject != "" {
		cfg.ServerLog.Printf("開発用管理者フィクスチャが有効です subject=%s", devAdminSubject)
	}

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
