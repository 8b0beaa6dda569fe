package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	LogFormat     string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Secondary lead webhook (e.g. a spreadsheet script). Empty disables it.
	LeadWebhookURL     string
	LeadWebhookTimeout time.Duration

	// AI chat completion
	AIProvider     string
	AIChatURL      string
	AITimeout      time.Duration
	AIMaxHistory   int
	ChatMaxStored  int
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	BedrockModelID string
	ChatSessionTTL time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Dashboard
	DashboardJWTSecret string
	AwayRole           string

	CORSAllowedOrigins  []string
	IntakeRatePerMinute int
	IntakeRateBurst     int
	SiteConfigPath      string
	NewLeadNotifyEmail  string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment values win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		LeadWebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
		LeadWebhookTimeout: getEnvAsDuration("LEAD_WEBHOOK_TIMEOUT", 10*time.Second),

		AIProvider:     strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", "none"))),
		AIChatURL:      getEnv("AI_CHAT_URL", ""),
		AITimeout:      getEnvAsDuration("AI_TIMEOUT", 15*time.Second),
		AIMaxHistory:   getEnvAsInt("AI_MAX_HISTORY", 20),
		ChatMaxStored:  getEnvAsInt("CHAT_MAX_STORED", 100),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		ChatSessionTTL: getEnvAsDuration("CHAT_SESSION_TTL", 2*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		DashboardJWTSecret: getEnv("DASHBOARD_JWT_SECRET", ""),
		AwayRole:           getEnv("AWAY_ROLE", "manager"),

		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		IntakeRatePerMinute: getEnvAsInt("INTAKE_RATE_PER_MINUTE", 30),
		IntakeRateBurst:     getEnvAsInt("INTAKE_RATE_BURST", 10),
		SiteConfigPath:      getEnv("SITE_CONFIG_PATH", ""),
		NewLeadNotifyEmail:  getEnv("NEW_LEAD_NOTIFY_EMAIL", ""),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Florida Pro Leads"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
