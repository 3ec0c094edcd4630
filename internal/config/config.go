package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort       int
	DatabasePath     string
	WebRoot          string // Directory with the static client files
	AllowedOrigin    string
	SessionTTL       time.Duration
	AssistantAPIKey  string
	AssistantModel   string
	AssistantName    string // Identity the assistant replies are broadcast under
	AssistantTrigger string
	AssistantPersona string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ttlStr := getEnv("SESSION_TTL_HOURS", "24")
	ttlHours, err := strconv.Atoi(ttlStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:       port,
		DatabasePath:     getEnv("DATABASE_PATH", "./babbel.db"),
		WebRoot:          getEnv("WEB_ROOT", "./web"),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://localhost:8080"),
		SessionTTL:       time.Duration(ttlHours) * time.Hour,
		AssistantAPIKey:  getEnv("GEMINI_API_KEY", ""),
		AssistantModel:   getEnv("ASSISTANT_MODEL", "gemini-2.0-flash"),
		AssistantName:    getEnv("ASSISTANT_NAME", "Bot"),
		AssistantTrigger: getEnv("ASSISTANT_TRIGGER", "@bot"),
		AssistantPersona: getEnv("ASSISTANT_PERSONA", "You are a friendly assistant in a group chat. Keep replies short and conversational."),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
