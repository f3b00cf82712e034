package config

import (
	"os"
	"strconv"
	"time"

	"chatpdf/internal/common"
)

// Config holds all application configuration
type Config struct {
	OCR    OCRConfig
	Chat   ChatConfig
	LLM    LLMConfig
	Server ServerConfig
}

// OCRConfig holds extraction-related configuration
type OCRConfig struct {
	Enabled      bool
	Threshold    float64 // text quality below this triggers OCR
	Resolution   int     // rasterization DPI
	Language     string
	WordlistPath string // optional override for the reference word list
}

// ChatConfig holds chat-session configuration
type ChatConfig struct {
	MaxHistory int
	MaxTokens  int
}

// LLMConfig holds completion-service configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ServerConfig holds web-host configuration
type ServerConfig struct {
	Host        string
	Port        string
	UploadDir   string
	MaxUploadMB int64
	DBPath      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Enabled:      getEnvAsBool("OCR_ENABLED", true),
			Threshold:    getEnvAsFloat64("TEXT_QUALITY_THRESHOLD", 0.1),
			Resolution:   getEnvAsInt("OCR_RESOLUTION", 200),
			Language:     getEnv("OCR_LANGUAGE", "eng"),
			WordlistPath: getEnv("WORDLIST_PATH", ""),
		},
		Chat: ChatConfig{
			MaxHistory: getEnvAsInt("MAX_CONVERSATION_HISTORY", 20),
			MaxTokens:  getEnvAsInt("MAX_TOKENS", 1000),
		},
		LLM: LLMConfig{
			Model:       getEnv("CHAT_MODEL", "gemini-2.5-flash"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
			Temperature: getEnvAsFloat32("TEMPERATURE", 0.3),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Server: ServerConfig{
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        getEnv("PORT", "8000"),
			UploadDir:   getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxUploadMB: int64(getEnvAsInt("MAX_UPLOAD_MB", 10)),
			DBPath:      getEnv("DB_PATH", "./data/chatpdf.db"),
		},
	}
}

// Validate checks configuration needed before talking to the completion service.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return common.NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", common.ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
