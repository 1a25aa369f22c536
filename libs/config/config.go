// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	CourseAPI CourseAPIConfig
	APIKey    string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
// Tokens are issued by the platform auth service; this service only validates them
type JWTConfig struct {
	Secret string
}

// CourseAPIConfig holds settings for the remote course store API
type CourseAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		// Parse comma-separated origins
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		// If no valid origins found, default to allow all
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Remote course API configuration
	courseAPIBaseURL := os.Getenv("COURSE_API_BASE_URL")
	if courseAPIBaseURL == "" {
		return nil, fmt.Errorf("COURSE_API_BASE_URL is required")
	}
	cfg.CourseAPI.BaseURL = strings.TrimRight(courseAPIBaseURL, "/")

	// Course API key (optional, for service-to-service authentication)
	cfg.CourseAPI.APIKey = os.Getenv("COURSE_API_KEY")

	// Course API request timeout (default: 30 seconds)
	courseAPITimeoutStr := os.Getenv("COURSE_API_TIMEOUT")
	if courseAPITimeoutStr == "" {
		courseAPITimeoutStr = "30s"
	}
	courseAPITimeout, err := time.ParseDuration(courseAPITimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid COURSE_API_TIMEOUT: %w", err)
	}
	cfg.CourseAPI.Timeout = courseAPITimeout

	// API Key configuration (optional, for service-to-service authentication)
	cfg.APIKey = os.Getenv("API_KEY")

	return cfg, nil
}
