package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Discord integration configuration
	Discord DiscordConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// DiscordConfig holds Discord bot and OAuth configuration
type DiscordConfig struct {
	BotToken     string
	GuildID      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	FrontendURL  string

	// Role ids that may log in through Discord OAuth
	AllowedRoleIDs []string

	// Staff rank mappings as "roleID:Name:Level" entries
	RoleMappings []RoleMapping

	// Role id marking retired staff
	RetiredRoleID string

	// How long a fetched member list stays fresh
	MemberCacheTTL time.Duration
}

// RoleMapping binds a Discord role id to a staff rank
type RoleMapping struct {
	RoleID string
	Name   string
	Level  int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
}

// Default staff rank mappings used when DISCORD_ROLE_MAPPINGS is unset.
var defaultRoleMappings = []RoleMapping{
	{RoleID: "1394520034700693534", Name: "Founder", Level: 3},
	{RoleID: "765079181666156545", Name: "Management", Level: 2},
	{RoleID: "885301651538329651", Name: "Admin", Level: 1},
}

const defaultRetiredRoleID = "761356380363816961"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			TokenExpiry: time.Duration(getEnvAsInt("JWT_TOKEN_EXPIRY", 86400)) * time.Second,
		},
		Discord: DiscordConfig{
			BotToken:       getEnv("DISCORD_BOT_TOKEN", ""),
			GuildID:        getEnv("DISCORD_GUILD_ID", ""),
			ClientID:       getEnv("DISCORD_CLIENT_ID", ""),
			ClientSecret:   getEnv("DISCORD_CLIENT_SECRET", ""),
			RedirectURL:    getEnv("DISCORD_REDIRECT_URI", "http://localhost:8080/api/discord-auth/callback"),
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
			AllowedRoleIDs: getEnvAsSlice("ALLOWED_ROLES", nil),
			RoleMappings:   getEnvAsRoleMappings("DISCORD_ROLE_MAPPINGS", defaultRoleMappings),
			RetiredRoleID:  getEnv("DISCORD_RETIRED_ROLE_ID", defaultRetiredRoleID),
			MemberCacheTTL: time.Duration(getEnvAsInt("DISCORD_MEMBER_CACHE_TTL", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
	}

	// Default to allowing any mapped staff rank when no explicit allow list is set
	if len(config.Discord.AllowedRoleIDs) == 0 {
		for _, m := range config.Discord.RoleMappings {
			config.Discord.AllowedRoleIDs = append(config.Discord.AllowedRoleIDs, m.RoleID)
		}
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	// Validate Discord configuration only in production mode
	if c.Server.Environment == "production" {
		if c.Discord.BotToken == "" {
			return fmt.Errorf("DISCORD_BOT_TOKEN is required in production mode")
		}

		if c.Discord.GuildID == "" {
			return fmt.Errorf("DISCORD_GUILD_ID is required in production mode")
		}

		if c.Discord.ClientID == "" {
			return fmt.Errorf("DISCORD_CLIENT_ID is required in production mode")
		}

		if c.Discord.ClientSecret == "" {
			return fmt.Errorf("DISCORD_CLIENT_SECRET is required in production mode")
		}
	}

	if len(c.Discord.RoleMappings) == 0 {
		return fmt.Errorf("DISCORD_ROLE_MAPPINGS must define at least one rank")
	}

	seen := make(map[string]string, len(c.Discord.RoleMappings))
	for _, m := range c.Discord.RoleMappings {
		if other, dup := seen[m.RoleID]; dup {
			return fmt.Errorf("DISCORD_ROLE_MAPPINGS binds role %s to both %s and %s", m.RoleID, other, m.Name)
		}
		seen[m.RoleID] = m.Name

		if c.Discord.RetiredRoleID != "" && m.RoleID == c.Discord.RetiredRoleID {
			return fmt.Errorf("DISCORD_RETIRED_ROLE_ID collides with rank %s", m.Name)
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Split by comma
	var result []string
	for _, v := range splitString(valueStr, ",") {
		trimmed := trimString(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// getEnvAsRoleMappings parses "roleID:Name:Level" entries separated by commas
func getEnvAsRoleMappings(key string, defaultValue []RoleMapping) []RoleMapping {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []RoleMapping
	for _, entry := range splitString(valueStr, ",") {
		entry = trimString(entry)
		if entry == "" {
			continue
		}
		parts := splitString(entry, ":")
		if len(parts) != 3 {
			log.Printf("Invalid role mapping entry %q, skipping", entry)
			continue
		}
		level, err := strconv.Atoi(trimString(parts[2]))
		if err != nil {
			log.Printf("Invalid role mapping level in %q, skipping", entry)
			continue
		}
		result = append(result, RoleMapping{
			RoleID: trimString(parts[0]),
			Name:   trimString(parts[1]),
			Level:  level,
		})
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Helper to split strings
func splitString(s, sep string) []string {
	var result []string
	current := ""
	for _, char := range s {
		if string(char) == sep {
			result = append(result, current)
			current = ""
		} else {
			current += string(char)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

// Helper to trim strings
func trimString(s string) string {
	start := 0
	end := len(s)

	// Trim leading spaces
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}

	// Trim trailing spaces
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}

	return s[start:end]
}
