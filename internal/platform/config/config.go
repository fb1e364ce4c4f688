package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UserDirectoryCacheKey string
	UserDirectoryCacheTTL time.Duration

	RateLimitPerSecond int
	RateLimitBurst     int

	SeedAdminUsername string
	SeedAdminFullName string
	SeedAdminPassword string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		JWTKey:                []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "user"),
		DBPassword:            getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "wastewise_db"),
		DBSslMode:             getEnv("DB_SSLMODE", "disable"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		UserDirectoryCacheKey: getEnv("USER_DIRECTORY_CACHE_KEY", "users:directory"),
		UserDirectoryCacheTTL: time.Duration(getEnvAsInt("USER_DIRECTORY_CACHE_TTL_SECONDS", 300)) * time.Second,
		RateLimitPerSecond:    getEnvAsInt("RATE_LIMIT_PER_SECOND", 50),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 100),
		SeedAdminUsername:     getEnv("SEED_ADMIN_USERNAME", "admin@ministry.gov"),
		SeedAdminFullName:     getEnv("SEED_ADMIN_FULL_NAME", "Ministry Admin"),
		SeedAdminPassword:     getEnv("SEED_ADMIN_PASSWORD", "admin123"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
