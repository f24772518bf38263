package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Backend BackendConfig
	Auth    AuthConfig
	Printer PrinterConfig
}

type ServerConfig struct {
	Port      string
	RateLimit string
}

type BackendConfig struct {
	BaseURL string
	Token   string
}

type AuthConfig struct {
	JWTSecret   string
	OperatorPIN string
}

type PrinterConfig struct {
	Addr string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			RateLimit: getEnv("RATE_LIMIT", "120-M"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_URL", "http://localhost:9000"),
			Token:   getEnv("BACKEND_TOKEN", ""),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			OperatorPIN: getEnv("OPERATOR_PIN", "0000"),
		},
		Printer: PrinterConfig{
			Addr: getEnv("PRINTER_ADDR", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
