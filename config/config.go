package config

import (
	"fmt"
	"os"
)

// Config collects every environment setting the service needs. It is loaded
// once in main and handed to the collaborators it configures; nothing reads
// os.Getenv after startup.
type Config struct {
	Port     string
	MongoURI string
	DBName   string

	RedisAddr string
	RedisPass string

	JWTSecret string

	GoogleMapsKey string

	AWSRegion  string
	S3Bucket   string
	EmailFrom  string
	EmailReply string

	AppName   string
	ClientURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		MongoURI:      os.Getenv("MONGOURI"),
		DBName:        getenv("DB", "openhaus"),
		RedisAddr:     os.Getenv("REDIS_ADD"),
		RedisPass:     os.Getenv("REDIS_PASS"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		GoogleMapsKey: os.Getenv("GOOGLE_MAPS_KEY"),
		AWSRegion:     os.Getenv("AWS_REGION"),
		S3Bucket:      os.Getenv("AWS_BUCKET_NAME"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailReply:    os.Getenv("EMAIL_TO"),
		AppName:       getenv("APP_NAME", "Openhaus"),
		ClientURL:     os.Getenv("CLIENT_URL"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGOURI not set in environment")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set in environment")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
