package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port           int
	NatsURL        string
	NatsToken      string
	DatabaseURL    string
	DBSelectURL    string
	LogLevel       string
	TogetherAPIKey string
	TogetherModel  string
	APIToken       string
}

func Load() Config {
	return Config{
		Port:           envInt("QUILL_PORT", 8460),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		DBSelectURL:    envStr("DBSELECT_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		TogetherAPIKey: envStr("TOGETHER_API_KEY", ""),
		TogetherModel:  envStr("QUILL_MODEL", "meta-llama/Llama-4-Maverick-17B-128E-Instruct-FP8"),
		APIToken:       envStr("QUILL_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
