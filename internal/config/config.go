package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	BasicAuthUser string
	BasicAuthPass string

	// 两家聚合 API 的密钥；为空表示该来源未配置（不报错，直接禁用）
	NewsDataAPIKey string
	GNewsAPIKey    string

	// AI 话题扩展（OpenAI 兼容接口）
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	HealthCronSpec     string
	AggregatorCronSpec string

	// 每 IP 每分钟的请求上限
	RateLimitPerMinute int
}

func Load() *Config {
	// .env 存在则加载，不存在则忽略（本地开发用）
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "9000"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=newswave password=newswave dbname=newswave port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6380"),

		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),

		NewsDataAPIKey: getEnv("NEWSDATA_API_KEY", ""),
		GNewsAPIKey:    getEnv("GNEWS_API_KEY", ""),

		AIBaseURL: getEnv("AI_BASE_URL", "https://api.openai.com"),
		AIAPIKey:  getEnv("AI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", "gpt-4o-mini"),

		HealthCronSpec:     getEnv("HEALTH_CRON_SPEC", "*/5 * * * *"),
		AggregatorCronSpec: getEnv("AGGREGATOR_CRON_SPEC", "*/10 * * * *"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	log.Printf("config loaded: port=%s health_cron=%s aggregator_cron=%s", cfg.AppPort, cfg.HealthCronSpec, cfg.AggregatorCronSpec)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
