package lib

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string

	StoreDriver       string // mongo | memory
	MongoURI          string
	DBName            string
	MongoTransactions bool

	RedisURL      string // empty disables realtime events
	RedisPassword string
	RedisDB       int

	JWTSecret string
	ClientURL string

	SMTP struct {
		Host     string // empty logs emails instead of sending them
		Port     int
		Username string
		Password string
		From     string
	}

	StrictSend        bool
	SideEffectTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))

	timeout, err := time.ParseDuration(getEnv("SIDE_EFFECT_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		log.Printf("Invalid SIDE_EFFECT_TIMEOUT, using 10s")
		timeout = 10 * time.Second
	}

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		AppEnv:            getEnv("APP_ENV", "production"),
		StoreDriver:       getEnv("STORE_DRIVER", "mongo"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "talentnest"),
		MongoTransactions: getBool("MONGO_TRANSACTIONS", false),
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		JWTSecret:         getEnv("JWT_SECRET", "fallback-secret-key"),
		ClientURL:         getEnv("CLIENT_URL", "http://localhost:5173"),
		StrictSend:        getBool("CONNECTIONS_STRICT_SEND", false),
		SideEffectTimeout: timeout,
	}

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Port = smtpPort
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getEnv("SMTP_FROM", "TalentNest <no-reply@talentnest.dev>")

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
