package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	JWTTTL          time.Duration
	GoogleAudience  string
	AllowOrigins    []string
	LogstashTCPAddr string

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	MinIOBucketAvatar string
	MinIOPublicURL    string

	RedisAddr       string
	RedisPassword   string
	OTPRateWindow   time.Duration
	OTPRateMax      int
	AvatarMaxBytes  int64
	AvatarMaxPixels int

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PasswordResetTTL       time.Duration
	ResetTokenTTL          time.Duration
	PasswordResetOTPLength int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	otpLen := 6
	if v, err := strconv.Atoi(getenv("PASSWORD_RESET_OTP_LENGTH", "6")); err == nil && v > 0 {
		otpLen = v
	}

	avatarMax := int64(2 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("AVATAR_MAX_BYTES", "2097152"), 10, 64); err == nil && v > 0 {
		avatarMax = v
	}

	avatarPixels := 1024
	if v, err := strconv.Atoi(getenv("AVATAR_MAX_PIXELS", "1024")); err == nil && v > 0 {
		avatarPixels = v
	}

	rateMax := 3
	if v, err := strconv.Atoi(getenv("PASSWORD_RESET_RATE_MAX", "3")); err == nil && v > 0 {
		rateMax = v
	}

	return Config{
		Port:            getenv("PORT", "3001"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		JWTTTL:          duration(getenv("JWT_TTL", "168h"), 168*time.Hour),
		GoogleAudience:  getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		MinIOEndpoint:     getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketAvatar: getenv("MINIO_BUCKET_AVATAR", "cyberpay-avatars"),
		MinIOPublicURL:    getenv("MINIO_PUBLIC_URL", ""),

		RedisAddr:       getenv("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),
		OTPRateWindow:   duration(getenv("PASSWORD_RESET_RATE_WINDOW", "10m"), 10*time.Minute),
		OTPRateMax:      rateMax,
		AvatarMaxBytes:  avatarMax,
		AvatarMaxPixels: avatarPixels,

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		PasswordResetTTL:       duration(getenv("PASSWORD_RESET_TTL", "10m"), 10*time.Minute),
		ResetTokenTTL:          duration(getenv("RESET_TOKEN_TTL", "10m"), 10*time.Minute),
		PasswordResetOTPLength: otpLen,
	}
}

func duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
