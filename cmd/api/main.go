package main

import (
	"io"
	"log"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cyberpay-th/cyberpay-backend/internal/config"
	"github.com/cyberpay-th/cyberpay-backend/internal/logging"
	"github.com/cyberpay-th/cyberpay-backend/internal/repository/minio"
	"github.com/cyberpay-th/cyberpay-backend/internal/repository/ports"
	"github.com/cyberpay-th/cyberpay-backend/internal/repository/postgres"
	"github.com/cyberpay-th/cyberpay-backend/internal/repository/redis"
	"github.com/cyberpay-th/cyberpay-backend/internal/service"
	transporthttp "github.com/cyberpay-th/cyberpay-backend/internal/transport/http"
	"github.com/cyberpay-th/cyberpay-backend/internal/transport/mail"
	"github.com/cyberpay-th/cyberpay-backend/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	users := postgres.NewUserRepo(db)
	sessions := postgres.NewSessionRepo(db)
	resets := postgres.NewPasswordResetRepo(db)

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect minio: %v", err)
		}
		storage = minio.NewStorage(client, cfg.MinIOPublicURL)
	}

	var limiter ports.OTPRateLimiter
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter = redis.NewOTPRateLimiter(rdb, cfg.OTPRateWindow, cfg.OTPRateMax)
	}

	var mailer service.PasswordResetSender
	if cfg.SMTPHost != "" {
		mailer = mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("smtp not configured, reset codes go to the server log")
		mailer = mail.NewConsoleMailer()
	}

	auth := service.NewAuthService(
		users, sessions, resets, storage, mailer, limiter,
		util.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		service.AuthConfig{
			GoogleAudience:  cfg.GoogleAudience,
			AvatarBucket:    cfg.MinIOBucketAvatar,
			ResetTTL:        cfg.PasswordResetTTL,
			ResetTokenTTL:   cfg.ResetTokenTTL,
			OTPLength:       cfg.PasswordResetOTPLength,
			AvatarMaxBytes:  cfg.AvatarMaxBytes,
			AvatarMaxPixels: cfg.AvatarMaxPixels,
		},
	)

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterAuth(e, auth)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
