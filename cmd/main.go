package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/merofly/identity-service/config"
	"github.com/merofly/identity-service/db"
	"github.com/merofly/identity-service/internal/identity/handler"
	repo "github.com/merofly/identity-service/internal/identity/repository/postgres"
	"github.com/merofly/identity-service/internal/identity/service"
	"github.com/merofly/identity-service/internal/mailer"
	"github.com/merofly/identity-service/internal/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer dbPool.Close()

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		log.Fatalf("failed to create minio client: %v", err)
	}

	documentStore, err := storage.NewDocumentStore(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("failed to initialize document store: %v", err)
	}

	smtpMailer := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	userRepo := repo.NewRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := service.NewUserService(userRepo, tokenService, smtpMailer)
	reviewService := service.NewReviewService(userRepo, smtpMailer)

	authHandler := handler.NewAuthHandler(userService, documentStore)
	adminHandler := handler.NewAdminHandler(reviewService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, adminHandler, tokenService)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
