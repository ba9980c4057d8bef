package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edufy-labs/challenge-api/internal/config"
	"github.com/edufy-labs/challenge-api/internal/database"
	"github.com/edufy-labs/challenge-api/internal/handler"
	"github.com/edufy-labs/challenge-api/internal/middleware"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/repository"
	"github.com/edufy-labs/challenge-api/internal/router"
	"github.com/edufy-labs/challenge-api/internal/service"
	cloud "github.com/edufy-labs/challenge-api/pkg/cloudinary"
	"github.com/edufy-labs/challenge-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.ChallengeSubmission{},
		&models.ChallengeEvaluation{},
		&models.SubmissionComment{},
		&models.Notification{},
		&models.NotificationPreference{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, notification relay limited to this node")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var mailSender service.MailSender
	if cfg.SendgridAPIKey != "" {
		sender, err := mailer.New(mailer.Config{
			APIKey:      cfg.SendgridAPIKey,
			FromName:    cfg.MailFromName,
			FromAddress: cfg.MailFromAddress,
			SubjectTag:  cfg.AppName,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		mailSender = sender
	} else {
		logger.Warn().Msg("sendgrid not configured, mail channel disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	challengeRepo := repository.NewChallengeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	uow := repository.NewUnitOfWork(db)

	notificationService := service.NewNotificationService(
		notificationRepo,
		preferenceRepo,
		redisClient,
		cfg.EventChannelBase,
		natsConn,
		validate,
		logger,
	)

	dispatcher := service.NewNotificationDispatcher(
		userRepo,
		challengeRepo,
		submissionRepo,
		commentRepo,
		notificationRepo,
		preferenceRepo,
		notificationService,
		mailSender,
		service.DispatcherConfig{
			DefaultChannels: cfg.DefaultChannels,
			MailTypes:       cfg.MailNotificationTypes,
			FrontendBaseURL: cfg.FrontendBaseURL,
		},
		logger,
	)

	submissionService := service.NewSubmissionService(submissionRepo, challengeRepo, uow, dispatcher, validate, uploader, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, submissionRepo, uow, dispatcher, validate, logger)
	commentService := service.NewCommentService(commentRepo, submissionRepo, dispatcher, validate, logger)
	challengeService := service.NewChallengeService(challengeRepo, submissionRepo, uow, dispatcher, validate, logger)
	activityService := service.NewActivityService(activityRepo, logger)

	challengeHandler := handler.NewChallengeHandler(challengeService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, evaluationService, commentService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ChallengeHandler:    challengeHandler,
		SubmissionHandler:   submissionHandler,
		NotificationHandler: notificationHandler,
		ActivityHandler:     activityHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	notificationService.Start(relayCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
