package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/validideahq/valididea/internal/application"
	appauth "github.com/validideahq/valididea/internal/application/auth"
	appchat "github.com/validideahq/valididea/internal/application/chat"
	appexport "github.com/validideahq/valididea/internal/application/export"
	appideas "github.com/validideahq/valididea/internal/application/ideas"
	appspotlight "github.com/validideahq/valididea/internal/application/spotlight"
	"github.com/validideahq/valididea/internal/config"
	domanalyses "github.com/validideahq/valididea/internal/domain/analyses"
	domchat "github.com/validideahq/valididea/internal/domain/chat"
	domgen "github.com/validideahq/valididea/internal/domain/generrors"
	domideas "github.com/validideahq/valididea/internal/domain/ideas"
	domusers "github.com/validideahq/valididea/internal/domain/users"
	aiclient "github.com/validideahq/valididea/internal/infra/ai/openai"
	mysqlp "github.com/validideahq/valididea/internal/infra/db/mysql"
	postgresp "github.com/validideahq/valididea/internal/infra/db/postgres"
	"github.com/validideahq/valididea/internal/infra/httpserver"
	minioStore "github.com/validideahq/valididea/internal/infra/storage"
	"github.com/validideahq/valididea/internal/logger"
	"github.com/validideahq/valididea/internal/middleware"
)

const spotlightUserID = "00000000-0000-0000-0000-000000000001"

func main() {
	// secrets from .env when present
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log

	ctx := context.Background()

	var (
		db           *sql.DB
		ideaRepo     domideas.Repository
		analysisRepo domanalyses.Repository
		userRepo     domusers.Repository
		chatRepo     domchat.Repository
		genErrRepo   domgen.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.WithError(err).Fatal("postgres connect error")
		}
		if err := postgresp.RunMigrations(ctx, db); err != nil {
			log.WithError(err).Fatal("migration error")
		}
		ideaRepo = postgresp.NewIdeaRepository(db)
		analysisRepo = postgresp.NewAnalysisRepository(db)
		userRepo = postgresp.NewUserRepository(db)
		chatRepo = postgresp.NewChatRepository(db)
		genErrRepo = postgresp.NewGenErrorRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.WithError(err).Fatal("mysql connect error")
		}
		if err := mysqlp.RunMigrations(ctx, db); err != nil {
			log.WithError(err).Fatal("migration error")
		}
		ideaRepo = mysqlp.NewIdeaRepository(db)
		analysisRepo = mysqlp.NewAnalysisRepository(db)
		userRepo = mysqlp.NewUserRepository(db)
		chatRepo = mysqlp.NewChatRepository(db)
		genErrRepo = mysqlp.NewGenErrorRepository(db)
	}
	defer db.Close()

	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.WithError(err).Fatal("minio init error")
	}

	generator := aiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	clock := application.SystemClock{}

	ideasSvc := &appideas.Service{
		Ideas:     ideaRepo,
		Analyses:  analysisRepo,
		Users:     userRepo,
		GenErrors: genErrRepo,
		Generator: generator,
		Clock:     clock,
		Log:       log,
	}
	authSvc := &appauth.Service{
		Users:         userRepo,
		Clock:         clock,
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
	}
	chatSvc := &appchat.Service{
		Messages:  chatRepo,
		Analyses:  analysisRepo,
		Generator: generator,
		Clock:     clock,
	}
	exportSvc := &appexport.Service{
		Analyses: analysisRepo,
		Store:    store,
		Clock:    clock,
	}

	systemUser := cfg.Spotlight.SystemUserID
	if systemUser == "" {
		systemUser = spotlightUserID
	}
	if err := ensureSystemUser(ctx, userRepo, systemUser, clock); err != nil {
		log.WithError(err).Fatal("spotlight user init error")
	}
	spotlightSvc := &appspotlight.Service{
		Ideas:        ideasSvc,
		Clock:        clock,
		SystemUserID: systemUser,
	}

	handler := httpserver.NewRouter(authSvc, ideasSvc, chatSvc, exportSvc, spotlightSvc, httpserver.Options{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RateLimit:     cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		HealthChecks: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}

	// let in-flight generations record their terminal status
	ideasSvc.Wait()
}

// ensureSystemUser creates the account that owns idea-of-the-day records.
func ensureSystemUser(ctx context.Context, repo domusers.Repository, id string, clock application.Clock) error {
	_, err := repo.GetByID(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domusers.ErrNotFound) {
		return err
	}

	now := clock.Now()
	return repo.Create(ctx, &domusers.User{
		ID:             id,
		Email:          "spotlight@valididea.internal",
		Name:           "Idea of the Day",
		PasswordHash:   "-",
		Role:           domusers.RoleAdmin,
		Credits:        domusers.DailyCredits,
		CreditsResetAt: now,
		Verified:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}
