package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/adaptive-survey/config"
	"github.com/lshigami/adaptive-survey/database"
	_ "github.com/lshigami/adaptive-survey/docs" // Swagger docs - generated by swag
	apictrl "github.com/lshigami/adaptive-survey/internal/controller/api"
	webctrl "github.com/lshigami/adaptive-survey/internal/controller/web"
	"github.com/lshigami/adaptive-survey/internal/lock"
	"github.com/lshigami/adaptive-survey/internal/logger"
	"github.com/lshigami/adaptive-survey/internal/middleware"
	"github.com/lshigami/adaptive-survey/internal/oracle"
	"github.com/lshigami/adaptive-survey/internal/repository"
	"github.com/lshigami/adaptive-survey/internal/service"
	"github.com/lshigami/adaptive-survey/internal/session"
	"github.com/lshigami/adaptive-survey/internal/web"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Adaptive Survey API
// @version 1.0
// @description JSON endpoints of the adaptive survey platform: answer submission, survey management and insights.
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewOracle,
			NewLocker,
			session.NewManager,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewSurveyRepository,
			repository.NewSurveyResponseRepository,
			repository.NewQuestionRepository,
			repository.NewAnswerRepository,
			repository.NewInsightRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAuthService,
			service.NewSurveyService,
			service.NewQuestionSequencer,
			service.NewResponseInterpreter,
			service.NewInsightSynthesizer,
			service.NewProgressionService,
		),

		// Controllers Layer
		fx.Provide(
			webctrl.NewWebController,
			apictrl.NewSurveyAPIController,
		),

		fx.Invoke(func(cfg *config.Config) { logger.SetLevel(cfg.LogLevel) }),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

// NewOracle builds the provider chain from config. Without credentials every
// call fails, which the survey flow treats as "no more questions".
func NewOracle(lc fx.Lifecycle, cfg *config.Config) (oracle.Oracle, error) {
	o, cleanup, err := oracle.New(context.Background(), cfg.Oracle)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cleanup()
			return nil
		},
	})
	return o, nil
}

// NewLocker uses Redis when REDIS_ADDR is set so several instances share
// progression locks, and an in-process keyed mutex otherwise.
func NewLocker(lc fx.Lifecycle, cfg *config.Config) lock.Locker {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("Progression lock: in-process")
		return lock.NewKeyedMutex()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis ping failed, locks will retry on use")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.LockTTL).Msg("Progression lock: redis")
	return lock.NewRedisLocker(client, cfg.Redis.LockTTL)
}

func NewGinEngine(cfg *config.Config, sessions *session.Manager) (*gin.Engine, error) {
	switch cfg.Server.GinMode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.GinMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Session(sessions))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, nil
}

// RegisterRoutesAndStartServer wires the controllers and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	webController *webctrl.WebController,
	apiController *apictrl.SurveyAPIController,
) {
	apiController.RegisterRoutes(router)
	webController.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Adaptive survey server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	return database.AutoMigrate(db)
}
