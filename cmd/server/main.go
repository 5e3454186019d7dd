package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dhelicopters/pubquiz/internal/config"
	"github.com/dhelicopters/pubquiz/internal/database"
	"github.com/dhelicopters/pubquiz/internal/handlers"
	"github.com/dhelicopters/pubquiz/internal/logging"
	"github.com/dhelicopters/pubquiz/internal/middleware"
	"github.com/dhelicopters/pubquiz/internal/services"
	"github.com/dhelicopters/pubquiz/internal/ws"

	_ "github.com/dhelicopters/pubquiz/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
)

// @title           Pub Quiz API
// @version         1.0
// @description     Live multi-team quiz sessions with role-scoped realtime updates
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	if err := database.SeedQuestions(db); err != nil {
		return fmt.Errorf("seeding question catalog: %w", err)
	}
	logging.Logger.Info("database ready", "name", cfg.DBName)

	registry := ws.NewRegistry()

	guard := services.NewAuthorizationGuard()
	authService := services.NewAuthService(db, cfg.JWTSecret)
	quizService := services.NewQuizService(db, guard)

	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService)
	teamHandler := handlers.NewTeamHandler(quizService, registry)
	questionHandler := handlers.NewQuestionHandler(quizService, guard, registry)
	wsHandler := handlers.NewWSHandler(registry, authService, quizService, guard)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Team-Token"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/quizzes/:code", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		api.GET("/categories", middleware.JWTAuth(authService), quizHandler.ListCategories)

		quizzes := api.Group("/quizzes")
		{
			quizzes.POST("", middleware.JWTAuth(authService), quizHandler.CreateQuiz)
			quizzes.GET("/:code", quizHandler.GetQuiz)
			quizzes.PUT("/:code", middleware.JWTAuth(authService), quizHandler.SetActive)
			quizzes.GET("/:code/score", quizHandler.GetScore)

			quizzes.PUT("/:code/categories", middleware.JWTAuth(authService), quizHandler.ConfigureRound)
			quizzes.GET("/:code/categories/questions", middleware.JWTAuth(authService), quizHandler.GetRoundQuestions)

			quizzes.GET("/:code/teams", middleware.JWTAuth(authService), teamHandler.ListTeams)
			quizzes.POST("/:code/teams", teamHandler.JoinTeam)
			quizzes.PUT("/:code/teams", middleware.JWTAuth(authService), teamHandler.SetDefinitiveTeams)

			quizzes.PUT("/:code/active-questions", middleware.JWTAuth(authService), questionHandler.SetActiveQuestion)
			quizzes.GET("/:code/active-questions", middleware.ActorAuth(authService, quizService), questionHandler.GetActiveQuestion)
			quizzes.GET("/:code/active-questions/answers", middleware.JWTAuth(authService), questionHandler.GetGivenAnswers)
			quizzes.PUT("/:code/active-questions/answers", middleware.ActorAuth(authService, quizService), questionHandler.PutAnswers)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Logger.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Logger.Info("shutting down")
		registry.Drain()
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
