package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/config"
	"codequiz-session-service/internal/domain"
	"codequiz-session-service/internal/infra/memory"
	pgloader "codequiz-session-service/internal/infra/postgres"
	redisinfra "codequiz-session-service/internal/infra/redis"
	"codequiz-session-service/internal/infra/remote"
	transport "codequiz-session-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var questionLoader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	var categories app.CategoryRepository = memory.NewCategoryRepository(sampleCategories())
	if pool != nil {
		questionLoader = pgloader.NewQuestionLoader(pool)
		categories = pgloader.NewCategoryRepository(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, questionLoader, cacheTTL)
	} else {
		questions = memory.NewQuestionRepository(questionLoader, cacheTTL)
	}

	var history app.HistoryStore
	var historyReader transport.HistoryReader
	if redisClient != nil {
		store := redisinfra.NewHistoryStore(redisClient, config.TTLDuration(cfg.History.TTL, 30*24*time.Hour), cfg.History.MaxEntries)
		history, historyReader = store, store
	} else {
		store := memory.NewHistoryStore(int(cfg.History.MaxEntries))
		history, historyReader = store, store
	}

	var sessionService app.SessionService
	if cfg.Remote.BaseURL != "" {
		sessionService = remote.NewClient(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second)
	}

	provider := app.NewProvider(questions, sessionService, cfg.Quiz.QuestionCount, cfg.Quiz.TimeLimitSeconds)
	registry := app.NewRegistry()

	wsHandler := transport.NewWSHandler(registry, categories, provider, sessionService, history)
	restHandler := transport.NewRESTHandler(categories, questions, historyReader)
	router := transport.NewRouter(restHandler, wsHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCategories provides demo content for redis/postgres-less setups.
func sampleCategories() map[string]domain.Category {
	return map[string]domain.Category{
		"arrays": {ID: "arrays", Name: "Arrays", Description: "Array fundamentals", Difficulty: "easy"},
		"output": {ID: "output", Name: "Predict the Output", Difficulty: "medium", LanguagePartitioned: true},
	}
}

func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"arrays": {
			{ID: "q1", Prompt: "What is len([1,2,3,4])?", CorrectAnswer: "4", Points: 5},
			{
				ID:     "q2",
				Prompt: "Which access is O(1) for a slice?",
				Options: []domain.Option{
					{ID: "A", Text: "search", Correct: false},
					{ID: "B", Text: "index", Correct: true},
				},
				Points: 5,
			},
		},
		"output": {
			{ID: "q3", Prompt: "What does this print?", CodeSnippet: "fmt.Println(2 + 2)", CorrectAnswer: "4", Points: 10, Language: "go"},
			{ID: "q4", Prompt: "What does this print?", CodeSnippet: "print(2 ** 3)", CorrectAnswer: "8", Points: 10, Language: "python"},
		},
	}
}
