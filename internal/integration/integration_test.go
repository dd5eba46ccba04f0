package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/domain"
	pgloader "codequiz-session-service/internal/infra/postgres"
	pgmigrations "codequiz-session-service/internal/infra/postgres/migrations"
	infraredis "codequiz-session-service/internal/infra/redis"
	"codequiz-session-service/internal/timer"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedContent(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	questions := infraredis.NewQuestionRepository(redisClient, pgloader.NewQuestionLoader(pool), 5*time.Minute)
	categories := pgloader.NewCategoryRepository(pool)
	history := infraredis.NewHistoryStore(redisClient, 5*time.Minute, 100)
	provider := app.NewProvider(questions, nil, 10, 1800)

	category, err := categories.GetCategory(ctx, "arrays")
	if err != nil {
		t.Fatalf("get category: %v", err)
	}

	ctrl := app.NewControllerWithCountdown("u1", category, provider, nil, history, timer.NewWithInterval(5*time.Millisecond))
	if err := ctrl.Start(ctx, app.StartOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}

	session := ctrl.Session()
	if !session.Local() {
		t.Fatalf("expected local session without a remote backend, got %q", session.ID)
	}
	if len(session.Questions) != 2 {
		t.Fatalf("expected 2 seeded questions, got %d", len(session.Questions))
	}

	if _, err := ctrl.SubmitAnswer(ctx, "q1", "4", 12); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := ctrl.SubmitQuiz(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	summary, ok := ctrl.Summary()
	if !ok {
		t.Fatalf("expected summary")
	}
	if summary.CorrectAnswers != 1 || summary.TotalQuestions != 2 || summary.Percentage != 50 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// Attempt record lands in redis fire-and-forget.
	deadline := time.Now().Add(2 * time.Second)
	for {
		attempts, err := history.RecentAttempts(ctx, "u1", 10)
		if err == nil && len(attempts) == 1 {
			if attempts[0].CategoryID != "arrays" || attempts[0].Summary != summary {
				t.Fatalf("unexpected attempt %+v", attempts[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("attempt never recorded, got %d", len(attempts))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedContent(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	category := domain.Category{ID: "arrays", Name: "Arrays", Difficulty: "easy"}
	insertJSON(t, ctx, db, `INSERT INTO categories (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, category.ID, category)

	questions := []domain.Question{
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
	}
	for _, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal question: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (id, category_id, language, data) VALUES (?, ?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
			q.ID, "arrays", q.Language, string(raw)); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func insertJSON(t *testing.T, ctx context.Context, db *bun.DB, query, id string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := db.ExecContext(ctx, query, id, string(raw)); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
