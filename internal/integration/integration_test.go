package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"grownest-service/internal/app"
	"grownest-service/internal/domain"
	pgloader "grownest-service/internal/infra/postgres"
	pgmigrations "grownest-service/internal/infra/postgres/migrations"
	redisinfra "grownest-service/internal/infra/redis"
)

func TestWalkthroughSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedWalkthroughQuiz(t, ctx, pgURL, "walk-1", sampleWalkthroughQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pgloader.NewWalkthroughLoader(pool)
	questions := redisinfra.NewQuestionCache(redisClient, app.RoutedQuestionSource{Walkthrough: loader}, 5*time.Minute)
	store := redisinfra.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewMinigameService(store, questions, nil)

	session, err := service.StartSession(ctx, app.StartParams{
		Mode:          domain.ModeWalkthrough,
		WalkthroughID: "walk-1",
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if session.TotalQuestions() != 2 {
		t.Fatalf("expected 2 seeded questions, got %d", session.TotalQuestions())
	}

	for i := 0; i < 2; i++ {
		outcome, err := session.SubmitAnswer(ctx, "B")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if !outcome.Correct {
			t.Fatalf("expected correct answer, got %+v", outcome)
		}
		if _, err := session.Advance(ctx); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	result, ok := session.Result()
	if !ok {
		t.Fatalf("expected terminal result")
	}
	if result.CorrectCount != 2 || result.Progress.Stage != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// A second session for the same content must come from the Redis cache.
	if _, err := service.StartSession(ctx, app.StartParams{
		Mode:          domain.ModeWalkthrough,
		WalkthroughID: "walk-1",
	}); err != nil {
		t.Fatalf("second session: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "nest", "POSTGRES_PASSWORD": "nestpass", "POSTGRES_DB": "nestdb"},
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
	dsn := fmt.Sprintf("postgres://nest:nestpass@%s:%s/nestdb?sslmode=disable", host, port.Port())
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

func seedWalkthroughQuiz(t *testing.T, ctx context.Context, dsn, id string, quiz []domain.WalkthroughQuestion) {
	t.Helper()
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

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO walkthrough_quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, id, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleWalkthroughQuiz() []domain.WalkthroughQuestion {
	return []domain.WalkthroughQuestion{
		{
			ID:       1,
			Question: "What is a savings goal?",
			Options: []domain.Option{
				{Letter: "A", Text: "A bank fee"},
				{Letter: "B", Text: "An amount you plan to set aside"},
			},
			CorrectAnswer: "B",
		},
		{
			ID:       2,
			Question: "What grows when you answer correctly?",
			Options: []domain.Option{
				{Letter: "A", Text: "Your debts"},
				{Letter: "B", Text: "Your nest tree"},
			},
			CorrectAnswer: "B",
		},
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
