package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"grownest-service/internal/app"
	backendclient "grownest-service/internal/backend"
	"grownest-service/internal/config"
	"grownest-service/internal/domain"
	"grownest-service/internal/infra/memory"
	pgloader "grownest-service/internal/infra/postgres"
	redisinfra "grownest-service/internal/infra/redis"
	transport "grownest-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the minigame session server",
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
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Learning-platform client serves the lesson/free-roam modes; without a
	// configured base URL those modes are unavailable and only walkthrough
	// sessions can run.
	var platform app.Backend
	var remote app.QuestionSource
	if cfg.Backend.BaseURL != "" {
		client := backendclient.NewClient(cfg.Backend.BaseURL, config.TTLDuration(cfg.Backend.Timeout, 15*time.Second))
		platform = client
		remote = client
	}

	var walkthrough app.QuestionSource = memory.NewStaticQuestionSource(sampleWalkthroughSets())
	if pool != nil {
		walkthrough = pgloader.NewWalkthroughLoader(pool)
	}

	router := app.RoutedQuestionSource{Remote: remote, Walkthrough: walkthrough}
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, router, questionTTL)
	} else {
		questions = memory.NewQuestionCache(router, questionTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewMinigameService(store, questions, platform)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting grownest service on :%s", finalPort)
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

// sampleWalkthroughSets provides demo walkthrough content; production loads
// walkthrough quizzes from Postgres instead.
func sampleWalkthroughSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"demo": {Questions: app.DefaultWalkthroughQuestions()},
	}
}
