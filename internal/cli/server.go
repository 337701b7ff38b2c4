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

	"trivia-game-service/internal/config"
	"trivia-game-service/internal/domain"
	"trivia-game-service/internal/game"
	"trivia-game-service/internal/infra/memory"
	pginfra "trivia-game-service/internal/infra/postgres"
	redisinfra "trivia-game-service/internal/infra/redis"
	transport "trivia-game-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia game server",
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

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var catalog game.QuizCatalog
	if redisClient != nil {
		catalog = redisinfra.NewQuizCatalog(redisClient, loader, quizTTL)
	} else {
		catalog = memory.NewQuizCatalog(loader, quizTTL)
	}

	var records game.RecordStore = memory.NewRecordStore()
	if pool != nil {
		records = pginfra.NewRecordStore(pool)
	}

	roster := memory.NewRoster()
	sessions := memory.NewSessionStore()
	hub := transport.NewHub()

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	var gateway game.Broadcaster = hub
	if redisClient != nil {
		relay := redisinfra.NewRelay(redisClient, cfg.Redis.Channel)
		gateway = relay
		go func() {
			if err := relay.Run(relayCtx, hub.Deliver); err != nil {
				log.Printf("event relay stopped: %v", err)
			}
		}()
	}

	service := game.NewService(sessions, catalog, roster, gateway, records)
	wsHandler := transport.NewWSHandler(service, roster, hub, gateway)

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
		log.Printf("starting trivia service on :%s", finalPort)
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

// sampleQuizzes provides a minimal quiz set for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:        "q1",
					Text:      "What is 2 + 2?",
					Order:     1,
					TimeLimit: 30,
					Choices: []domain.Choice{
						{ID: "c1", Text: "3", Order: 1},
						{ID: "c2", Text: "4", Order: 2, Correct: true},
						{ID: "c3", Text: "5", Order: 3},
					},
				},
				{
					ID:        "q2",
					Text:      "Which planet is largest?",
					Order:     2,
					TimeLimit: 20,
					Choices: []domain.Choice{
						{ID: "c4", Text: "Earth", Order: 1},
						{ID: "c5", Text: "Jupiter", Order: 2, Correct: true},
						{ID: "c6", Text: "Saturn", Order: 3},
					},
				},
			},
		},
	}
}
