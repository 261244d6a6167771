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

	"trivia-arena/internal/app"
	"trivia-arena/internal/config"
	"trivia-arena/internal/generator"
	"trivia-arena/internal/infra/memory"
	pgarchive "trivia-arena/internal/infra/postgres"
	redisinfra "trivia-arena/internal/infra/redis"
	"trivia-arena/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// roomSweeper is implemented by both room stores.
type roomSweeper interface {
	SweepFinished(grace time.Duration) int
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
		finalPort = "8765"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	cacheTTL := config.Duration(cfg.Generator.CacheTTL, 10*time.Minute)
	var source app.QuestionSource = generator.NewClient(cfg.Generator.URL)
	if redisClient != nil {
		source = redisinfra.NewQuestionCache(redisClient, source, cacheTTL)
	} else {
		source = memory.NewQuestionCache(source, cacheTTL)
	}

	var rooms app.RoomRepository
	var sweeper roomSweeper
	if redisClient != nil {
		store := redisinfra.NewRoomStore(redisClient, redisTTL)
		rooms, sweeper = store, store
	} else {
		store := memory.NewRoomStore()
		rooms, sweeper = store, store
	}

	var archive app.GameArchiver
	if pool != nil {
		archive = pgarchive.NewGameArchive(pool)
	}

	timings := app.DefaultTimings()
	timings.GenerateTimeout = config.Duration(cfg.Generator.Timeout, timings.GenerateTimeout)
	timings.AnswerWindow = config.Duration(cfg.Game.AnswerWindow, timings.AnswerWindow)
	timings.QuestionGap = config.Duration(cfg.Game.QuestionGap, timings.QuestionGap)
	if cfg.Game.CountdownSeconds > 0 {
		timings.CountdownSeconds = cfg.Game.CountdownSeconds
	}

	registry := ws.NewConnectionRegistry()
	broadcaster := ws.NewBroadcaster(registry)
	orch := app.NewSessionOrchestrator(source, broadcaster, archive, generator.Fallback(), timings)
	service := app.NewGameService(rooms, orch)

	heartbeatInterval := config.Duration(cfg.Server.HeartbeatInterval, 20*time.Second)
	heartbeatTimeout := config.Duration(cfg.Server.HeartbeatTimeout, 20*time.Second)
	handler := ws.NewProtocolHandler(service, registry, broadcaster, heartbeatInterval, heartbeatTimeout)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepFinishedRooms(sweepCtx, sweeper, config.Duration(cfg.Game.EvictionGrace, 5*time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", handler.ServeWS)

	server := &http.Server{
		Addr:        cfg.Server.BindAddr + ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia server on %s", server.Addr)
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

// sweepFinishedRooms periodically evicts rooms that finished longer than
// grace ago, bounding memory over long uptimes.
func sweepFinishedRooms(ctx context.Context, sweeper roomSweeper, grace time.Duration) {
	ticker := time.NewTicker(grace)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := sweeper.SweepFinished(grace); n > 0 {
				log.Printf("evicted %d finished rooms", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
