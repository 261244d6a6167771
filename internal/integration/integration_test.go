package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
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

	"trivia-arena/internal/domain"
	pgarchive "trivia-arena/internal/infra/postgres"
	pgmigrations "trivia-arena/internal/infra/postgres/migrations"
	infraredis "trivia-arena/internal/infra/redis"
)

func TestArchiveAndCacheEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	archive := pgarchive.NewGameArchive(pool)
	finished := time.Now().UTC().Truncate(time.Millisecond)
	result := domain.GameResult{
		RoomID:       "ROOM1234",
		Topic:        "science",
		NumQuestions: 5,
		Standings: []domain.FinalStanding{
			{Username: "Alice", Score: 7},
			{Username: "Bob", Score: -1},
		},
		Winner:     "Alice",
		FinishedAt: finished,
	}
	if err := archive.SaveResult(ctx, result); err != nil {
		t.Fatalf("save result: %v", err)
	}

	recent, err := archive.RecentResults(ctx, 10)
	if err != nil {
		t.Fatalf("recent results: %v", err)
	}
	if len(recent) != 1 || recent[0].Winner != "Alice" || len(recent[0].Standings) != 2 {
		t.Fatalf("unexpected archived results %+v", recent)
	}

	redisOpts, err := goredis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	redisClient := goredis.NewClient(redisOpts)
	defer redisClient.Close()
	source := &countingSource{}
	cache := infraredis.NewQuestionCache(redisClient, source, 5*time.Minute)

	if _, err := cache.Questions(ctx, 5, "science"); err != nil {
		t.Fatalf("questions: %v", err)
	}
	if _, err := cache.Questions(ctx, 5, "science"); err != nil {
		t.Fatalf("questions cached: %v", err)
	}
	if source.count() != 1 {
		t.Fatalf("expected one generator call, got %d", source.count())
	}
}

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSource) Questions(ctx context.Context, count int, topic string) ([]domain.GeneratedQuestion, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return []domain.GeneratedQuestion{
		{Question: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Answer: "4"},
	}, nil
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
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
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
