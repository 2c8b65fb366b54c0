package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ucplatform-backend/internal/database"
	wsHandler "ucplatform-backend/internal/handler/ws"
	cassandraRepo "ucplatform-backend/internal/repository/cassandra"
	postgresRepo "ucplatform-backend/internal/repository/postgres"
	redisRepo "ucplatform-backend/internal/repository/redis"
	callService "ucplatform-backend/internal/service/call"
	chatService "ucplatform-backend/internal/service/chat"
	contactService "ucplatform-backend/internal/service/contact"
	userService "ucplatform-backend/internal/service/user"
	voicemailService "ucplatform-backend/internal/service/voicemail"
	"ucplatform-backend/internal/storage"
	"ucplatform-backend/pkg/env"
	"ucplatform-backend/pkg/jwt"
	"ucplatform-backend/pkg/logger"
	"ucplatform-backend/pkg/metrics"
)

func main() {
	// 1. Logger
	logger.InitDefault()
	defer logger.Sync()

	// 2. JWT manager
	jwtSecret := env.GetStringFromFile("JWT_SECRET", "")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		logger.Fatal("JWT_SECRET must be at least 32 characters")
	}
	jwtManager := jwt.NewManager(jwtSecret, env.GetDuration("JWT_TOKEN_DURATION", 24*time.Hour))

	ctx := context.Background()

	// 3. PostgreSQL
	postgresConfig := &database.PostgresConfig{
		Host:     env.GetString("POSTGRES_HOST", "localhost"),
		Port:     env.GetInt("POSTGRES_PORT", 5432),
		User:     env.GetString("POSTGRES_USER", "ucplatform"),
		Password: env.GetStringFromFile("POSTGRES_PASSWORD", ""),
		Database: env.GetString("POSTGRES_DATABASE", "ucplatform_db"),
		SSLMode:  env.GetString("POSTGRES_SSLMODE", "disable"),
	}
	postgresDB, err := connectWithRetry(ctx, "PostgreSQL", func(ctx context.Context) (*database.Postgres, error) {
		return database.NewPostgres(ctx, postgresConfig)
	})
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer postgresDB.Close()
	logger.Info("connected to PostgreSQL")

	// 4. Redis
	redisConfig := &database.RedisConfig{
		Host:     env.GetString("REDIS_HOST", "localhost"),
		Port:     env.GetInt("REDIS_PORT", 6379),
		Password: env.GetStringFromFile("REDIS_PASSWORD", ""),
		DB:       0,
		PoolSize: env.GetInt("REDIS_POOL_SIZE", 10),
		Timeout:  5 * time.Second,
	}
	redisClient, err := connectWithRetry(ctx, "Redis", func(context.Context) (*redis.Client, error) {
		return database.NewRedisClient(redisConfig)
	})
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// 5. Cassandra
	cassandraConfig := &database.CassandraConfig{
		Hosts:    []string{env.GetString("CASSANDRA_HOST", "localhost")},
		Keyspace: env.GetString("CASSANDRA_KEYSPACE", "ucplatform_ks"),
		Username: env.GetStringFromFile("CASSANDRA_USER", ""),
		Password: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),
		Timeout:  10 * time.Second,
	}
	cassandraDB, err := connectWithRetry(ctx, "Cassandra", func(context.Context) (*database.Cassandra, error) {
		return database.NewCassandra(cassandraConfig)
	})
	if err != nil {
		logger.Fatal("failed to connect to Cassandra", zap.Error(err))
	}
	defer cassandraDB.Close()
	logger.Info("connected to Cassandra")

	// 6. Object storage for voicemail audio
	audioStore, err := storage.NewAudioStore(ctx, storage.Config{
		Endpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: env.GetStringFromFile("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: env.GetStringFromFile("MINIO_SECRET_KEY", "minioadmin"),
		Bucket:    env.GetString("MINIO_BUCKET", "voicemail"),
		UseSSL:    env.GetBool("MINIO_USE_SSL", false),
	})
	if err != nil {
		logger.Fatal("failed to connect to object storage", zap.Error(err))
	}
	logger.Info("connected to object storage")

	// 7. Repositories
	userRepo := postgresRepo.NewUserRepository(postgresDB.Pool)
	callRepo := postgresRepo.NewCallRepository(postgresDB.Pool)
	contactRepo := postgresRepo.NewContactRepository(postgresDB.Pool)
	voicemailRepo := postgresRepo.NewVoicemailRepository(postgresDB.Pool)
	chatRepo := postgresRepo.NewChatRepository(postgresDB.Pool)
	rateRepo := postgresRepo.NewRateRepository(postgresDB.Pool)
	trunkRepo := postgresRepo.NewTrunkRepository(postgresDB.Pool)
	presenceRepo := redisRepo.NewPresenceRepository(redisClient)
	messageRepo := cassandraRepo.NewMessageRepository(cassandraDB.Session)

	// 8. Metrics
	appMetrics := metrics.NewMetrics("ucplatform-api")

	// 9. WebSocket hub and services. The hub is both the services' event
	// channel and the transport for the signaling dispatcher, so it is
	// created first and the dispatcher is bound after the call service
	// exists.
	hub := wsHandler.NewHub(nil, appMetrics)

	userSvc := userService.NewService(userRepo, presenceRepo, hub, jwtManager)
	callSvc := callService.NewService(callRepo, userRepo, rateRepo, trunkRepo, hub, userSvc, appMetrics)
	contactSvc := contactService.NewService(contactRepo)
	voicemailSvc := voicemailService.NewService(voicemailRepo, audioStore)
	chatSvc := chatService.NewService(chatRepo, messageRepo, hub)

	hub.SetDispatcher(callSvc)
	hub.OnConnect = userSvc.HandleConnect
	hub.OnDisconnect = userSvc.HandleDisconnect
	go hub.Run()

	// 10. Router
	router := setupRouter(&routerDeps{
		jwtManager:   jwtManager,
		metrics:      appMetrics,
		hub:          hub,
		userSvc:      userSvc,
		callSvc:      callSvc,
		contactSvc:   contactSvc,
		voicemailSvc: voicemailSvc,
		chatSvc:      chatSvc,
	})

	// 11. HTTP server with graceful shutdown
	port := env.GetString("PORT", "8080")
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

// connectWithRetry retries a dependency connect with linear backoff so the
// server survives a compose stack where databases come up slower than it does
func connectWithRetry[T any](ctx context.Context, name string, connect func(context.Context) (T, error)) (T, error) {
	const attempts = 5

	var (
		conn T
		err  error
	)
	for i := 1; i <= attempts; i++ {
		conn, err = connect(ctx)
		if err == nil {
			return conn, nil
		}
		if i < attempts {
			wait := time.Duration(i) * 2 * time.Second
			logger.Warn("connect failed, retrying",
				zap.String("dependency", name),
				zap.Int("attempt", i),
				zap.Duration("backoff", wait),
				zap.Error(err))
			time.Sleep(wait)
		}
	}
	return conn, err
}
