package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/jalh2/healthyubackend/internal/auth"
	"github.com/jalh2/healthyubackend/internal/config"
	"github.com/jalh2/healthyubackend/internal/db"
	"github.com/jalh2/healthyubackend/internal/employee"
	httpserver "github.com/jalh2/healthyubackend/internal/http"
	"github.com/jalh2/healthyubackend/internal/logger"
	"github.com/jalh2/healthyubackend/internal/messaging"
	"github.com/jalh2/healthyubackend/internal/patient"
	"github.com/jalh2/healthyubackend/internal/telemetry"
)

// stores bundles the repositories of the selected driver.
type stores struct {
	patients  patient.RepositoryInterface
	employees employee.RepositoryInterface
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log())
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.InitProvider(ctx, telemetry.Config{
		Enabled:         cfg.OTelEnabled,
		ServiceName:     cfg.OTelServiceName,
		ServiceVersion:  cfg.OTelServiceVersion,
		Environment:     cfg.Env,
		OTLPEndpoint:    cfg.OTelEndpoint,
		TracesSampler:   cfg.OTelTracesSampler,
		MetricsInterval: cfg.OTelMetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		provider.Shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("failed to initialize metrics", zap.Error(err))
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}
	defer st.close()

	var publisher messaging.PublisherInterface
	if cfg.RabbitMQURL == "" {
		log.Warn("RABBITMQ_URL not set, events will not be published")
		publisher = messaging.NewNopPublisher(log)
	} else {
		publisher, err = messaging.NewPublisher(cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
	}
	defer publisher.Close()

	cipher, err := employee.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatal("invalid encryption key", zap.Error(err))
	}
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal("invalid token configuration", zap.Error(err))
	}
	perms, err := auth.LoadPermissions(cfg.PermissionsFile)
	if err != nil {
		log.Fatal("failed to load permissions", zap.String("path", cfg.PermissionsFile), zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := httpserver.SetupRouter(httpserver.Dependencies{
		Patients:    patient.NewService(st.patients, publisher, metrics, log),
		Employees:   employee.NewService(st.employees, cipher, tokens, publisher, metrics, log),
		Verifier:    tokens,
		Permissions: perms,
		AuthMetrics: metrics,
		HTTPMetrics: httpserver.NewMetrics(registry),
		RateLimit: httpserver.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
			TrustProxy:        cfg.TrustProxy,
		},
		Logger: log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.CORSMiddleware(cfg.Origins())(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("healthyu-backend starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		patients := patient.NewMongoRepository(database)
		employees := employee.NewMongoRepository(database)
		if err := ensureIndexes(ctx, patients, employees); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			patients:  patients,
			employees: employees,
			close:     func() { disconnect(client, log) },
		}, nil

	case config.StoreMemory:
		log.Warn("using in-memory stores, data is lost on restart")
		return &stores{
			patients:  patient.NewMemoryRepository(),
			employees: employee.NewMemoryRepository(),
			close:     func() {},
		}, nil

	default:
		conn, err := db.ConnectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			patients:  patient.NewRepository(conn),
			employees: employee.NewRepository(conn),
			close:     func() { closeDB(conn, log) },
		}, nil
	}
}

func ensureIndexes(ctx context.Context, patients *patient.MongoRepository, employees *employee.MongoRepository) error {
	if err := patients.EnsureIndexes(ctx); err != nil {
		return err
	}
	return employees.EnsureIndexes(ctx)
}

func disconnect(client *mongo.Client, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn("failed to disconnect from mongo", zap.Error(err))
	}
}

func closeDB(conn *sql.DB, log *zap.Logger) {
	if err := conn.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
