package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/rental-auth/internal/handlers"
	"github.com/sbilibin2017/rental-auth/internal/hasher"
	"github.com/sbilibin2017/rental-auth/internal/jwt"
	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/sbilibin2017/rental-auth/internal/middlewares"
	"github.com/sbilibin2017/rental-auth/internal/migrations"
	"github.com/sbilibin2017/rental-auth/internal/repositories"
	"github.com/sbilibin2017/rental-auth/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title rental-auth API
// @version 1.0.0
// @description Authentication backend of the rental listing platform
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// config holds everything read at startup. It is not modified afterwards.
type config struct {
	appHost  string
	appPort  string
	logLevel string

	pgHost         string
	pgPort         int
	pgUser         string
	pgPassword     string
	pgDB           string
	pgMaxOpenConns int
	pgMaxIdleConns int

	jwtSecretKey string
	jwtExpSecond int
	jwtIssuer    string
	bcryptCost   int

	kafkaBrokers   []string
	kafkaUserTopic string
}

func (c config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.pgUser, c.pgPassword, c.pgHost, c.pgPort, c.pgDB)
}

// parseConfig loads environment variables from a file and returns
// the application, database, token, hashing, and Kafka configuration.
// Values already present in the process environment win over the file.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		n, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}

	// Application config
	cfg.appHost = getEnv("APP_HOST", "localhost")
	cfg.appPort = getEnv("APP_PORT", "8080")
	cfg.logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.pgHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.pgUser = getEnv("POSTGRES_USER", "user")
	cfg.pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.pgDB = getEnv("POSTGRES_DB", "database")
	if cfg.pgPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return config{}, err
	}
	if cfg.pgMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return config{}, err
	}
	if cfg.pgMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return config{}, err
	}

	// JWT config
	cfg.jwtSecretKey = getEnv("JWT_SECRET_KEY", "")
	if cfg.jwtSecretKey == "" {
		return config{}, errors.New("JWT_SECRET_KEY must be set")
	}
	if cfg.jwtExpSecond, err = getInt("JWT_EXP_SECOND", "86400"); err != nil {
		return config{}, err
	}
	if cfg.jwtExpSecond <= 0 {
		return config{}, fmt.Errorf("JWT_EXP_SECOND must be positive, got %d", cfg.jwtExpSecond)
	}
	cfg.jwtIssuer = getEnv("JWT_ISSUER", "self")

	// Password hashing
	if cfg.bcryptCost, err = getInt("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)); err != nil {
		return config{}, err
	}

	// Kafka config
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.kafkaBrokers = append(cfg.kafkaBrokers, b)
		}
	}
	cfg.kafkaUserTopic = getEnv("KAFKA_USER_TOPIC", "user-events")

	return cfg, nil
}

// newRouter mounts the auth routes. Every request passes the auth filter;
// only the /user routes insist on an authenticated caller.
func newRouter(
	db *sqlx.DB,
	authService *services.AuthService,
	tokener middlewares.Tokener,
	users middlewares.UserFinder,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(middlewares.AuthMiddleware(tokener, users))

	r.Route("/auth", func(r chi.Router) {
		r.With(middlewares.TxMiddleware(db)).Post("/register", handlers.NewRegisterHandler(authService))
		r.Post("/login", handlers.NewLoginHandler(authService))
		r.Get("/me", handlers.NewMeHandler(authService))
	})

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth)
		r.Get("/user", handlers.NewListUsersHandler(authService))
		r.Get("/user/{id}", handlers.NewGetUserHandler(authService))
	})

	return r
}

// run initializes the logger, database, token codec, and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	log := logger.Log
	defer log.Sync()
	log.Infof("Logger initialized with level %s", cfg.logLevel)

	// Connect to PostgreSQL
	log.Infow("Connecting to PostgreSQL", "host", cfg.pgHost, "port", cfg.pgPort, "db", cfg.pgDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.dsn())
	if err != nil {
		return fmt.Errorf("postgres connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.pgMaxOpenConns)
	db.SetMaxIdleConns(cfg.pgMaxIdleConns)

	if err := migrations.Run(ctx, db.DB); err != nil {
		return err
	}

	// Token codec and password hasher
	codec := jwt.New(
		jwt.WithSecretKey(cfg.jwtSecretKey),
		jwt.WithExpiration(time.Duration(cfg.jwtExpSecond)*time.Second),
		jwt.WithIssuer(cfg.jwtIssuer),
	)
	bcryptHasher := hasher.NewBcryptHasher(cfg.bcryptCost)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db, middlewares.GetTxFromContext)
	userWriteRepo := repositories.NewUserWriteRepository(db, middlewares.GetTxFromContext)

	// User events are optional
	var events services.KafkaWriter
	if len(cfg.kafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.kafkaBrokers...),
			Topic:    cfg.kafkaUserTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer writer.Close()
		events = writer
		log.Infow("Publishing user events", "brokers", cfg.kafkaBrokers, "topic", cfg.kafkaUserTopic)
	}

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, codec, bcryptHasher, events)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.appHost, cfg.appPort),
		Handler:           newRouter(db, authService, codec, userReadRepo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
