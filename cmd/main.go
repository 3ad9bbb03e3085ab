package main

import (
	"log"
	"net/http"
	"os"

	"github.com/circuit-stream/ewaste-service/internal/db"
	"github.com/circuit-stream/ewaste-service/internal/handlers"
	"github.com/circuit-stream/ewaste-service/internal/repository"
	"github.com/circuit-stream/ewaste-service/internal/router"
	"github.com/circuit-stream/ewaste-service/internal/router/config"
	"github.com/circuit-stream/ewaste-service/internal/services"
	"github.com/circuit-stream/ewaste-service/internal/session"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	redisClient, closeRedis := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	defer closeRedis()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	sessions := session.NewManager(session.NewRedisStore(redisClient), cfg.SessionTTL)

	accountRepo := repository.NewPostgresAccountRepository(dbPool)
	itemRepo := repository.NewPostgresItemRepository(dbPool)
	bidRepo := repository.NewPostgresBidRepository(dbPool)

	authService := services.NewAuthService(accountRepo, sessions)
	itemService := services.NewItemService(itemRepo, cfg.WebsiteName)
	bidService := services.NewBidService(bidRepo)

	authHandler := handlers.NewAuthHandler(authService, logger, cfg.RequestTimeout)
	itemHandler := handlers.NewItemHandler(itemService, logger, cfg.RequestTimeout)
	bidHandler := handlers.NewBidHandler(bidService, logger, cfg.RequestTimeout)

	routes := router.InitRoutes(authHandler, itemHandler, bidHandler, sessions)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
