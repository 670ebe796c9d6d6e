package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/internal/accounts"
	"github.com/DiegoChMs/Warehouse/internal/catalog"
	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/internal/leasing"
	"github.com/DiegoChMs/Warehouse/internal/server"
	"github.com/DiegoChMs/Warehouse/internal/warehousing"
	"github.com/DiegoChMs/Warehouse/pkg/auth"
	"github.com/DiegoChMs/Warehouse/pkg/config"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

func init() {
	// Configure zerolog for human-friendly console output
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	configFile := flag.String("config", "warehouse.yaml", "path to configuration file")
	envFile := flag.String("env-file", ".env", "path to environment file")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	cfg.Log.ConfigureZerolog()

	log.Info().Msg("Starting Warehouse Lease Service")
	log.Info().Str("config_file", *configFile).Msg("Configuration loaded")

	db, err := database.New(cfg.Database.DSN, database.WithDebug(cfg.Database.Debug))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func(db *database.DB) {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
		}
	}(db)

	if err := seedRoles(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed roles")
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecretKey, cfg.Auth.TokenTTL)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	warehouses := warehousing.New(db)
	leases := leasing.New(db)
	cat := catalog.New(db)
	accts := accounts.New(db, hasher)

	srv := server.New(warehouses, leases, cat, accts, jwtManager)

	httpServer := &http.Server{
		Addr:           cfg.GetListenAddress(),
		Handler:        srv.Router(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	log.Info().
		Str("address", cfg.GetListenAddress()).
		Str("database", cfg.Database.Driver).
		Msg("Starting warehouse server")
	log.Info().Msgf("Health check: http://%s/health", cfg.GetListenAddress())

	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}

// seedRoles makes sure the built-in roles exist before the first request.
func seedRoles(db *database.DB) error {
	ctx := context.Background()
	for _, name := range []string{"ADMIN", "EMPLOYEE", models.DefaultRole} {
		if _, err := db.Roles.GetByName(ctx, name); err == nil {
			continue
		}
		if err := db.Roles.Create(ctx, &models.Role{Name: name}); err != nil {
			if database.IsConflict(err) {
				continue
			}
			return err
		}
		log.Info().Str("role", name).Msg("Seeded role")
	}
	return nil
}
