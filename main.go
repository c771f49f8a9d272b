package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-rental/cmd"
	"car-rental/internal/data/repository"
	"car-rental/internal/job"
	"car-rental/internal/wire"
	"car-rental/pkg/database"
	"car-rental/pkg/notify"
	"car-rental/pkg/payment"
	"car-rental/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, config *utils.Config, logger *zap.Logger) error {
	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.App.MigrateOnStart {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	// Initialize all repositories
	runner := database.NewRunner(config.Database, logger)
	repos := repository.NewRepository(db, runner, logger)

	gateway := payment.New(config.Payment, logger)
	dispatcher := notify.NewDispatcher(notify.New(config.Notify, logger), logger)
	defer dispatcher.Wait()

	// Wire all dependencies
	app := wire.Wiring(repos, db, config, gateway, dispatcher, logger)

	if config.Jobs.Enabled {
		scheduler := job.NewScheduler(repos.Booking, repos.Session, logger)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	return cmd.APIServer(ctx, app.Router, config.App.Port, logger)
}
