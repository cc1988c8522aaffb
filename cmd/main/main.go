package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"market-dashboard/src/analysis"
	"market-dashboard/src/config"
	"market-dashboard/src/fibonacci"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/server"
	"market-dashboard/src/state"
	"market-dashboard/src/utils"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional dotenv file")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	flag.Parse()

	// 2. Environment, then config (env overrides are read while parsing)
	envErr := godotenv.Load(*envPath)

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *writeConfig != "" {
		if err := conf.Save(*writeConfig); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", *writeConfig)
		return
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)
	defer appLogger.Sync()
	if envErr != nil {
		appLogger.Debug("No dotenv file loaded from %s: %v", *envPath, envErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Setup Components
	backend, err := setupBackend(ctx, conf.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Backend login failed: %v", err)
	}
	cache, closeCache := setupCache(ctx, conf.MConfig, appLogger)
	defer closeCache()

	facade := analysis.NewChartFacade(logger.NewLogger(conf.MConfig, "ChartFacade"))
	deps := server.Dependencies{
		Groups:     state.NewGroupsStore(backend, cache),
		Charts:     state.NewChartRegistry(backend, facade),
		Indicators: state.NewIndicatorsLoader(backend),
		Toggles:    state.NewIndicatorToggles(models.MIndicatorSettings{}),
		Fibonacci:  fibonacci.NewSessions(conf.Fibonacci.Levels, setupIdentity(conf.MConfig)),
		Facade:     facade,
		Accounts:   backend,
	}

	srv := server.NewDashboardServer(conf.MConfig, deps, logger.NewLogger(conf.MConfig, "DashboardServer"))

	// 5. Scheduled refreshes
	scheduler := utils.NewRefreshScheduler(ctx, conf.Calendar.DefaultMIC, logger.NewLogger(conf.MConfig, "Scheduler"))
	if err := registerJobs(scheduler, conf.MConfig, deps, srv); err != nil {
		appLogger.Critical("Failed to schedule refresh jobs: %v", err)
	}

	// 6. Start Servers
	grpcServer := startServers(srv, deps, conf.MConfig, appLogger)
	scheduler.Start()
	appLogger.Info("%s started", conf.Name)

	// 7. Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	scheduler.Stop()
	grpcServer.GracefulStop()
	if err := srv.Stop(); err != nil {
		appLogger.Error("HTTP shutdown: %v", err)
	}
	deps.Charts.Reset()
	appLogger.Info("Shutdown complete.")
}
