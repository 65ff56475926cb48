package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/drummonds/pdfview/backend"
	"github.com/drummonds/pdfview/config"
	"github.com/drummonds/pdfview/database"
	"github.com/drummonds/pdfview/server"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = logger
	backend.Logger = logger
	database.Logger = logger
	server.Logger = logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	rasterizer, err := backend.NewRasterizer(serverConfig.RenderEngine)
	if err != nil {
		Logger.Error("Failed to initialize render engine", "engine", serverConfig.RenderEngine, "error", err)
		os.Exit(1)
	}
	defer rasterizer.Close()
	Logger.Info("Render engine ready", "engine", serverConfig.RenderEngine)

	registry := backend.NewRegistry(rasterizer, serverConfig.AssetPath)
	defer registry.Close()

	var history database.History
	if serverConfig.HistoryEnabled {
		bunHistory, err := database.NewHistory(serverConfig)
		if err != nil {
			Logger.Error("Failed to set up render history", "error", err)
			os.Exit(1)
		}
		defer bunHistory.Close()
		history = bunHistory
	}

	handler := &server.Handler{
		Registry:     registry,
		History:      history,
		ServerConfig: serverConfig,
	}
	e := server.NewRouter(handler)

	initializeSweeper(registry, serverConfig)

	listenAddr := serverConfig.ListenAddrIP + ":" + serverConfig.ListenAddrPort
	Logger.Info("Starting renderd", "addr", listenAddr)
	if err := e.Start(listenAddr); err != nil {
		Logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// initializeSweeper starts the cron job closing idle documents
func initializeSweeper(registry *backend.Registry, serverConfig config.ServerConfig) {
	c := cron.New()
	maxIdle := time.Duration(serverConfig.SessionMaxIdle) * time.Minute
	var sweepJob cron.Job
	sweepJob = cron.FuncJob(func() {
		if closed := registry.Sweep(maxIdle); closed > 0 {
			Logger.Info("Closed idle documents", "count", closed)
		}
	})
	sweepJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(sweepJob) //ensure we don't kick off another if old one is still running
	c.AddJob(fmt.Sprintf("@every %dm", serverConfig.SweepInterval), sweepJob)
	Logger.Info("Adding session sweep scheduler", "interval_minutes", serverConfig.SweepInterval)
	c.Start()
}
