package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the renderd settings
type ServerConfig struct {
	ListenAddrIP   string
	ListenAddrPort string
	RenderEngine   string // fitz or pdfium
	AssetPath      string // absolute path asset opens resolve against
	TempPath       string // absolute path for file-delivered render payloads
	RenderDelivery string // inline or file
	HistoryEnabled bool
	HistoryDbname  string
	HistoryVerbose bool
	SweepInterval  int // minutes between idle-document sweeps
	SessionMaxIdle int // minutes a document may sit unused before the sweeper closes it
	ClientConfig
}

// ClientConfig stores the settings the pdfview CLI needs
type ClientConfig struct {
	RenderServiceURL string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	serverConfigLive := ServerConfig{}

	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	// Load configuration from environment variables with defaults

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8002")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Render engine configuration
	serverConfigLive.RenderEngine = getEnv("RENDER_ENGINE", "pdfium")
	serverConfigLive.RenderDelivery = getEnv("RENDER_DELIVERY", "inline")
	logger.Info("Render engine configuration loaded",
		"engine", serverConfigLive.RenderEngine,
		"delivery", serverConfigLive.RenderDelivery)

	assetDir := filepath.ToSlash(getEnv("ASSET_PATH", "assets"))
	assetDirAbs, err := filepath.Abs(assetDir)
	if err != nil {
		logger.Error("Failed creating absolute path for asset directory", "error", err)
	}
	serverConfigLive.AssetPath = assetDirAbs

	tempDir := filepath.ToSlash(getEnv("TEMP_PATH", os.TempDir()))
	tempDirAbs, err := filepath.Abs(tempDir)
	if err != nil {
		logger.Error("Failed creating absolute path for temp directory", "error", err)
	}
	serverConfigLive.TempPath = tempDirAbs

	// Session janitor configuration
	serverConfigLive.SweepInterval = getEnvInt("SWEEP_INTERVAL", 5)
	serverConfigLive.SessionMaxIdle = getEnvInt("SESSION_MAX_IDLE", 30)

	// Render history configuration
	serverConfigLive.HistoryEnabled = getEnvBool("HISTORY_ENABLED", true)
	serverConfigLive.HistoryDbname = getEnv("HISTORY_NAME", "databases/renders.sqlite")
	serverConfigLive.HistoryVerbose = getEnvBool("HISTORY_VERBOSE", false)

	// Client configuration
	serverConfigLive.RenderServiceURL = getEnv("RENDER_SERVICE_URL",
		fmt.Sprintf("http://localhost:%s", serverConfigLive.ListenAddrPort))

	logger.Info("Configuration loaded",
		"port", serverConfigLive.ListenAddrPort,
		"sweepIntervalMinutes", serverConfigLive.SweepInterval,
		"sessionMaxIdleMinutes", serverConfigLive.SessionMaxIdle)

	return serverConfigLive, logger
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "debug")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "renderd.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
