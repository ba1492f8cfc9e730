package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/api"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/conversation"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/genai"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/lockfile"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/notify"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for caregiver agent state data
	DefaultStateDir = "/var/lib/caregiver-agent"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "caregiver-agent.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Prevent a second instance from sharing the state directory
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags, config)
	convOpts := buildConversationOptions(config)
	notifyOpts := buildNotifyOptions(config)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping caregiver agent with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "conversation", len(convOpts), "notify", len(notifyOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(storeOpts, genaiOpts, convOpts, notifyOpts, apiOpts); err != nil {
		slog.Error("Caregiver agent failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Caregiver agent exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL       string
	StateDir          string
	OpenAIKey         string
	OpenAIModel       string
	APIAddr           string
	SolutionThreshold int
	MaxTurns          int
	CompletedPolicy   string
	NotifyEnabled     bool
	TwilioSID         string
	TwilioToken       string
	TwilioFrom        string
	CoordinatorPhone  string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	apiAddr   *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StateDir:          os.Getenv("CAREGIVER_STATE_DIR"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       os.Getenv("OPENAI_MODEL"),
		APIAddr:           os.Getenv("API_ADDR"),
		SolutionThreshold: util.ParseIntEnv("SOLUTION_THRESHOLD", conversation.DefaultSolutionThreshold),
		MaxTurns:          util.ParseIntEnv("MAX_CONVERSATION_TURNS", conversation.DefaultMaxTurns),
		CompletedPolicy:   os.Getenv("COMPLETED_CONVERSATION_POLICY"),
		NotifyEnabled:     util.ParseBoolEnv("NOTIFY_ENABLED", true),
		TwilioSID:         os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:       os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:        os.Getenv("TWILIO_FROM_NUMBER"),
		CoordinatorPhone:  os.Getenv("COORDINATOR_PHONE_NUMBER"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CAREGIVER_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("CAREGIVER_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CAREGIVER_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"SOLUTION_THRESHOLD", config.SolutionThreshold,
		"MAX_CONVERSATION_TURNS", config.MaxTurns,
		"NOTIFY_ENABLED", config.NotifyEnabled)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for caregiver agent data (overrides $CAREGIVER_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "database DSN for the store (overrides $DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	// Ensure state directory exists if we're using a file-based DSN
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			// Assume SQLite for file paths
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags, config Config) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if config.OpenAIModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(config.OpenAIModel))
	}
	return genaiOpts
}

// buildConversationOptions constructs conversation tracker options
func buildConversationOptions(config Config) []conversation.Option {
	var convOpts []conversation.Option
	if config.SolutionThreshold != conversation.DefaultSolutionThreshold {
		convOpts = append(convOpts, conversation.WithDefaultSolutionThreshold(config.SolutionThreshold))
	}
	if config.MaxTurns != conversation.DefaultMaxTurns {
		convOpts = append(convOpts, conversation.WithMaxTurns(config.MaxTurns))
	}
	if config.CompletedPolicy != "" {
		convOpts = append(convOpts, conversation.WithCompletedPolicy(conversation.CompletedPolicy(config.CompletedPolicy)))
	}
	return convOpts
}

// buildNotifyOptions constructs coordinator notifier options
func buildNotifyOptions(config Config) []notify.Option {
	if !config.NotifyEnabled {
		slog.Debug("Coordinator notifications disabled via NOTIFY_ENABLED")
		return nil
	}
	var notifyOpts []notify.Option
	if config.TwilioSID != "" {
		notifyOpts = append(notifyOpts, notify.WithAccountSID(config.TwilioSID))
	}
	if config.TwilioToken != "" {
		notifyOpts = append(notifyOpts, notify.WithAuthToken(config.TwilioToken))
	}
	if config.TwilioFrom != "" {
		notifyOpts = append(notifyOpts, notify.WithFromNumber(config.TwilioFrom))
	}
	if config.CoordinatorPhone != "" {
		notifyOpts = append(notifyOpts, notify.WithCoordinatorNumber(config.CoordinatorPhone))
	}
	return notifyOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
