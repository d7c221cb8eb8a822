package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/service/ledger"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultStorageBackend = StorageFile
	defaultDataDir        = "data"
)

// Storage backend names accepted in STORAGE_BACKEND
const (
	StoragePostgres = "postgres"
	StorageFile     = "file"
	StorageMemory   = "memory"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the panelx service will be run
	ListenAddr string

	// Storage backend: postgres, file or memory
	StorageBackend string

	// Database to connect to (postgres backend)
	DatabaseDSN string

	// Directory for JSON snapshots (file backend)
	DataDir string

	// Free launch mode: usage is logged but credits are not deducted
	FreeLaunchMode bool

	// Credits granted on account initialization
	InitialGrant int64

	// Groq chat completion credentials
	GroqAPIKey string
	GroqModel  string

	// Replicate image generation credentials
	ReplicateAPIKey string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		StorageBackend: defaultStorageBackend,
		DataDir:        defaultDataDir,
		FreeLaunchMode: true,
		InitialGrant:   ledger.DefaultInitialGrant,
		Environment:    defaultEnvironment,
	}
}

// Validate checks the backend choice and its required options
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("postgres backend requires DATABASE_URI")
		}
	case StorageFile:
		if c.DataDir == "" {
			return errors.New("file backend requires DATA_DIR")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}

	if c.InitialGrant < 0 {
		return errors.New("initial grant must not be negative")
	}

	return nil
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseBool(value); err == nil {
				*o = parsed
			}
		}
	}
	setInt64 := func(o *int64) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":       setString(&c.ListenAddr),
		"STORAGE_BACKEND":   setString(&c.StorageBackend),
		"DATABASE_URI":      setString(&c.DatabaseDSN),
		"DATA_DIR":          setString(&c.DataDir),
		"FREE_LAUNCH_MODE":  setBool(&c.FreeLaunchMode),
		"INITIAL_GRANT":     setInt64(&c.InitialGrant),
		"GROQ_API_KEY":      setString(&c.GroqAPIKey),
		"GROQ_MODEL":        setString(&c.GroqModel),
		"REPLICATE_API_KEY": setString(&c.ReplicateAPIKey),
		"LOG_LEVEL":         setString(&c.LogLevel),
		"ENVIRONMENT":       setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("panelx", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.StorageBackend, "storage", "s", c.StorageBackend, "Storage backend (postgres, file, memory)")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "Directory for JSON snapshots")
	fs.BoolVar(&c.FreeLaunchMode, "free-launch", c.FreeLaunchMode, "Log usage without deducting credits")
	fs.Int64Var(&c.InitialGrant, "initial-grant", c.InitialGrant, "Credits granted on account init")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
