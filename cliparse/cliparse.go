package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort        = 3318
	DefaultStateFile   = "session_state.json"
	DefaultSecretsFile = "secrets.yaml"
	DefaultAPITimeout  = 30 * time.Second

	// Shown until a real endpoint is configured
	PlaceholderAPIURL = "ENTER-LLAVA-NGROK-API-URL"

	apiURLKey = "LLAVA_API_URL"
)

type Config struct {
	Port         int
	APIURL       string
	APITimeout   time.Duration
	StateFile    string
	DatabaseURL  string
	DatabaseType string
	UsersFile    string
	SecretsFile  string
	LogLevel     string
	LogFormat    string

	// Print a bcrypt hash of the password on stdin and exit
	HashPassword bool
}

// LoadDotEnv loads KEY=value pairs from path into the environment.
// Existing variables win and a missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("listgen", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.APIURL, "api", "", "Analysis service base URL")
	fs.DurationVar(&cfg.APITimeout, "timeout", 0, "Analysis request timeout")

	// Persistence
	fs.StringVar(&cfg.StateFile, "state", "", "Session state file")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (replaces the state file)")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets and accounts
	fs.StringVar(&cfg.UsersFile, "users", "", "YAML file of bcrypt password hashes")
	fs.StringVar(&cfg.SecretsFile, "secrets", "", "YAML secrets file")
	fs.BoolVar(&cfg.HashPassword, "hash-password", false, "Read a password from stdin, print its bcrypt hash and exit")

	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.APITimeout == 0 {
		if s := os.Getenv("API_TIMEOUT"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid API_TIMEOUT env variable")
			}
			cfg.APITimeout = d
		} else {
			cfg.APITimeout = DefaultAPITimeout
		}
	}
	if cfg.APITimeout < 0 {
		return Config{}, errors.New("timeout must be positive")
	}

	cfg.StateFile = firstNonEmpty(cfg.StateFile, os.Getenv("STATE_FILE"), DefaultStateFile)
	cfg.DatabaseURL = firstNonEmpty(cfg.DatabaseURL, os.Getenv("DATABASE_URL"))
	cfg.DatabaseType = firstNonEmpty(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), "sqlite")
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}

	cfg.UsersFile = firstNonEmpty(cfg.UsersFile, os.Getenv("USERS_FILE"))
	cfg.SecretsFile = firstNonEmpty(cfg.SecretsFile, os.Getenv("SECRETS_FILE"), DefaultSecretsFile)
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"), "info")
	cfg.LogFormat = firstNonEmpty(cfg.LogFormat, os.Getenv("LOG_FORMAT"), "text")
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported log format: %s", cfg.LogFormat)
	}

	// Endpoint: flag, then env, then secrets file, then placeholder
	if cfg.APIURL == "" {
		secrets, err := readSecrets(cfg.SecretsFile)
		if err != nil {
			return Config{}, err
		}
		cfg.APIURL = firstNonEmpty(os.Getenv(apiURLKey), secrets[apiURLKey], PlaceholderAPIURL)
	}

	return cfg, nil
}

// JSONLogs reports whether logs should be written as JSON
func (c Config) JSONLogs() bool {
	return c.LogFormat == "json"
}

// APIConfigured reports whether a real endpoint was provided
func (c Config) APIConfigured() bool {
	return c.APIURL != "" && c.APIURL != PlaceholderAPIURL
}

// readSecrets parses a flat YAML secrets file. A missing file is empty.
func readSecrets(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var secrets map[string]string
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file: %w", err)
	}
	return secrets, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
