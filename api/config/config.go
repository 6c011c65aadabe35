package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds the global application configuration
var AppConfig *Config

// Config holds the application configuration
type Config struct {
	// API endpoint the client talks to
	BaseURL   string `envconfig:"FINTRACK_API_BASE_URL" default:"http://localhost:8080"`
	APIPrefix string `envconfig:"FINTRACK_API_PREFIX" default:"/api"`
	// Zero means no client-side timeout; the transport defaults apply.
	HTTPTimeout time.Duration `envconfig:"FINTRACK_HTTP_TIMEOUT" default:"0s"`

	// Local persistent store (sqlite or postgres)
	StoreDriver string `envconfig:"FINTRACK_STORE_DRIVER" default:"sqlite"`
	StoreDSN    string `envconfig:"FINTRACK_STORE_DSN" default:"fintrack.db"`

	AdminSecret            string        `envconfig:"FINTRACK_ADMIN_SECRET"`
	LoginPath              string        `envconfig:"FINTRACK_LOGIN_PATH" default:"/login"`
	AuthStormRedirectDelay time.Duration `envconfig:"FINTRACK_AUTH_STORM_REDIRECT_DELAY" default:"1500ms"`

	// Proof-of-payment image handling
	ProofMaxBytes int64 `envconfig:"FINTRACK_PROOF_MAX_BYTES" default:"5242880"`
	ProofMaxWidth int   `envconfig:"FINTRACK_PROOF_MAX_WIDTH" default:"800"`
	ProofQuality  int   `envconfig:"FINTRACK_PROOF_QUALITY" default:"70"`

	// Optional: base URL for running remote HTTP integration tests (e.g., https://staging.example.com)
	IntegrationBaseURL string `envconfig:"INTEGRATION_BASE_URL"`

	// Sandbox server
	SandboxPort      string        `envconfig:"PORT" default:"8080"`
	SandboxJWTSecret string        `envconfig:"SANDBOX_JWT_SECRET" default:"sandbox-dev-secret"`
	SandboxTokenTTL  time.Duration `envconfig:"SANDBOX_TOKEN_TTL" default:"24h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file from current directory and parent directories
	currentDir, _ := os.Getwd()
	for currentDir != "/" && currentDir != "." {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		currentDir = filepath.Dir(currentDir)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values envconfig cannot express as tags.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q (want sqlite or postgres)", c.StoreDriver)
	}
	if c.ProofMaxBytes <= 0 {
		return fmt.Errorf("FINTRACK_PROOF_MAX_BYTES must be positive")
	}
	if c.ProofMaxWidth <= 0 {
		return fmt.Errorf("FINTRACK_PROOF_MAX_WIDTH must be positive")
	}
	if c.ProofQuality < 1 || c.ProofQuality > 100 {
		return fmt.Errorf("FINTRACK_PROOF_QUALITY must be between 1 and 100")
	}
	return nil
}
