package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where studysense stores its own data
	DSN string
	// Driver is the database driver (sqlite)
	Driver string
	// Version is the current version of server
	Version string

	// Generation backends
	GeminiAPIKey  string // STUDYSENSE_GEMINI_API_KEY
	GeminiModel   string // STUDYSENSE_GEMINI_MODEL (default: gemini-1.5-flash)
	OllamaEnabled bool   // STUDYSENSE_OLLAMA_ENABLED (default: false)
	OllamaBaseURL string // STUDYSENSE_OLLAMA_BASE_URL (default: http://127.0.0.1:11434)
	OllamaModel   string // STUDYSENSE_OLLAMA_MODEL (default: llama3.2:3b)

	// Sessions and auth
	SessionTTLMinutes int    // STUDYSENSE_SESSION_TTL_MINUTES (default: 240)
	JWTSecret         string // STUDYSENSE_JWT_SECRET
	JWTExpMinutes     int    // STUDYSENSE_JWT_EXP_MINUTES (default: 720)

	// CORSOrigins is a comma-separated allowlist; "*" allows any origin.
	CORSOrigins string // STUDYSENSE_CORS_ORIGINS (default: *)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsGeminiEnabled reports whether the cloud tier is configured.
func (p *Profile) IsGeminiEnabled() bool {
	return p.GeminiAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.GeminiAPIKey = os.Getenv("STUDYSENSE_GEMINI_API_KEY")
	p.GeminiModel = getEnvOrDefault("STUDYSENSE_GEMINI_MODEL", "gemini-1.5-flash")
	p.OllamaEnabled = os.Getenv("STUDYSENSE_OLLAMA_ENABLED") == "true"
	p.OllamaBaseURL = getEnvOrDefault("STUDYSENSE_OLLAMA_BASE_URL", "http://127.0.0.1:11434")
	p.OllamaModel = getEnvOrDefault("STUDYSENSE_OLLAMA_MODEL", "llama3.2:3b")

	p.SessionTTLMinutes = getIntEnvOrDefault("STUDYSENSE_SESSION_TTL_MINUTES", 240)
	p.JWTSecret = getEnvOrDefault("STUDYSENSE_JWT_SECRET", "studysense-dev-secret")
	p.JWTExpMinutes = getIntEnvOrDefault("STUDYSENSE_JWT_EXP_MINUTES", 720)

	p.CORSOrigins = getEnvOrDefault("STUDYSENSE_CORS_ORIGINS", "*")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "studysense")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/studysense"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("studysense_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
