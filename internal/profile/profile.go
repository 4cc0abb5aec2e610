package profile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, siliconflow, ollama, ...) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, siliconflow, ollama
	LLMAPIKey   string // Unified LLM API key
	LLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, llama3.1, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Embedding configuration
	EmbeddingModel      string
	EmbeddingDimensions int

	// Gateway authentication
	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash; empty disables login

	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string // postgres, sqlite
	DSN     string
	Version string
}

// Provider default configurations for the LLM.
// Used when EIN_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM endpoint is configured.
// Ollama needs no API key, so a configured provider is enough.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMProvider != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("EIN_LLM_PROVIDER", "ollama")
	p.LLMAPIKey = getEnvOrDefault("EIN_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("EIN_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("EIN_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("EIN_LLM_TIMEOUT_SECONDS", 120)

	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.EmbeddingModel = getEnvOrDefault("EIN_EMBEDDING_MODEL", "nomic-embed-text")
	p.EmbeddingDimensions = getEnvOrDefaultInt("EIN_EMBEDDING_DIMENSIONS", 768)

	p.JWTSecret = getEnvOrDefault("EIN_JWT_SECRET", "")
	p.AdminUsername = getEnvOrDefault("EIN_ADMIN_USERNAME", "admin")
	p.AdminPasswordHash = getEnvOrDefault("EIN_ADMIN_PASSWORD_HASH", "")
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

	if p.Data == "" {
		p.Data = "data"
	}
	if err := os.MkdirAll(p.Data, 0o770); err != nil {
		return errors.Wrap(err, "failed to create data directory")
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(p.Data, "ein.db")
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	return nil
}
