package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dyike/NexusGo/internal/models"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	ResultsDir string `json:"results_dir"`
	DataDir    string `json:"data_dir"`
	DBPath     string `json:"db_path"`

	LLMProvider   string `json:"llm_provider"`
	DeepThinkLLM  string `json:"deep_think_llm"`
	QuickThinkLLM string `json:"quick_think_llm"`

	MaxDebateRounds int    `json:"max_debate_rounds"`
	MaxRiskRounds   int    `json:"max_risk_rounds"`
	Horizon         string `json:"horizon"`

	RiskOn   bool `json:"risk_on"`
	MemoryOn bool `json:"memory_on"`
	SocialOn bool `json:"social_on"`

	Debug bool `json:"debug"`

	// Longport API configuration (HK market quotes)
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`

	// Model API keys
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	OpenAIAPIKey   string `json:"openai_api_key"`

	// Market data API keys
	FinnhubAPIKey string `json:"finnhub_api_key"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file, then override.
	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir: root,
		ResultsDir: filepath.Join(root, "results"),
		DataDir:    filepath.Join(root, "data"),
		DBPath:     filepath.Join(root, "data", "nexusgo.db"),

		LLMProvider:   "deepseek",
		DeepThinkLLM:  "deepseek-reasoner",
		QuickThinkLLM: "deepseek-chat",

		MaxDebateRounds: 1,
		MaxRiskRounds:   1,
		Horizon:         string(models.HorizonMedium),

		RiskOn:   true,
		MemoryOn: true,
		SocialOn: true,

		Debug: false,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("NEXUSGO_DB_PATH"); val != "" {
		c.DBPath = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("DEEP_THINK_LLM"); val != "" {
		c.DeepThinkLLM = val
	}
	if val := os.Getenv("QUICK_THINK_LLM"); val != "" {
		c.QuickThinkLLM = val
	}

	if val := os.Getenv("MAX_DEBATE_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxDebateRounds = v
		}
	}
	if val := os.Getenv("MAX_RISK_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxRiskRounds = v
		}
	}
	if val := os.Getenv("NEXUSGO_HORIZON"); val != "" {
		c.Horizon = val
	}

	if val := os.Getenv("NEXUSGO_RISK_ON"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.RiskOn = b
		}
	}
	if val := os.Getenv("NEXUSGO_MEMORY_ON"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.MemoryOn = b
		}
	}
	if val := os.Getenv("NEXUSGO_SOCIAL_ON"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.SocialOn = b
		}
	}
	if val := os.Getenv("NEXUSGO_DEBUG"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
}

func (c *Config) Validate() error {
	if c.MaxDebateRounds < 1 {
		return fmt.Errorf("max_debate_rounds must be >= 1, got %d", c.MaxDebateRounds)
	}
	if c.MaxRiskRounds < 1 {
		return fmt.Errorf("max_risk_rounds must be >= 1, got %d", c.MaxRiskRounds)
	}
	switch models.Horizon(c.Horizon) {
	case models.HorizonShort, models.HorizonMedium, models.HorizonLong:
	default:
		return fmt.Errorf("horizon must be short, medium or long, got %q", c.Horizon)
	}
	return nil
}

// RunConfig builds the per-run flag set for one analysis date.
func (c *Config) RunConfig(simulatedDate string) models.RunConfig {
	return models.RunConfig{
		SimulatedDate: simulatedDate,
		Horizon:       models.Horizon(c.Horizon),
		DebateRounds:  c.MaxDebateRounds,
		RiskRounds:    c.MaxRiskRounds,
		RiskOn:        c.RiskOn,
		MemoryOn:      c.MemoryOn,
		SocialOn:      c.SocialOn,
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
