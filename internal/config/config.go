package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	Dida       DidaConfig       `yaml:"dida"`
	OAuth      OAuthConfig      `yaml:"oauth"`
	LLM        LLMConfig        `yaml:"llm"`
	Credential CredentialConfig `yaml:"credential"`
	Journal    JournalConfig    `yaml:"journal"`
	Reports    ReportsConfig    `yaml:"reports"`
	Log        LogConfig        `yaml:"log"`
}

type DidaConfig struct {
	BaseURL  string `yaml:"base_url"`
	InboxID  string `yaml:"inbox_id"`
	TimeZone string `yaml:"timezone"`
}

type OAuthConfig struct {
	ClientID            string   `yaml:"client_id"`
	ClientSecret        string   `yaml:"client_secret"`
	RedirectURI         string   `yaml:"redirect_uri"`
	AuthURL             string   `yaml:"auth_url"`
	TokenURL            string   `yaml:"token_url"`
	Scopes              []string `yaml:"scopes"`
	SafetyMarginSeconds int      `yaml:"safety_margin_seconds"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type CredentialConfig struct {
	Path string `yaml:"path"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type ReportsConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment
// variables. Environment variables win over file values.
func Load() (Config, error) {
	home := dataDir()
	cfg := Config{
		Dida: DidaConfig{
			BaseURL:  "https://api.dida365.com/open/v1",
			TimeZone: "Asia/Shanghai",
		},
		OAuth: OAuthConfig{
			AuthURL:             "https://dida365.com/oauth/authorize",
			TokenURL:            "https://dida365.com/oauth/token",
			RedirectURI:         "http://localhost:8080/callback",
			Scopes:              []string{"tasks:write", "tasks:read"},
			SafetyMarginSeconds: 30,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
		},
		Credential: CredentialConfig{Path: filepath.Join(home, "token.json")},
		Journal:    JournalConfig{Path: filepath.Join(home, "journal.db")},
		Reports:    ReportsConfig{Dir: "."},
		Log:        LogConfig{Level: "info"},
	}

	if path := os.Getenv("TICKPLAN_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Dida.BaseURL, "TICKPLAN_DIDA_BASE_URL")
	set(&cfg.Dida.InboxID, "TICKPLAN_INBOX_ID")
	set(&cfg.Dida.TimeZone, "TICKPLAN_TIMEZONE")
	set(&cfg.OAuth.ClientID, "TICKPLAN_CLIENT_ID")
	set(&cfg.OAuth.ClientSecret, "TICKPLAN_CLIENT_SECRET")
	set(&cfg.OAuth.RedirectURI, "TICKPLAN_REDIRECT_URI")
	set(&cfg.LLM.BaseURL, "TICKPLAN_LLM_BASE_URL")
	set(&cfg.LLM.APIKey, "TICKPLAN_LLM_API_KEY")
	set(&cfg.LLM.Model, "TICKPLAN_LLM_MODEL")
	set(&cfg.Credential.Path, "TICKPLAN_CREDENTIAL_PATH")
	set(&cfg.Journal.Path, "TICKPLAN_JOURNAL_PATH")
	set(&cfg.Reports.Dir, "TICKPLAN_REPORTS_DIR")
	set(&cfg.Log.Level, "TICKPLAN_LOG_LEVEL")
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// SafetyMargin returns the token expiry safety margin.
func (c OAuthConfig) SafetyMargin() time.Duration {
	return time.Duration(c.SafetyMarginSeconds) * time.Second
}

// ValidateOAuth checks the fields the authentication flow requires.
func (c OAuthConfig) ValidateOAuth() error {
	if c.ClientID == "" {
		return errors.New("oauth client_id not configured (TICKPLAN_CLIENT_ID)")
	}
	if c.ClientSecret == "" {
		return errors.New("oauth client_secret not configured (TICKPLAN_CLIENT_SECRET)")
	}
	if c.RedirectURI == "" {
		return errors.New("oauth redirect_uri not configured (TICKPLAN_REDIRECT_URI)")
	}
	return nil
}

// Location resolves the configured timezone.
func (c DidaConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// dataDir is where credentials and the journal live by default.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tickplan"
	}
	return filepath.Join(home, ".tickplan")
}
