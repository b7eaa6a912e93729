package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Agent     AgentConfig     `toml:"agent"`
	Responder ResponderConfig `toml:"responder"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
	Tracing   TracingConfig   `toml:"tracing"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	Port        int    `toml:"port"`
	ExternalURL string `toml:"external_url"`
}

type AgentConfig struct {
	Name             string        `toml:"name"`
	Description      string        `toml:"description"`
	Version          string        `toml:"version"`
	UserID           string        `toml:"user_id"`
	DocumentationURL string        `toml:"documentation_url"`
	Organization     string        `toml:"organization"`
	OrganizationURL  string        `toml:"organization_url"`
	InputModes       []string      `toml:"input_modes"`
	OutputModes      []string      `toml:"output_modes"`
	Skills           []SkillConfig `toml:"skills"`
}

type SkillConfig struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Tags        []string `toml:"tags"`
	Examples    []string `toml:"examples"`
}

type ResponderConfig struct {
	Kind        string `toml:"kind"`
	Model       string `toml:"model"`
	APIKeyEnv   string `toml:"api_key_env"`
	Credential  string `toml:"credential"`
	Instruction string `toml:"instruction"`
	TimeLayout  string `toml:"time_layout"`
}

type StoreConfig struct {
	DSN   string `toml:"dsn"`
	Audit bool   `toml:"audit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TracingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Bind: "loopback",
			Port: 5000,
		},
		Agent: AgentConfig{
			Name:        "TellTimeAgent",
			Description: "Tells the current time when asked",
			Version:     "1.0",
			UserID:      "a2a_user",
			InputModes:  []string{"text", "text/plain"},
			OutputModes: []string{"text", "text/plain"},
		},
		Responder: ResponderConfig{
			Kind:       "clock",
			Credential: "gemini_api_key",
		},
		Store: StoreConfig{
			DSN:   filepath.Join(DataDir(), "ticktock.db"),
			Audit: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the TOML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Store.DSN == "" {
		cfg.Store.DSN = filepath.Join(DataDir(), "ticktock.db")
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TICKTOCK_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("TICKTOCK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TICKTOCK_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("TICKTOCK_EXTERNAL_URL"); v != "" {
		cfg.Server.ExternalURL = v
	}
	if v := os.Getenv("TICKTOCK_RESPONDER"); v != "" {
		cfg.Responder.Kind = v
	}
	if v := os.Getenv("TICKTOCK_MODEL"); v != "" {
		cfg.Responder.Model = v
	}
	if v := os.Getenv("TICKTOCK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// APIKey resolves the responder API key: the configured variable first,
// then GOOGLE_API_KEY and GEMINI_API_KEY.
func (c ResponderConfig) APIKey() string {
	for _, name := range []string{c.APIKeyEnv, "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func DataDir() string {
	if dir := os.Getenv("TICKTOCK_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ticktock"
	}
	return filepath.Join(home, ".ticktock")
}

func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "ticktock.toml")
}

func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
