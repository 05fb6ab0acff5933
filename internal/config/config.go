// internal/config/config.go
//
// This package handles configuration and the .homework directory structure.
// Every directory the client is launched from gets a .homework/ folder holding
// config.yaml and the log files.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// HomeworkDir is the name of the directory we create in each project
	HomeworkDir = ".homework"

	// PlaceholderURL is the backend URL shipped in fresh configs. While it (or an
	// empty URL) is configured the client answers from the built-in mock.
	PlaceholderURL = "YOUR_GOOGLE_APPS_SCRIPT_URL_HERE"

	// GuardShared makes both forms share one in-flight flag.
	GuardShared = "shared"
	// GuardPerForm gives each form its own in-flight flag.
	GuardPerForm = "per_form"

	// EnvPrefix scopes environment overrides, e.g. HOMEWORK_BACKEND_URL.
	EnvPrefix = "HOMEWORK"

	defaultMockDelay  = 1500 * time.Millisecond
	defaultMessageTTL = 5 * time.Second
	defaultLocale     = "zh-TW"
	defaultStubHost   = "127.0.0.1"
	defaultStubPort   = 8787

	// Durations below these floors are almost always a bare number that
	// decoded as nanoseconds.
	minMessageTTL = 100 * time.Millisecond
	minMockDelay  = time.Millisecond
)

const configHeader = `# homework client configuration
# backend.url: deployment URL of the review script. Leave the placeholder to use the offline mock.
# forms.guard: shared | per_form
# speech.command: empty auto-detects say / espeak-ng / espeak
`

// BackendConfig selects and tunes the transport.
type BackendConfig struct {
	URL       string        `yaml:"url" mapstructure:"url"`
	MockDelay time.Duration `yaml:"mock_delay" mapstructure:"mock_delay"`
}

// MessagesConfig controls transient status messages.
type MessagesConfig struct {
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// FormsConfig controls form submission behaviour.
type FormsConfig struct {
	Guard string `yaml:"guard" mapstructure:"guard"`
}

// SpeechConfig describes how feedback is read aloud.
type SpeechConfig struct {
	Locale  string  `yaml:"locale" mapstructure:"locale"`
	Rate    float64 `yaml:"rate" mapstructure:"rate"`
	Pitch   float64 `yaml:"pitch" mapstructure:"pitch"`
	Command string  `yaml:"command" mapstructure:"command"`
}

// StubConfig is the bind address of the local development backend.
type StubConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// ProjectConfig models .homework/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version" mapstructure:"version"`
	Backend  BackendConfig  `yaml:"backend" mapstructure:"backend"`
	Messages MessagesConfig `yaml:"messages" mapstructure:"messages"`
	Forms    FormsConfig    `yaml:"forms" mapstructure:"forms"`
	Speech   SpeechConfig   `yaml:"speech" mapstructure:"speech"`
	Stub     StubConfig     `yaml:"stub" mapstructure:"stub"`
}

// Config holds the runtime configuration for the client.
type Config struct {
	// ProjectDir is the directory the client was launched from
	ProjectDir string

	// HomeworkProjectDir is ProjectDir/.homework
	HomeworkProjectDir string

	Project ProjectConfig
}

// InitHomeworkDir creates the .homework directory structure in the given
// project directory and writes a default config.yaml when none exists.
//
// Structure created:
// .homework/
// ├── config.yaml
// └── logs/
func InitHomeworkDir(projectDir string) error {
	homeworkDir := filepath.Join(projectDir, HomeworkDir)
	if err := os.MkdirAll(filepath.Join(homeworkDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(homeworkDir, "config.yaml"))
}

// NewConfig creates a new Config populated from .homework/config.yaml and
// HOMEWORK_* environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		HomeworkProjectDir: filepath.Join(projectDir, HomeworkDir),
		Project:            defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeworkProjectDir, "logs")
}

// LogPath is the diagnostic log written by the client and its transport.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "homework.log")
}

// JournalPath is the operation journal shown in the TUI log panel.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.HomeworkProjectDir, "config.yaml")
}

// UsesMock reports whether no real backend endpoint is configured.
func (c *Config) UsesMock() bool {
	return IsPlaceholderURL(c.Project.Backend.URL)
}

// IsPlaceholderURL reports whether url designates "no backend configured".
func IsPlaceholderURL(url string) bool {
	trimmed := strings.TrimSpace(url)
	return trimmed == "" || trimmed == PlaceholderURL
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var parsed ProjectConfig
	if err := v.Unmarshal(&parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

// newViper registers every key with its default so AutomaticEnv can override
// keys that are absent from the file.
func newViper() *viper.Viper {
	d := defaultProjectConfig()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("version", d.Version)
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.mock_delay", d.Backend.MockDelay)
	v.SetDefault("messages.ttl", d.Messages.TTL)
	v.SetDefault("forms.guard", d.Forms.Guard)
	v.SetDefault("speech.locale", d.Speech.Locale)
	v.SetDefault("speech.rate", d.Speech.Rate)
	v.SetDefault("speech.pitch", d.Speech.Pitch)
	v.SetDefault("speech.command", d.Speech.Command)
	v.SetDefault("stub.host", d.Stub.Host)
	v.SetDefault("stub.port", d.Stub.Port)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Backend: BackendConfig{
			URL:       PlaceholderURL,
			MockDelay: defaultMockDelay,
		},
		Messages: MessagesConfig{TTL: defaultMessageTTL},
		Forms:    FormsConfig{Guard: GuardShared},
		Speech: SpeechConfig{
			Locale: defaultLocale,
			Rate:   1,
			Pitch:  1,
		},
		Stub: StubConfig{Host: defaultStubHost, Port: defaultStubPort},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	d := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = d.Version
	}
	if pc.Backend.MockDelay < 0 {
		pc.Backend.MockDelay = d.Backend.MockDelay
	}
	if pc.Messages.TTL <= 0 {
		pc.Messages.TTL = d.Messages.TTL
	}
	if pc.Speech.Rate <= 0 {
		pc.Speech.Rate = d.Speech.Rate
	}
	if pc.Speech.Pitch <= 0 {
		pc.Speech.Pitch = d.Speech.Pitch
	}
	if pc.Stub.Port == 0 {
		pc.Stub.Port = d.Stub.Port
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Backend.URL = strings.TrimSpace(pc.Backend.URL)
	if pc.Backend.URL == "" {
		pc.Backend.URL = PlaceholderURL
	}
	pc.Forms.Guard = strings.ToLower(strings.TrimSpace(pc.Forms.Guard))
	pc.Forms.Guard = strings.ReplaceAll(pc.Forms.Guard, "-", "_")
	if pc.Forms.Guard == "" {
		pc.Forms.Guard = GuardShared
	}
	pc.Speech.Locale = strings.TrimSpace(pc.Speech.Locale)
	if pc.Speech.Locale == "" {
		pc.Speech.Locale = defaultLocale
	}
	pc.Speech.Command = strings.TrimSpace(pc.Speech.Command)
	pc.Stub.Host = strings.TrimSpace(pc.Stub.Host)
	if pc.Stub.Host == "" {
		pc.Stub.Host = defaultStubHost
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !IsPlaceholderURL(pc.Backend.URL) {
		if !strings.HasPrefix(pc.Backend.URL, "http://") && !strings.HasPrefix(pc.Backend.URL, "https://") {
			return fmt.Errorf("backend.url must be an http(s) URL")
		}
	}
	if pc.Messages.TTL < minMessageTTL {
		return fmt.Errorf("messages.ttl %s is below %s; use a unit, e.g. 5s", pc.Messages.TTL, minMessageTTL)
	}
	if pc.Backend.MockDelay > 0 && pc.Backend.MockDelay < minMockDelay {
		return fmt.Errorf("backend.mock_delay %s is below %s; use a unit, e.g. 1500ms", pc.Backend.MockDelay, minMockDelay)
	}
	switch pc.Forms.Guard {
	case GuardShared, GuardPerForm:
	default:
		return fmt.Errorf("forms.guard must be '%s' or '%s'", GuardShared, GuardPerForm)
	}
	if _, err := language.Parse(pc.Speech.Locale); err != nil {
		return fmt.Errorf("speech.locale %q: %w", pc.Speech.Locale, err)
	}
	if pc.Stub.Port < 0 || pc.Stub.Port > 65535 {
		return fmt.Errorf("stub.port must be within 0-65535")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := yaml.Marshal(defaultProjectConfig())
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}

// SetBackendURL updates the backend endpoint and persists the value back to
// .homework/config.yaml.
func (c *Config) SetBackendURL(url string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.Backend.URL = strings.TrimSpace(url)
	return c.saveProjectConfig()
}

func (c *Config) saveProjectConfig() error {
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.HomeworkProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure homework dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), append([]byte(configHeader), data...), 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
