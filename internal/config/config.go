package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderWebSocket = "websocket"

	DefaultModel         = "gpt-4o-mini"
	DefaultModelBaseURL  = "https://justadudewhohacks.github.io/face-api.js/models"
	DefaultWindowTicks   = 5
	DefaultTickMillis    = 1000
	DefaultReplyDelay    = 1000
	DefaultCannedReply   = "Thanks for your message! We will get back to you soon."
	DefaultLogLevel      = "info"
	DefaultProfileName   = "default"
	defaultFrameFileName = "frame.jpg"
)

// DefaultModelManifests are the face-api weight manifests the websocket
// provider needs before the first detection.
var DefaultModelManifests = []string{
	"tiny_face_detector_model-weights_manifest.json",
	"age_gender_model-weights_manifest.json",
	"face_landmark_68_model-weights_manifest.json",
	"face_recognition_model-weights_manifest.json",
}

var ErrProfileNotFound = errors.New("profile not found")

type Profile struct {
	Provider       string   `json:"provider" yaml:"provider" validate:"required,oneof=openai gemini websocket"`
	APIKey         string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL        string   `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	RequiredModels []string `json:"required_models,omitempty" yaml:"required_models,omitempty"`
	Endpoint       string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	ModelBaseURL   string   `json:"model_base_url,omitempty" yaml:"model_base_url,omitempty" validate:"omitempty,url"`
	ModelManifests []string `json:"model_manifests,omitempty" yaml:"model_manifests,omitempty"`
	FramePath      string   `json:"frame_path,omitempty" yaml:"frame_path,omitempty"`
	CaptureCommand []string `json:"capture_command,omitempty" yaml:"capture_command,omitempty"`
}

type DetectionSettings struct {
	WindowTicks int `json:"window_ticks" validate:"min=1,max=60"`
	TickMillis  int `json:"tick_millis" validate:"min=50,max=10000"`
}

type ChatSettings struct {
	ReplyDelayMillis int    `json:"reply_delay_millis" validate:"min=0,max=60000"`
	CannedReply      string `json:"canned_reply" validate:"required"`
}

type Config struct {
	Profiles       map[string]Profile `json:"profiles"`
	ActiveProfile  string             `json:"active_profile"`
	Detection      DetectionSettings  `json:"detection"`
	Chat           ChatSettings       `json:"chat"`
	LogLevel       string             `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	currentProfile *Profile
}

var validate = validator.New()

func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config %s: %w", configPath, err)
	}

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	return config, nil
}

// Validate checks the settings sections and the shape of every profile.
// Missing credentials are not an error here; see Profile.Ready.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, p := range c.Profiles {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}

// Ready reports whether the profile has what its provider needs to run.
func (p Profile) Ready() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	switch p.Provider {
	case ProviderOpenAI, ProviderGemini:
		if p.APIKey == "" {
			return fmt.Errorf("%s provider requires an api key", p.Provider)
		}
	case ProviderWebSocket:
		if p.Endpoint == "" {
			return fmt.Errorf("websocket provider requires an endpoint")
		}
	}
	return nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.currentProfile.Ready() == nil
}

func (c *Config) CurrentProfile() Profile {
	if c.currentProfile == nil {
		return DefaultProfile()
	}
	return *c.currentProfile
}

// UseProfile makes name the active profile.
func (c *Config) UseProfile(name string) error {
	p, ok := c.Profiles[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.ActiveProfile = name
	c.currentProfile = &p
	return nil
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Detection.TickMillis) * time.Millisecond
}

func (c *Config) ReplyDelay() time.Duration {
	return time.Duration(c.Chat.ReplyDelayMillis) * time.Millisecond
}

// Dir returns the directory holding config.json, logs and the default frame.
func Dir() (string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

// FramePath returns the snapshot file for the current profile.
func (c *Config) FramePath() string {
	if p := c.CurrentProfile(); p.FramePath != "" {
		return p.FramePath
	}
	dir, err := Dir()
	if err != nil {
		return defaultFrameFileName
	}
	return filepath.Join(dir, defaultFrameFileName)
}

func getConfigPath() (string, error) {
	var configDir string

	// Use RORIAGE_HOME if set, otherwise use user's home directory
	if home := os.Getenv("RORIAGE_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".roriage", "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultProfile is the profile written on first run.
func DefaultProfile() Profile {
	return Profile{
		Provider: ProviderOpenAI,
		Model:    DefaultModel,
	}
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			DefaultProfileName: DefaultProfile(),
		},
		ActiveProfile: DefaultProfileName,
	}
	config.applyDefaults()

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

// applyDefaults fills sections missing from older config files.
func (c *Config) applyDefaults() {
	if c.Detection.WindowTicks == 0 {
		c.Detection.WindowTicks = DefaultWindowTicks
	}
	if c.Detection.TickMillis == 0 {
		c.Detection.TickMillis = DefaultTickMillis
	}
	if c.Chat.ReplyDelayMillis == 0 {
		c.Chat.ReplyDelayMillis = DefaultReplyDelay
	}
	if c.Chat.CannedReply == "" {
		c.Chat.CannedReply = DefaultCannedReply
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	for name, p := range c.Profiles {
		if p.Provider == "" {
			p.Provider = ProviderOpenAI
		}
		if p.Provider == ProviderWebSocket {
			if p.ModelBaseURL == "" {
				p.ModelBaseURL = DefaultModelBaseURL
			}
			if len(p.ModelManifests) == 0 {
				p.ModelManifests = append([]string(nil), DefaultModelManifests...)
			}
		}
		c.Profiles[name] = p
	}
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// If active profile doesn't exist, try to use the first available profile
		for name, p := range c.Profiles {
			c.ActiveProfile = name
			profile = p
			exists = true
			break
		}
	}

	if !exists {
		return fmt.Errorf("no valid profiles found")
	}

	c.currentProfile = &profile
	return nil
}
