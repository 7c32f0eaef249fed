package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains registry-specific credentials.
type CredentialsConfig struct {
	Copper    CopperConfig    `toml:"copper"`
	Mailchimp MailchimpConfig `toml:"mailchimp"`
}

// CopperConfig contains Copper developer API credentials.
type CopperConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	UserEmail string `toml:"user_email"`
}

// MailchimpConfig contains Mailchimp API credentials. Either an API key with
// a datacenter prefix or an OAuth2 access token may be supplied.
type MailchimpConfig struct {
	APIKey      string `toml:"api_key"`
	AccessToken string `toml:"access_token"`
	Datacenter  string `toml:"datacenter"`
	ListID      string `toml:"list_id"`
}

// SyncConfig contains reconciliation run settings.
type SyncConfig struct {
	// TargetDomain scopes a run to emails containing this substring
	// (staged-rollout mode). Empty means the whole population.
	TargetDomain      string  `toml:"target_domain"`
	CopperPageSize    int     `toml:"copper_page_size"`
	MailchimpPageSize int     `toml:"mailchimp_page_size"`
	RetryBudget       int     `toml:"retry_budget"`
	RetryDelayMS      int     `toml:"retry_delay_ms"`
	RateLimit         float64 `toml:"rate_limit"`
	TagMaxLength      int     `toml:"tag_max_length"`
}

// DatabaseConfig contains run-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the credentials required to reach both registries are
// present. Called before a run starts so that missing configuration aborts
// the job before any record is touched.
func (c *Config) Validate() error {
	if c.Credentials.Copper.APIKey == "" || c.Credentials.Copper.UserEmail == "" {
		return fmt.Errorf("%w: copper api_key and user_email are required", ErrMissingCredentials)
	}
	if c.Credentials.Mailchimp.APIKey == "" && c.Credentials.Mailchimp.AccessToken == "" {
		return fmt.Errorf("%w: mailchimp api_key or access_token is required", ErrMissingCredentials)
	}
	if c.Credentials.Mailchimp.Datacenter == "" {
		return fmt.Errorf("%w: mailchimp datacenter is required", ErrMissingCredentials)
	}
	if c.Credentials.Mailchimp.ListID == "" {
		return fmt.Errorf("%w: mailchimp list_id is required", ErrMissingCredentials)
	}
	return nil
}
