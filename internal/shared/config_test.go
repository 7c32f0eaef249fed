package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Sync.CopperPageSize != 200 {
		t.Errorf("expected copper page size 200, got %d", config.Sync.CopperPageSize)
	}
	if config.Sync.MailchimpPageSize != 1000 {
		t.Errorf("expected mailchimp page size 1000, got %d", config.Sync.MailchimpPageSize)
	}
	if config.Sync.RetryBudget != 2 {
		t.Errorf("expected retry budget 2, got %d", config.Sync.RetryBudget)
	}
	if config.Sync.TagMaxLength != 50 {
		t.Errorf("expected tag max length 50, got %d", config.Sync.TagMaxLength)
	}
	if config.Database.Path == "" {
		t.Error("expected a default database path")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("parses a valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.copper]
api_key = "ck"
user_email = "ops@example.com"

[credentials.mailchimp]
api_key = "mk"
datacenter = "us1"
list_id = "abc"

[sync]
target_domain = "@exemple"
copper_page_size = 100
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if config.Credentials.Copper.APIKey != "ck" {
			t.Errorf("unexpected copper key: %q", config.Credentials.Copper.APIKey)
		}
		if config.Sync.TargetDomain != "@exemple" {
			t.Errorf("unexpected target domain: %q", config.Sync.TargetDomain)
		}
		if config.Sync.CopperPageSize != 100 {
			t.Errorf("unexpected page size: %d", config.Sync.CopperPageSize)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		os.WriteFile(path, []byte("not [valid"), 0644)
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("creates from template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile() error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file at %s", path)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("existing"), 0644)
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error for existing file")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		config := DefaultConfig()
		config.Credentials.Copper.APIKey = "ck"
		config.Credentials.Copper.UserEmail = "ops@example.com"
		config.Credentials.Mailchimp.APIKey = "mk"
		config.Credentials.Mailchimp.Datacenter = "us1"
		config.Credentials.Mailchimp.ListID = "abc"
		return config
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("access token substitutes for api key", func(t *testing.T) {
		config := valid()
		config.Credentials.Mailchimp.APIKey = ""
		config.Credentials.Mailchimp.AccessToken = "tok"
		if err := config.Validate(); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing copper key", func(c *Config) { c.Credentials.Copper.APIKey = "" }},
		{"missing copper email", func(c *Config) { c.Credentials.Copper.UserEmail = "" }},
		{"missing mailchimp auth", func(c *Config) {
			c.Credentials.Mailchimp.APIKey = ""
			c.Credentials.Mailchimp.AccessToken = ""
		}},
		{"missing datacenter", func(c *Config) { c.Credentials.Mailchimp.Datacenter = "" }},
		{"missing list id", func(c *Config) { c.Credentials.Mailchimp.ListID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid()
			tc.mutate(config)
			if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}
