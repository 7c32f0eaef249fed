package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/cmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupConfig writes a config.toml template for the user to fill in.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config template written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in copper.api_key and copper.user_email\n")
	r.writePlain("2. Fill in mailchimp.api_key (or access_token), datacenter, and list_id\n")
	r.writePlain("3. Run 'cmx sync diff' to preview changes\n")

	return nil
}

func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the history database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Create a config.toml template",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
		},
	}
}
