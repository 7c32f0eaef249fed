package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/cmx/internal/registry"
	"github.com/desertthunder/cmx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	client := registry.NewClient(registry.ClientOpts{
		Attempts:  config.Sync.RetryBudget,
		Delay:     time.Duration(config.Sync.RetryDelayMS) * time.Millisecond,
		RateLimit: config.Sync.RateLimit,
		Logger:    logger,
	})

	var copperService registry.ContactService
	if svc, err := registry.NewCopperService(
		config.Credentials.Copper.BaseURL,
		config.Credentials.Copper.APIKey,
		config.Credentials.Copper.UserEmail,
		client,
	); err == nil {
		copperService = svc
	}

	var mailchimpService registry.MemberService
	var token *oauth2.Token
	if config.Credentials.Mailchimp.AccessToken != "" {
		token = &oauth2.Token{AccessToken: config.Credentials.Mailchimp.AccessToken, TokenType: "Bearer"}
	}
	if svc, err := registry.NewMailchimpService(
		config.Credentials.Mailchimp.Datacenter,
		config.Credentials.Mailchimp.APIKey,
		config.Credentials.Mailchimp.ListID,
		token,
		client,
	); err == nil {
		mailchimpService = svc
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Copper:    copperService,
		Mailchimp: mailchimpService,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "cmx",
		Usage:    "Reconcile contacts between Copper CRM & Mailchimp",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
