package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cmx/internal/formatter"
	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/repositories"
	"github.com/desertthunder/cmx/internal/shared"
	"github.com/desertthunder/cmx/internal/tasks"
	"github.com/desertthunder/cmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncRun runs a full bidirectional Copper ↔ Mailchimp reconciliation.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	domain := cmd.String("domain")
	if domain == "" {
		domain = r.config.Sync.TargetDomain
	}

	decider, err := r.resolveDecider(cmd.String("decision"))
	if err != nil {
		return err
	}

	r.logger.Info("starting sync", "domain", domain, "decision", cmd.String("decision"))
	r.writePlain("Starting contact sync...\n")
	if domain != "" {
		r.writePlain("Scope: emails containing %q\n", domain)
	}
	r.writePlain("\n")

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.PhaseFetchCopper, tasks.PhaseFetchMailchimp:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.PhaseClassify, tasks.PhaseIndex:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.PhaseCopperToMailchimp, tasks.PhaseMailchimpToCopper:
				if update.Total > 0 {
					r.writePlain("   [%d/%d] %s\n", update.Current, update.Total, update.Message)
				}
			case tasks.PhaseLifecycle:
				r.writePlain("🗂  [%d/%d] %s\n", update.Current, update.Total, update.Message)
			}
		}
	}()

	engine := r.buildEngine(domain, decider)
	result, runErr := engine.Run(ctx, progressCh)
	close(progressCh)
	<-done

	// A failed enumeration still yields the operations completed before the
	// abort; report them before surfacing the error.
	report, err := formatter.ExportToText(result)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	r.writePlain("\n%s", string(report))

	if path := cmd.String("report"); path != "" {
		written, err := formatter.WriteReport(result, path)
		if err != nil {
			return err
		}
		r.writePlain("Report written to %s\n", written)
	}

	if cmd.Bool("save") {
		if err := r.saveRun(result); err != nil {
			r.logger.Error("failed to persist run", "err", err)
		} else {
			r.writePlain("Run %s saved to history\n", result.RunID)
		}
	}

	return runErr
}

// SyncDiff previews pending changes without writing to either registry.
func (r *Runner) SyncDiff(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	domain := cmd.String("domain")
	if domain == "" {
		domain = r.config.Sync.TargetDomain
	}

	r.logger.Info("sync diff requested", "domain", domain)
	r.writePlain("Comparing registries...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.PhaseFetchCopper || update.Phase == tasks.PhaseFetchMailchimp {
				r.writePlain("📥 %s\n", update.Message)
			}
		}
	}()

	engine := r.buildEngine(domain, tasks.StaticDecisionProvider{Mode: models.ModeBulkIgnore})
	diff, err := engine.Diff(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(diff, true)
	}

	out, err := formatter.ExportDiffToText(diff)
	if err != nil {
		return fmt.Errorf("failed to render diff: %w", err)
	}
	r.writePlain("\n%s", string(out))
	return nil
}

// resolveDecider maps the --decision flag to a decision provider. "ask" runs
// the interactive review TUI; logs move to a file so they do not corrupt the
// terminal while the TUI owns it.
func (r *Runner) resolveDecider(decision string) (tasks.DecisionProvider, error) {
	switch decision {
	case "ask":
		fileLogger, err := shared.NewFileLogger("./tmp/cmx-tui.log")
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
		return ui.NewDecisionProvider(), nil
	case "ignore", "":
		return tasks.StaticDecisionProvider{Mode: models.ModeBulkIgnore}, nil
	case "archive":
		return tasks.StaticDecisionProvider{Mode: models.ModeBulkArchive}, nil
	case "delete":
		return tasks.StaticDecisionProvider{Mode: models.ModeBulkDelete}, nil
	default:
		return nil, fmt.Errorf("%w: invalid decision '%s' (must be ask, ignore, archive, or delete)", shared.ErrInvalidFlag, decision)
	}
}

// saveRun persists a run result to the history database.
func (r *Runner) saveRun(result *tasks.SyncRunResult) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewRunRepository(db).SaveRun(result)
}

// syncCommand handles reconciliation operations
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile contacts between Copper and Mailchimp",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run full bidirectional sync",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Only process emails containing this substring",
					},
					&cli.StringFlag{
						Name:  "decision",
						Usage: "How to handle contacts flagged for deletion (ask, ignore, archive, delete)",
						Value: "ignore",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the run report to this file (.txt, .md, or .csv)",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Persist the run to the history database",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "diff",
				Usage: "Preview pending changes without writing",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Only process emails containing this substring",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the diff as JSON",
					},
				},
				Action: r.SyncDiff,
			},
		},
	}
}
