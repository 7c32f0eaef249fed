package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/cmx/internal/repositories"
	"github.com/desertthunder/cmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent sync runs from the history database.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).ListRuns(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded. Use 'cmx sync run --save' to record one.\n")
		return nil
	}

	r.writePlainHeader("Sync History")
	for _, run := range runs {
		r.writePlain("%s  %s\n", run.StartedAt.Format(time.RFC3339), run.ID)
		r.writePlain("  → Mailchimp: %d  → Copper: %d  identical: %d  excluded: %d  failed: %d\n",
			run.CopperToMailchimp, run.MailchimpToCopper, run.Identical, run.Excluded, run.Failed)
	}

	return nil
}

// HistoryShow prints one run with its recorded operations.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	run, ops, err := repositories.NewRunRepository(db).GetRun(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"run": run, "operations": ops}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Run %s", run.ID))
	r.writePlain("Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		r.writePlain("Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.TargetDomain != "" {
		r.writePlain("Scope: emails containing %q\n", run.TargetDomain)
	}
	r.writePlain("→ Mailchimp: %d  → Copper: %d  identical: %d  excluded: %d  marked: %d  failed: %d\n",
		run.CopperToMailchimp, run.MailchimpToCopper, run.Identical, run.Excluded, run.Marked, run.Failed)

	if len(ops) > 0 {
		r.writePlainln("Operations:")
		for i, op := range ops {
			line := fmt.Sprintf("%d. [%s] %s %s", i+1, op.Direction, op.Outcome, op.Email)
			if op.Error != "" {
				line += fmt.Sprintf(" (%s)", op.Error)
			}
			r.writePlain("%s\n", line)
		}
	}

	return nil
}

// historyCommand inspects persisted sync runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect saved sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one run with its operations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run as JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}
