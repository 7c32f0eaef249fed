// package formatter renders reconciliation run results as reports (plain text, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/tasks"
)

const reportBar = "============================================================"

// ExportToText renders a run result as the plain text import report.
func ExportToText(result *tasks.SyncRunResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(reportBar + "\n")
	buf.WriteString("CONTACT SYNC REPORT\n")
	buf.WriteString(reportBar + "\n")
	buf.WriteString(fmt.Sprintf("Run ID: %s\n", result.RunID))
	buf.WriteString(fmt.Sprintf("Started: %s\n", result.StartedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("Duration: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)))
	if result.TargetDomain != "" {
		buf.WriteString(fmt.Sprintf("Scope: emails containing %q\n", result.TargetDomain))
	}
	buf.WriteString("\n")

	buf.WriteString("SUMMARY\n")
	buf.WriteString(fmt.Sprintf("  Copper → Mailchimp: %d\n", result.CopperToMailchimp))
	buf.WriteString(fmt.Sprintf("  Mailchimp → Copper: %d\n", result.MailchimpToCopper))
	buf.WriteString(fmt.Sprintf("  Already identical:  %d\n", result.Identical))
	buf.WriteString(fmt.Sprintf("  Excluded:           %d\n", result.Excluded))
	buf.WriteString(fmt.Sprintf("  Failed:             %d\n", result.Failed))
	buf.WriteString(fmt.Sprintf("  Success rate:       %s\n", successRate(result)))
	buf.WriteString("\n")

	if len(result.Operations) > 0 {
		buf.WriteString("OPERATIONS\n")
		for i, op := range result.Operations {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatOperation(op)))
		}
		buf.WriteString("\n")
	}

	if len(result.Marked) > 0 {
		buf.WriteString("MARKED FOR DELETION\n")
		for _, contact := range result.Marked {
			buf.WriteString(fmt.Sprintf("  - %s <%s> (tag: %s)\n", contact.Name, contact.Email, contact.DetectedTag))
		}
		buf.WriteString("\n")
		if result.DecisionMode == models.ModeBulkIgnore {
			buf.WriteString("These contacts were deferred. Re-run with a decision to archive or delete them.\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a run result as a Markdown report.
func ExportToMarkdown(result *tasks.SyncRunResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Contact Sync Report\n\n")
	buf.WriteString(fmt.Sprintf("**Run**: %s\n", result.RunID))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", result.StartedAt.Format(time.RFC3339)))
	if result.TargetDomain != "" {
		buf.WriteString(fmt.Sprintf("**Scope**: emails containing `%s`\n", result.TargetDomain))
	}
	buf.WriteString("\n## Summary\n\n")
	buf.WriteString("| Direction | Count |\n|---|---|\n")
	buf.WriteString(fmt.Sprintf("| Copper → Mailchimp | %d |\n", result.CopperToMailchimp))
	buf.WriteString(fmt.Sprintf("| Mailchimp → Copper | %d |\n", result.MailchimpToCopper))
	buf.WriteString(fmt.Sprintf("| Identical | %d |\n", result.Identical))
	buf.WriteString(fmt.Sprintf("| Excluded | %d |\n", result.Excluded))
	buf.WriteString(fmt.Sprintf("| Failed | %d |\n", result.Failed))
	buf.WriteString(fmt.Sprintf("\n**Success rate**: %s\n", successRate(result)))

	if len(result.Operations) > 0 {
		buf.WriteString("\n## Operations\n\n")
		for i, op := range result.Operations {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatOperation(op)))
		}
	}

	if len(result.Marked) > 0 {
		buf.WriteString("\n## Marked for deletion\n\n")
		for _, contact := range result.Marked {
			buf.WriteString(fmt.Sprintf("- %s <%s> (tag: %s)\n", contact.Name, contact.Email, contact.DetectedTag))
		}
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts a run's operations to CSV with columns: Email, Name,
// Direction, Outcome, Error, Tags.
func ExportToCSV(result *tasks.SyncRunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Email", "Name", "Direction", "Outcome", "Error", "Tags"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, op := range result.Operations {
		record := []string{
			op.Email,
			op.Name,
			string(op.Direction),
			string(op.Outcome),
			op.Error,
			strings.Join(op.Tags, "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportDiffToText renders a dry-run diff as plain text.
func ExportDiffToText(diff *tasks.SyncDiffResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(reportBar + "\n")
	buf.WriteString("PENDING CHANGES (no writes issued)\n")
	buf.WriteString(reportBar + "\n\n")

	buf.WriteString(fmt.Sprintf("Upserts Copper → Mailchimp: %d\n", len(diff.PendingUpserts)))
	for _, contact := range diff.PendingUpserts {
		buf.WriteString(fmt.Sprintf("  + %s <%s>\n", contact.FullName(), contact.Email))
	}
	buf.WriteString(fmt.Sprintf("Creates Mailchimp → Copper: %d\n", len(diff.PendingCreates)))
	for _, member := range diff.PendingCreates {
		buf.WriteString(fmt.Sprintf("  + %s <%s>\n", member.FullName(), member.Email))
	}
	if len(diff.NamelessSkips) > 0 {
		buf.WriteString(fmt.Sprintf("Skipped (no name): %d\n", len(diff.NamelessSkips)))
		for _, member := range diff.NamelessSkips {
			buf.WriteString(fmt.Sprintf("  - <%s>\n", member.Email))
		}
	}
	buf.WriteString(fmt.Sprintf("Identical: %d\n", diff.Identical))
	buf.WriteString(fmt.Sprintf("Excluded: %d\n", diff.Excluded))

	if len(diff.Marked) > 0 {
		buf.WriteString(fmt.Sprintf("\nMarked for deletion: %d\n", len(diff.Marked)))
		for _, contact := range diff.Marked {
			buf.WriteString(fmt.Sprintf("  ! %s <%s> (tag: %s)\n", contact.Name, contact.Email, contact.DetectedTag))
		}
	}

	return buf.Bytes(), nil
}

// WriteReport writes a run report to disk, selecting the format from the file
// extension (.md, .csv, anything else plain text).
func WriteReport(result *tasks.SyncRunResult, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("sync_report_%s.txt", result.StartedAt.Format("20060102_150405"))
	}

	var data []byte
	var err error
	switch {
	case strings.HasSuffix(filepath, ".md"):
		data, err = ExportToMarkdown(result)
	case strings.HasSuffix(filepath, ".csv"):
		data, err = ExportToCSV(result)
	default:
		data, err = ExportToText(result)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filepath, nil
}

func formatOperation(op models.SyncOperation) string {
	marker := map[models.Outcome]string{
		models.OutcomeSuccess: "✓",
		models.OutcomeFailed:  "✗",
		models.OutcomeSkipped: "→",
		models.OutcomeManual:  "!",
	}[op.Outcome]
	if marker == "" {
		marker = "?"
	}

	who := op.Email
	if op.Name != "" {
		who = fmt.Sprintf("%s <%s>", op.Name, op.Email)
	}

	line := fmt.Sprintf("%s [%s] %s", marker, op.Direction, who)
	if len(op.Tags) > 0 {
		line += fmt.Sprintf(" tags=%s", strings.Join(op.Tags, ","))
	}
	if op.Error != "" {
		line += fmt.Sprintf(" (%s)", op.Error)
	}
	return line
}

func successRate(result *tasks.SyncRunResult) string {
	attempted := result.TotalSynced() + result.Failed
	if attempted == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(result.TotalSynced())/float64(attempted)*100)
}
