package repositories

import (
	"testing"
	"time"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
	"github.com/desertthunder/cmx/internal/tasks"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}

	return NewRunRepository(db)
}

func sampleResult() *tasks.SyncRunResult {
	start := time.Now().Add(-time.Minute)
	return &tasks.SyncRunResult{
		RunID:             shared.GenerateID(),
		StartedAt:         start,
		FinishedAt:        start.Add(30 * time.Second),
		TargetDomain:      "@exemple",
		CopperToMailchimp: 2,
		MailchimpToCopper: 1,
		Identical:         5,
		Excluded:          1,
		Failed:            1,
		Operations: []models.SyncOperation{
			{Email: "a@exemple.fr", Name: "A One", Direction: models.CopperToMailchimp, Outcome: models.OutcomeSuccess, Tags: []string{"VIP"}},
			{Email: "b@exemple.fr", Direction: models.CopperToMailchimp, Outcome: models.OutcomeFailed, Error: "boom"},
		},
		Marked: []models.MarkedContact{
			{Email: "c@exemple.fr", Name: "C Three", CopperID: "3", DetectedTag: "A SUPPRIMER"},
		},
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("SaveRun and GetRun round trip", func(t *testing.T) {
		repo := newTestRepo(t)
		result := sampleResult()

		if err := repo.SaveRun(result); err != nil {
			t.Fatalf("SaveRun() error: %v", err)
		}

		run, ops, err := repo.GetRun(result.RunID)
		if err != nil {
			t.Fatalf("GetRun() error: %v", err)
		}

		if run.CopperToMailchimp != 2 || run.MailchimpToCopper != 1 {
			t.Errorf("unexpected counters: %+v", run)
		}
		if run.Marked != 1 {
			t.Errorf("expected 1 marked, got %d", run.Marked)
		}
		if run.TargetDomain != "@exemple" {
			t.Errorf("unexpected target domain: %q", run.TargetDomain)
		}

		if len(ops) != 2 {
			t.Fatalf("expected 2 operations, got %d", len(ops))
		}
		if ops[0].Email != "a@exemple.fr" || ops[0].Outcome != models.OutcomeSuccess {
			t.Errorf("unexpected first operation: %+v", ops[0])
		}
		if len(ops[0].Tags) != 1 || ops[0].Tags[0] != "VIP" {
			t.Errorf("expected tags restored, got %v", ops[0].Tags)
		}
		if ops[1].Error != "boom" {
			t.Errorf("expected error detail restored, got %q", ops[1].Error)
		}
	})

	t.Run("ListRuns orders newest first", func(t *testing.T) {
		repo := newTestRepo(t)

		older := sampleResult()
		older.StartedAt = time.Now().Add(-time.Hour)
		newer := sampleResult()

		if err := repo.SaveRun(older); err != nil {
			t.Fatal(err)
		}
		if err := repo.SaveRun(newer); err != nil {
			t.Fatal(err)
		}

		runs, err := repo.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != newer.RunID {
			t.Error("expected newest run first")
		}
	})

	t.Run("ListRuns respects limit", func(t *testing.T) {
		repo := newTestRepo(t)
		for range 3 {
			if err := repo.SaveRun(sampleResult()); err != nil {
				t.Fatal(err)
			}
		}

		runs, err := repo.ListRuns(2)
		if err != nil {
			t.Fatalf("ListRuns() error: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("GetRun for unknown id fails", func(t *testing.T) {
		repo := newTestRepo(t)
		if _, _, err := repo.GetRun("nope"); err == nil {
			t.Error("expected error for unknown run")
		}
	})
}
