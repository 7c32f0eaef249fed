package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
	tu "github.com/desertthunder/cmx/internal/testing"
)

func newTestEngine(copper *tu.MockContactService, mailchimp *tu.MockMemberService, decider DecisionProvider) *ContactEngine {
	return NewContactEngine(copper, mailchimp, EngineOpts{
		Decider: decider,
	})
}

func TestContactEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("pushes active contacts to mailchimp", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "Jean", LastName: "Martin", Email: "jean@example.com", Tags: []string{"VIP"}},
		}}
		mailchimp := &tu.MockMemberService{}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if result.CopperToMailchimp != 1 {
			t.Errorf("expected 1 upsert, got %d", result.CopperToMailchimp)
		}
		if len(mailchimp.Upserted) != 1 || mailchimp.Upserted[0].Email != "jean@example.com" {
			t.Errorf("expected jean@example.com upserted, got %v", mailchimp.Upserted)
		}
		if tags := mailchimp.AppliedTags["jean@example.com"]; len(tags) != 1 || tags[0] != "VIP" {
			t.Errorf("expected tags applied, got %v", tags)
		}
	})

	t.Run("identical contacts produce no writes", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "Jean", LastName: "Martin", Email: "jean@example.com"},
		}}
		mailchimp := &tu.MockMemberService{Members: []models.Subscriber{
			{FirstName: "Jean", LastName: "Martin", Email: "jean@example.com", Status: models.StatusSubscribed},
		}}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if len(mailchimp.Upserted) != 0 {
			t.Errorf("expected no upserts, got %d", len(mailchimp.Upserted))
		}
		if result.Identical != 1 {
			t.Errorf("expected 1 identical, got %d", result.Identical)
		}
		if result.CopperToMailchimp != 0 || result.MailchimpToCopper != 0 {
			t.Error("identical state must be a no-op in both directions")
		}
	})

	t.Run("second run after sync is a no-op", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "Jean", LastName: "Martin", Email: "jean@example.com"},
		}}
		mailchimp := &tu.MockMemberService{}

		engine := newTestEngine(copper, mailchimp, nil)
		if _, err := engine.Run(ctx, nil); err != nil {
			t.Fatalf("first Run() error: %v", err)
		}

		// Mirror the first run's writes into the member list.
		for _, m := range mailchimp.Upserted {
			m.Status = models.StatusSubscribed
			mailchimp.Members = append(mailchimp.Members, m)
		}
		mailchimp.Upserted = nil

		result, err := engine.Run(ctx, nil)
		if err != nil {
			t.Fatalf("second Run() error: %v", err)
		}
		if len(mailchimp.Upserted) != 0 {
			t.Errorf("second run issued %d upserts, want 0", len(mailchimp.Upserted))
		}
		if result.Identical != 1 {
			t.Errorf("expected 1 identical on second run, got %d", result.Identical)
		}
	})

	t.Run("excludes inactive and marked contacts", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "A", Email: "a@example.com", Tags: []string{"📥 INACTIF"}},
			{ID: "2", FirstName: "B", Email: "b@example.com", Tags: []string{"A SUPPRIMER"}},
			{ID: "3", FirstName: "C", Email: "c@example.com"},
		}}
		mailchimp := &tu.MockMemberService{}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if result.Excluded != 2 {
			t.Errorf("expected 2 excluded, got %d", result.Excluded)
		}
		if len(mailchimp.Upserted) != 1 || mailchimp.Upserted[0].Email != "c@example.com" {
			t.Errorf("only the active contact should be pushed, got %v", mailchimp.Upserted)
		}
		if len(result.Marked) != 1 || result.Marked[0].Email != "b@example.com" {
			t.Errorf("expected b@example.com marked, got %v", result.Marked)
		}
	})

	t.Run("creates copper records for unknown members", func(t *testing.T) {
		copper := &tu.MockContactService{}
		mailchimp := &tu.MockMemberService{Members: []models.Subscriber{
			{FirstName: "New", LastName: "Member", Email: "new@example.com", Status: models.StatusSubscribed},
		}}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if result.MailchimpToCopper != 1 {
			t.Errorf("expected 1 create, got %d", result.MailchimpToCopper)
		}
		if len(copper.CreatedIDs) != 1 {
			t.Errorf("expected 1 created contact, got %d", len(copper.CreatedIDs))
		}
	})

	t.Run("skips nameless members", func(t *testing.T) {
		copper := &tu.MockContactService{}
		mailchimp := &tu.MockMemberService{Members: []models.Subscriber{
			{Email: "ghost@example.com", Status: models.StatusSubscribed},
		}}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if len(copper.CreatedIDs) != 0 {
			t.Error("nameless member must not produce a copper record")
		}

		var found bool
		for _, op := range result.Operations {
			if op.Email == "ghost@example.com" && op.Outcome == models.OutcomeSkipped {
				found = true
			}
		}
		if !found {
			t.Error("expected a skip operation for the nameless member")
		}
	})

	t.Run("per-record failure does not halt the run", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "A", Email: "a@example.com"},
			{ID: "2", FirstName: "B", Email: "b@example.com"},
		}}
		mailchimp := &tu.MockMemberService{UpsertErr: errors.New("boom")}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if result.Failed != 2 {
			t.Errorf("expected 2 failed operations, got %d", result.Failed)
		}
		if len(result.Operations) != 2 {
			t.Errorf("expected both records attempted, got %d operations", len(result.Operations))
		}
	})

	t.Run("compliance rejection is flagged for manual follow-up", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "A", Email: "a@example.com"},
		}}
		mailchimp := &tu.MockMemberService{
			UpsertErr: shared.ErrComplianceState,
		}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if len(result.Operations) != 1 || result.Operations[0].Outcome != models.OutcomeManual {
			t.Errorf("expected manual outcome, got %+v", result.Operations)
		}
		if result.Failed != 0 {
			t.Errorf("manual rejections should not count as failures, got %d", result.Failed)
		}
	})

	t.Run("fetch failure aborts with partial result", func(t *testing.T) {
		copper := &tu.MockContactService{ListErr: errors.New("copper down")}
		mailchimp := &tu.MockMemberService{}

		result, err := newTestEngine(copper, mailchimp, nil).Run(ctx, nil)
		if err == nil {
			t.Fatal("expected error from failed enumeration")
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if result == nil || result.RunID == "" {
			t.Error("aborted run must still return a result with a run id")
		}
	})

	t.Run("domain scoping filters both registries", func(t *testing.T) {
		copper := &tu.MockContactService{Contacts: []models.Contact{
			{ID: "1", FirstName: "In", Email: "in@exemple.fr"},
			{ID: "2", FirstName: "Out", Email: "out@other.com"},
		}}
		mailchimp := &tu.MockMemberService{Members: []models.Subscriber{
			{FirstName: "Also", LastName: "Out", Email: "other@elsewhere.com", Status: models.StatusSubscribed},
		}}

		engine := NewContactEngine(copper, mailchimp, EngineOpts{TargetDomain: "@exemple"})
		result, err := engine.Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if len(mailchimp.Upserted) != 1 || mailchimp.Upserted[0].Email != "in@exemple.fr" {
			t.Errorf("expected only in-scope contact pushed, got %v", mailchimp.Upserted)
		}
		if result.MailchimpToCopper != 0 {
			t.Error("out-of-scope members must not create copper records")
		}
	})
}

func TestContactEngineDiff(t *testing.T) {
	ctx := context.Background()

	copper := &tu.MockContactService{Contacts: []models.Contact{
		{ID: "1", FirstName: "Same", LastName: "Person", Email: "same@example.com"},
		{ID: "2", FirstName: "Changed", LastName: "Person", Email: "changed@example.com"},
		{ID: "3", FirstName: "Gone", Email: "gone@example.com", Tags: []string{"A SUPPRIMER"}},
	}}
	mailchimp := &tu.MockMemberService{Members: []models.Subscriber{
		{FirstName: "Same", LastName: "Person", Email: "same@example.com", Status: models.StatusSubscribed},
		{FirstName: "Changed", LastName: "Other", Email: "changed@example.com", Status: models.StatusSubscribed},
		{FirstName: "Only", LastName: "List", Email: "onlylist@example.com", Status: models.StatusSubscribed},
		{Email: "noname@example.com", Status: models.StatusSubscribed},
	}}

	diff, err := newTestEngine(copper, mailchimp, nil).Diff(ctx, nil)
	if err != nil {
		t.Fatalf("Diff() error: %v", err)
	}

	if len(diff.PendingUpserts) != 1 || diff.PendingUpserts[0].Email != "changed@example.com" {
		t.Errorf("expected changed@example.com pending, got %v", diff.PendingUpserts)
	}
	if len(diff.PendingCreates) != 1 || diff.PendingCreates[0].Email != "onlylist@example.com" {
		t.Errorf("expected onlylist@example.com pending, got %v", diff.PendingCreates)
	}
	if len(diff.NamelessSkips) != 1 {
		t.Errorf("expected 1 nameless skip, got %d", len(diff.NamelessSkips))
	}
	if diff.Identical != 1 {
		t.Errorf("expected 1 identical, got %d", diff.Identical)
	}
	if len(diff.Marked) != 1 {
		t.Errorf("expected 1 marked, got %d", len(diff.Marked))
	}

	// Diff must never write.
	if len(mailchimp.Upserted) != 0 || len(copper.CreatedIDs) != 0 {
		t.Error("Diff issued writes")
	}
}
