package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
)

// DirectionLifecycle labels operations produced by marked-contact disposal.
const DirectionLifecycle models.Direction = "Lifecycle"

// disposeMarked routes the run's marked contacts through the decision
// provider and applies the chosen disposition to each. No record is archived
// or deleted without an explicit decision.
func (e *ContactEngine) disposeMarked(ctx context.Context, progress chan<- ProgressUpdate, result *SyncRunResult) {
	if len(result.Marked) == 0 {
		return
	}

	mode, err := e.decider.Decide(ctx, result.Marked)
	if err != nil {
		e.logger.Error("decision provider failed, deferring marked contacts", "err", err)
		mode = models.ModeBulkIgnore
	}
	result.DecisionMode = mode

	total := len(result.Marked)
	for i, contact := range result.Marked {
		e.sendProgress(progress, lifecycleUpdate(i+1, total, contact.Email))

		decision := models.DecisionIgnore
		switch mode {
		case models.ModeBulkArchive:
			decision = models.DecisionArchive
		case models.ModeBulkDelete:
			decision = models.DecisionDelete
		case models.ModePerContact:
			decision, err = e.decider.DecideOne(ctx, contact)
			if err != nil {
				e.logger.Error("decision failed, deferring contact", "email", contact.Email, "err", err)
				decision = models.DecisionIgnore
			}
		}

		result.record(e.applyDecision(ctx, contact, decision))
	}
}

// applyDecision executes one disposition and returns its operation record.
func (e *ContactEngine) applyDecision(ctx context.Context, contact models.MarkedContact, decision models.Decision) models.SyncOperation {
	op := models.SyncOperation{
		Email:     contact.Email,
		Name:      contact.Name,
		Direction: DirectionLifecycle,
		Tags:      []string{contact.DetectedTag},
	}

	var err error
	switch decision {
	case models.DecisionArchive:
		err = e.archiveContact(ctx, contact)
	case models.DecisionDelete:
		err = e.deleteContact(ctx, contact)
	default:
		e.logger.Info("deferred", "email", contact.Email, "tag", contact.DetectedTag)
		op.Outcome = models.OutcomeSkipped
		return op
	}

	if err != nil {
		e.logger.Error("lifecycle action failed", "email", contact.Email, "err", err)
		op.Outcome = models.OutcomeFailed
		op.Error = err.Error()
		return op
	}

	op.Outcome = models.OutcomeSuccess
	return op
}

// archiveContact retires a contact without destroying it. On the Copper side
// deletion tags are stripped and the inactive tag appended, so the next run
// classifies it Inactive instead of re-flagging it. On the Mailchimp side the
// member is unsubscribed. Both halves run even when one fails; archiving is
// not transactional across registries.
func (e *ContactEngine) archiveContact(ctx context.Context, contact models.MarkedContact) error {
	var copperErr error

	current, err := e.copper.GetContact(ctx, contact.CopperID)
	if err != nil {
		copperErr = fmt.Errorf("fetch for archive: %w", err)
	} else {
		tags := make([]string, 0, len(current.Tags)+1)
		for _, tag := range current.Tags {
			if e.classify.Matches(tag, models.MarkedForDeletion) {
				continue
			}
			tags = append(tags, tag)
		}
		tags = append(tags, InactiveTag)
		if err := e.copper.ApplyTags(ctx, contact.CopperID, tags); err != nil {
			copperErr = fmt.Errorf("retag for archive: %w", err)
		}
	}

	var mailchimpErr error
	if err := e.mailchimp.SetStatus(ctx, contact.Email, models.StatusUnsubscribed); err != nil {
		// A member Mailchimp never knew about is already as archived as it gets.
		if !errors.Is(err, shared.ErrMemberNotFound) {
			mailchimpErr = fmt.Errorf("unsubscribe: %w", err)
		}
	}

	return errors.Join(copperErr, mailchimpErr)
}

// deleteContact permanently removes a contact from both registries, mailing
// list first. A failed Mailchimp delete leaves the Copper record in place so
// the contact stays flagged for the next run.
func (e *ContactEngine) deleteContact(ctx context.Context, contact models.MarkedContact) error {
	if err := e.mailchimp.DeleteMember(ctx, contact.Email); err != nil && !errors.Is(err, shared.ErrMemberNotFound) {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := e.copper.DeleteContact(ctx, contact.CopperID); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}
