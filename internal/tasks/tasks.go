package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/registry"
	"github.com/desertthunder/cmx/internal/shared"
)

// SyncRunResult contains all data from a full reconciliation run. Operations
// accumulate per record as the run progresses, so a run aborted mid-way still
// carries everything completed before the failure.
type SyncRunResult struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	TargetDomain string

	Operations []models.SyncOperation // Per-record outcomes, append-only
	Marked     []models.MarkedContact // Contacts flagged for deletion

	CopperToMailchimp int // Upserts written A → B
	MailchimpToCopper int // Contacts created B → A
	Identical         int // Skipped, already in sync
	Excluded          int // Inactive or marked contacts withheld from A → B
	Failed            int // Operations that exhausted the retry budget

	DecisionMode models.DecisionMode
}

// record appends an operation and maintains counters.
func (r *SyncRunResult) record(op models.SyncOperation) {
	r.Operations = append(r.Operations, op)
	if op.Outcome == models.OutcomeFailed {
		r.Failed++
	}
}

// TotalSynced returns the number of records written in either direction.
func (r *SyncRunResult) TotalSynced() int {
	return r.CopperToMailchimp + r.MailchimpToCopper
}

// SyncDiffResult describes the writes a run would issue, without issuing any.
type SyncDiffResult struct {
	PendingUpserts []models.Contact    // Active contacts missing or stale in Mailchimp
	PendingCreates []models.Subscriber // Members with no Copper record and a usable name
	NamelessSkips  []models.Subscriber // Members skipped: no derivable name
	Identical      int
	Excluded       int
	Marked         []models.MarkedContact
}

// SyncEngine defines operations for reconciling contacts between registries.
type SyncEngine interface {
	// Run performs a full bidirectional reconciliation: Copper → Mailchimp
	// upserts, Mailchimp → Copper creation, then disposition of contacts
	// marked for deletion.
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncRunResult, error)

	// Diff computes the same differences as Run but issues zero writes.
	Diff(ctx context.Context, progress chan<- ProgressUpdate) (*SyncDiffResult, error)
}

// EngineOpts contains configuration for a [ContactEngine].
type EngineOpts struct {
	// TargetDomain scopes the run to emails containing this substring
	// (staged rollout). Empty processes the whole population.
	TargetDomain      string
	CopperPageSize    int
	MailchimpPageSize int
	TagMaxLength      int
	Classifier        *Classifier
	Decider           DecisionProvider
	Logger            *log.Logger
}

// ContactEngine implements SyncEngine for Copper ↔ Mailchimp reconciliation.
type ContactEngine struct {
	copper    registry.ContactService
	mailchimp registry.MemberService
	classify  *Classifier
	decider   DecisionProvider
	opts      EngineOpts
	logger    *log.Logger
}

// NewContactEngine creates a ContactEngine with the provided registries,
// filling in option defaults.
func NewContactEngine(copper registry.ContactService, mailchimp registry.MemberService, opts EngineOpts) *ContactEngine {
	if opts.CopperPageSize <= 0 {
		opts.CopperPageSize = 200
	}
	if opts.MailchimpPageSize <= 0 {
		opts.MailchimpPageSize = 1000
	}
	if opts.TagMaxLength <= 0 {
		opts.TagMaxLength = 50
	}
	if opts.Classifier == nil {
		opts.Classifier = NewClassifier()
	}
	if opts.Decider == nil {
		opts.Decider = StaticDecisionProvider{Mode: models.ModeBulkIgnore}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &ContactEngine{
		copper:    copper,
		mailchimp: mailchimp,
		classify:  opts.Classifier,
		decider:   opts.Decider,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ContactEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// inScope reports whether an email belongs to the run's identity scope.
func (e *ContactEngine) inScope(email string) bool {
	if e.opts.TargetDomain == "" {
		return true
	}
	return email != "" &&
		strings.Contains(shared.NormalizeEmail(email), shared.NormalizeEmail(e.opts.TargetDomain))
}

// fetchContacts enumerates the Copper side, scoped to the target domain.
func (e *ContactEngine) fetchContacts(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Contact, error) {
	e.sendProgress(progress, fetchCopperUpdate(0, e.copper.Name()))

	page := func(ctx context.Context, page int) ([]models.Contact, bool, error) {
		contacts, hasMore, err := e.copper.ListContacts(ctx, page, e.opts.CopperPageSize)
		if err == nil {
			e.sendProgress(progress, fetchCopperUpdate(page, e.copper.Name()))
		}
		return contacts, hasMore, err
	}

	return registry.FetchAll(ctx, page, func(c models.Contact) bool {
		return e.inScope(c.Email)
	})
}

// fetchMembers enumerates subscribed Mailchimp members, scoped to the target
// domain. Unsubscribed and cleaned members are deliberately out of scope: the
// reconciler must never resubscribe someone who opted out.
func (e *ContactEngine) fetchMembers(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Subscriber, error) {
	e.sendProgress(progress, fetchMailchimpUpdate(0, e.mailchimp.Name()))

	page := func(ctx context.Context, page int) ([]models.Subscriber, bool, error) {
		members, hasMore, err := e.mailchimp.ListMembers(ctx, page, e.opts.MailchimpPageSize, models.StatusSubscribed)
		if err == nil {
			e.sendProgress(progress, fetchMailchimpUpdate(page, e.mailchimp.Name()))
		}
		return members, hasMore, err
	}

	return registry.FetchAll(ctx, page, func(m models.Subscriber) bool {
		return e.inScope(m.Email)
	})
}

// partition classifies every contact, splitting out active contacts and
// marked ones. Inactive and marked contacts count as excluded from the
// Copper → Mailchimp direction.
func (e *ContactEngine) partition(contacts []models.Contact, result *SyncRunResult) []models.Contact {
	active := make([]models.Contact, 0, len(contacts))

	for _, contact := range contacts {
		state, detectedTag := e.classify.Classify(contact.Tags)
		switch state {
		case models.MarkedForDeletion:
			result.Excluded++
			if contact.Email == "" {
				continue
			}
			result.Marked = append(result.Marked, models.MarkedContact{
				Email:       contact.Email,
				Name:        contact.FullName(),
				CopperID:    contact.ID,
				DetectedTag: detectedTag,
			})
		case models.Inactive:
			result.Excluded++
		default:
			active = append(active, contact)
		}
	}

	return active
}

// Run performs a full bidirectional reconciliation run.
//
// Direction A → B completes before B → A begins. The B → A existence check
// uses the Copper index snapshotted at run start, before any writes: B → A
// only creates identities missing from Copper, and A → B never invents new
// Mailchimp-side identities, so the pre-run snapshot cannot cause duplicates.
func (e *ContactEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncRunResult, error) {
	result := &SyncRunResult{
		RunID:        shared.GenerateID(),
		StartedAt:    time.Now(),
		TargetDomain: e.opts.TargetDomain,
	}

	contacts, err := e.fetchContacts(ctx, progress)
	if err != nil {
		result.FinishedAt = time.Now()
		return result, fmt.Errorf("%w: failed to enumerate Copper: %v", shared.ErrAPIRequest, err)
	}

	members, err := e.fetchMembers(ctx, progress)
	if err != nil {
		result.FinishedAt = time.Now()
		return result, fmt.Errorf("%w: failed to enumerate Mailchimp: %v", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, classifyUpdate(len(contacts)))
	active := e.partition(contacts, result)

	// Identity indexes, keyed by normalized email. Read-only after this point.
	memberIndex := make(map[string]models.Subscriber, len(members))
	for _, m := range members {
		memberIndex[shared.NormalizeEmail(m.Email)] = m
	}
	contactIndex := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			contactIndex[shared.NormalizeEmail(c.Email)] = c
		}
	}
	e.sendProgress(progress, indexUpdate(len(contactIndex), len(memberIndex)))

	e.syncToMailchimp(ctx, progress, active, memberIndex, result)
	e.syncToCopper(ctx, progress, members, contactIndex, result)
	e.disposeMarked(ctx, progress, result)

	result.FinishedAt = time.Now()
	return result, nil
}

// syncToMailchimp pushes every active Copper contact into Mailchimp unless it
// is already identical there. Per-record failures are recorded and never halt
// the loop; this is the run's isolation boundary.
func (e *ContactEngine) syncToMailchimp(ctx context.Context, progress chan<- ProgressUpdate, active []models.Contact, memberIndex map[string]models.Subscriber, result *SyncRunResult) {
	total := len(active)

	for i, contact := range active {
		e.sendProgress(progress, copperToMailchimpUpdate(i+1, total, contact.Email))

		if contact.Email == "" {
			result.record(models.SyncOperation{
				Name:      contact.FullName(),
				Direction: models.CopperToMailchimp,
				Outcome:   models.OutcomeSkipped,
				Error:     shared.ErrMissingEmail.Error(),
			})
			continue
		}

		if existing, ok := memberIndex[shared.NormalizeEmail(contact.Email)]; ok && Identical(contact, existing) {
			result.Identical++
			result.record(models.SyncOperation{
				Email:     contact.Email,
				Name:      contact.FullName(),
				Direction: models.CopperToMailchimp,
				Outcome:   models.OutcomeSkipped,
			})
			continue
		}

		tags := TruncateTags(contact.Tags, e.opts.TagMaxLength)
		if err := e.upsertMember(ctx, contact, tags); err != nil {
			e.logger.Error("upsert failed", "email", contact.Email, "err", err)
			result.record(failedOperation(contact.Email, contact.FullName(), models.CopperToMailchimp, err))
			continue
		}

		result.CopperToMailchimp++
		result.record(models.SyncOperation{
			Email:     contact.Email,
			Name:      contact.FullName(),
			Direction: models.CopperToMailchimp,
			Outcome:   models.OutcomeSuccess,
			Tags:      tags,
		})
	}
}

// upsertMember writes one contact to Mailchimp: an idempotent create-or-update
// followed by an additive tag application.
func (e *ContactEngine) upsertMember(ctx context.Context, contact models.Contact, tags []string) error {
	member := models.Subscriber{
		Email:     contact.Email,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
	}
	if err := e.mailchimp.UpsertMember(ctx, member); err != nil {
		return err
	}
	return e.mailchimp.ApplyTags(ctx, contact.Email, tags)
}

// syncToCopper creates Copper records for members with no Copper identity.
// Existing identities are never overwritten in this direction.
func (e *ContactEngine) syncToCopper(ctx context.Context, progress chan<- ProgressUpdate, members []models.Subscriber, contactIndex map[string]models.Contact, result *SyncRunResult) {
	total := len(members)

	for i, member := range members {
		e.sendProgress(progress, mailchimpToCopperUpdate(i+1, total, member.Email))

		if _, ok := contactIndex[shared.NormalizeEmail(member.Email)]; ok {
			continue
		}

		if shared.NormalizeField(member.FirstName) == "" && shared.NormalizeField(member.LastName) == "" {
			// Insufficient data for a meaningful CRM record.
			result.record(models.SyncOperation{
				Email:     member.Email,
				Direction: models.MailchimpToCopper,
				Outcome:   models.OutcomeSkipped,
				Error:     shared.ErrMissingName.Error(),
			})
			continue
		}

		contact := models.Contact{
			FirstName: member.FirstName,
			LastName:  member.LastName,
			Email:     shared.NormalizeEmail(member.Email),
		}
		if _, err := e.copper.CreateContact(ctx, contact); err != nil {
			e.logger.Error("create failed", "email", member.Email, "err", err)
			result.record(failedOperation(member.Email, member.FullName(), models.MailchimpToCopper, err))
			continue
		}

		result.MailchimpToCopper++
		result.record(models.SyncOperation{
			Email:     member.Email,
			Name:      member.FullName(),
			Direction: models.MailchimpToCopper,
			Outcome:   models.OutcomeSuccess,
		})
	}
}

// Diff computes pending writes without issuing any.
func (e *ContactEngine) Diff(ctx context.Context, progress chan<- ProgressUpdate) (*SyncDiffResult, error) {
	run := &SyncRunResult{}
	diff := &SyncDiffResult{}

	contacts, err := e.fetchContacts(ctx, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enumerate Copper: %v", shared.ErrAPIRequest, err)
	}
	members, err := e.fetchMembers(ctx, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enumerate Mailchimp: %v", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, classifyUpdate(len(contacts)))
	active := e.partition(contacts, run)
	diff.Excluded = run.Excluded
	diff.Marked = run.Marked

	memberIndex := make(map[string]models.Subscriber, len(members))
	for _, m := range members {
		memberIndex[shared.NormalizeEmail(m.Email)] = m
	}
	contactIndex := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			contactIndex[shared.NormalizeEmail(c.Email)] = c
		}
	}

	for _, contact := range active {
		if contact.Email == "" {
			continue
		}
		if existing, ok := memberIndex[shared.NormalizeEmail(contact.Email)]; ok && Identical(contact, existing) {
			diff.Identical++
			continue
		}
		diff.PendingUpserts = append(diff.PendingUpserts, contact)
	}

	for _, member := range members {
		if _, ok := contactIndex[shared.NormalizeEmail(member.Email)]; ok {
			continue
		}
		if shared.NormalizeField(member.FirstName) == "" && shared.NormalizeField(member.LastName) == "" {
			diff.NamelessSkips = append(diff.NamelessSkips, member)
			continue
		}
		diff.PendingCreates = append(diff.PendingCreates, member)
	}

	return diff, nil
}

// failedOperation converts a write error into an operation record,
// distinguishing provider-side permanent rejections from retriable failures
// that exhausted their budget.
func failedOperation(email, name string, direction models.Direction, err error) models.SyncOperation {
	outcome := models.OutcomeFailed
	if errors.Is(err, shared.ErrComplianceState) {
		outcome = models.OutcomeManual
	}
	return models.SyncOperation{
		Email:     email,
		Name:      name,
		Direction: direction,
		Outcome:   outcome,
		Error:     err.Error(),
	}
}
