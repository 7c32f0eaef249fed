// package models defines the data model for the contact reconciliation service
package models

// Contact represents a person record in Copper, the registry of record.
type Contact struct {
	ID        string   // Opaque Copper record id
	FirstName string
	LastName  string
	Email     string   // Primary email, raw as returned by the API
	Tags      []string // Free-text tag list in original order
}

// FullName returns "First Last", dropping whichever part is empty.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Subscriber represents a list member in Mailchimp.
type Subscriber struct {
	ID        string // Subscriber hash (md5 of the lowercased email)
	FirstName string
	LastName  string
	Email     string
	Status    string // subscribed, unsubscribed, cleaned, pending
}

// FullName returns "First Last", dropping whichever part is empty.
func (s Subscriber) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	default:
		return s.FirstName + " " + s.LastName
	}
}

// Subscription status values used by Mailchimp.
const (
	StatusSubscribed   = "subscribed"
	StatusUnsubscribed = "unsubscribed"
	StatusCleaned      = "cleaned"
	StatusPending      = "pending"
)

// LifecycleState classifies a Contact from its tag list. States are derived
// per run and never persisted; MarkedForDeletion outranks Inactive whenever
// both are signaled.
type LifecycleState int

const (
	Active LifecycleState = iota
	Inactive
	MarkedForDeletion
)

func (s LifecycleState) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case MarkedForDeletion:
		return "marked_for_deletion"
	default:
		return ""
	}
}

// Direction identifies which way a sync write went.
type Direction string

const (
	CopperToMailchimp Direction = "Copper → Mailchimp"
	MailchimpToCopper Direction = "Mailchimp → Copper"
)

// Outcome categorizes the result of one attempted operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	// OutcomeSkipped marks records that were already identical on both sides
	// or lacked the data needed to act (e.g. a nameless Mailchimp member).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeManual marks records the mailing provider permanently rejected;
	// resubscription requires human follow-up.
	OutcomeManual Outcome = "manual"
)

// SyncOperation records one attempted write during a run.
// Operations are immutable once appended to a run result.
type SyncOperation struct {
	Email     string
	Name      string
	Direction Direction
	Outcome   Outcome
	Error     string   // Last error detail when Outcome is failed
	Tags      []string // Tags pushed alongside the write, if any
}

// Succeeded reports whether the operation completed without error.
func (op SyncOperation) Succeeded() bool {
	return op.Outcome == OutcomeSuccess || op.Outcome == OutcomeSkipped
}

// MarkedContact is a Contact whose tags flagged it for deletion, carrying the
// tag that triggered the classification for audit output.
type MarkedContact struct {
	Email       string
	Name        string
	CopperID    string
	DetectedTag string
}

// Decision is the disposition chosen for one marked contact.
type Decision int

const (
	DecisionIgnore Decision = iota
	DecisionArchive
	DecisionDelete
)

func (d Decision) String() string {
	switch d {
	case DecisionArchive:
		return "archive"
	case DecisionDelete:
		return "delete"
	default:
		return "ignore"
	}
}

// DecisionMode is the batch-level answer from a decision provider: handle
// marked contacts one at a time, or apply a single decision to all of them.
type DecisionMode int

const (
	ModePerContact DecisionMode = iota
	ModeBulkIgnore
	ModeBulkArchive
	ModeBulkDelete
)

func (m DecisionMode) String() string {
	switch m {
	case ModePerContact:
		return "per_contact"
	case ModeBulkIgnore:
		return "bulk_ignore"
	case ModeBulkArchive:
		return "bulk_archive"
	case ModeBulkDelete:
		return "bulk_delete"
	default:
		return ""
	}
}
