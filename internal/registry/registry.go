// package registry defines interfaces for the two external contact registries
//
// Copper (CRM, registry of record) and Mailchimp (mailing list)
package registry

import (
	"context"

	"github.com/desertthunder/cmx/internal/models"
)

// ContactService is the Copper-side contract. Copper owns contact identity,
// names, and the tag lists that drive lifecycle classification.
type ContactService interface {
	// ListContacts retrieves one page of contacts. Pages are 1-based; hasMore
	// is false once a page comes back short or empty.
	ListContacts(ctx context.Context, page, pageSize int) (contacts []models.Contact, hasMore bool, err error)

	// GetContact retrieves a single contact by record id.
	GetContact(ctx context.Context, id string) (*models.Contact, error)

	// CreateContact creates a new contact and returns its record id.
	CreateContact(ctx context.Context, contact models.Contact) (string, error)

	// UpdateContact overwrites mutable fields of an existing contact.
	UpdateContact(ctx context.Context, id string, contact models.Contact) error

	// ApplyTags replaces the contact's tag list. Copper tag updates are a full
	// replace, unlike Mailchimp's additive tag endpoint.
	ApplyTags(ctx context.Context, id string, tags []string) error

	// DeleteContact permanently removes a contact.
	DeleteContact(ctx context.Context, id string) error

	// Name returns the registry name (e.g., "Copper")
	Name() string
}

// MemberService is the Mailchimp-side contract. Members are addressed by
// email; the service derives the subscriber hash internally.
type MemberService interface {
	// ListMembers retrieves one page of members filtered by subscription
	// status ("" for all). Pages are 1-based.
	ListMembers(ctx context.Context, page, pageSize int, status string) (members []models.Subscriber, hasMore bool, err error)

	// GetMember retrieves a single member by email.
	GetMember(ctx context.Context, email string) (*models.Subscriber, error)

	// UpsertMember inserts or updates a member (idempotent create-or-update).
	UpsertMember(ctx context.Context, member models.Subscriber) error

	// ApplyTags adds tags to a member. Additive: existing tags are kept.
	ApplyTags(ctx context.Context, email string, tags []string) error

	// SetStatus changes a member's subscription status.
	SetStatus(ctx context.Context, email, status string) error

	// DeleteMember permanently removes a member from the list.
	DeleteMember(ctx context.Context, email string) error

	// Name returns the registry name (e.g., "Mailchimp")
	Name() string
}
