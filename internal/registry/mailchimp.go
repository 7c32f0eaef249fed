// Mailchimp Marketing API implementation of [MemberService]
//
// API reference: https://mailchimp.com/developer/marketing/api/
package registry

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
	"golang.org/x/oauth2"
)

// mailchimpMember is the wire representation of a list member.
type mailchimpMember struct {
	ID           string               `json:"id,omitempty"`
	EmailAddress string               `json:"email_address"`
	Status       string               `json:"status,omitempty"`
	StatusIfNew  string               `json:"status_if_new,omitempty"`
	MergeFields  mailchimpMergeFields `json:"merge_fields,omitempty"`
}

type mailchimpMergeFields struct {
	FirstName string `json:"FNAME"`
	LastName  string `json:"LNAME"`
}

type mailchimpMemberPage struct {
	Members    []mailchimpMember `json:"members"`
	TotalItems int               `json:"total_items"`
}

type mailchimpTag struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// MailchimpService implements [MemberService] against one audience (list) of
// the Mailchimp marketing API. Supports API-key basic auth or an OAuth2
// access token.
type MailchimpService struct {
	baseURL string
	listID  string
	auth    string // Authorization header value
	client  *Client
}

// NewMailchimpService creates a Mailchimp client for the given datacenter and
// list. When token is non-nil it takes precedence over the API key.
func NewMailchimpService(datacenter, apiKey, listID string, token *oauth2.Token, client *Client) (*MailchimpService, error) {
	if datacenter == "" || listID == "" {
		return nil, fmt.Errorf("%w: mailchimp datacenter and list id are required", shared.ErrMissingCredentials)
	}
	if apiKey == "" && token == nil {
		return nil, fmt.Errorf("%w: mailchimp api key or access token is required", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = NewClient(ClientOpts{})
	}

	var auth string
	if token != nil {
		auth = token.Type() + " " + token.AccessToken
	} else {
		// Mailchimp basic auth accepts any username with the API key as password.
		auth = "Basic " + base64.StdEncoding.EncodeToString([]byte("anystring:"+apiKey))
	}

	return &MailchimpService{
		baseURL: fmt.Sprintf("https://%s.api.mailchimp.com/3.0", datacenter),
		listID:  listID,
		auth:    auth,
		client:  client,
	}, nil
}

func (s *MailchimpService) Name() string {
	return "Mailchimp"
}

func (s *MailchimpService) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", s.auth)
	return h
}

// SubscriberHash derives the member id Mailchimp uses in URLs: the md5 of the
// lowercased email address.
func SubscriberHash(email string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(shared.NormalizeEmail(email))))
}

func (s *MailchimpService) memberURL(email string) string {
	return fmt.Sprintf("%s/lists/%s/members/%s", s.baseURL, s.listID, SubscriberHash(email))
}

// ListMembers retrieves one page of members, optionally filtered by
// subscription status. Mailchimp paginates by offset/count.
func (s *MailchimpService) ListMembers(ctx context.Context, page, pageSize int, status string) ([]models.Subscriber, bool, error) {
	query := url.Values{}
	query.Set("offset", fmt.Sprintf("%d", (page-1)*pageSize))
	query.Set("count", fmt.Sprintf("%d", pageSize))
	if status != "" {
		query.Set("status", status)
	}

	var result mailchimpMemberPage
	endpoint := fmt.Sprintf("%s/lists/%s/members?%s", s.baseURL, s.listID, query.Encode())
	if err := s.client.Do(ctx, http.MethodGet, endpoint, s.headers(), nil, &result); err != nil {
		return nil, false, err
	}

	members := make([]models.Subscriber, 0, len(result.Members))
	for _, m := range result.Members {
		members = append(members, m.toSubscriber())
	}

	return members, len(result.Members) == pageSize && pageSize > 0, nil
}

// GetMember retrieves a single member by email.
func (s *MailchimpService) GetMember(ctx context.Context, email string) (*models.Subscriber, error) {
	var member mailchimpMember
	if err := s.client.Do(ctx, http.MethodGet, s.memberURL(email), s.headers(), nil, &member); err != nil {
		return nil, s.mapNotFound(err, email)
	}

	sub := member.toSubscriber()
	return &sub, nil
}

// UpsertMember inserts or updates a member. The PUT-by-hash endpoint gives
// idempotent create-or-update semantics: new members are created subscribed,
// existing members keep their current status.
func (s *MailchimpService) UpsertMember(ctx context.Context, member models.Subscriber) error {
	payload := mailchimpMember{
		EmailAddress: member.Email,
		StatusIfNew:  models.StatusSubscribed,
		MergeFields: mailchimpMergeFields{
			FirstName: member.FirstName,
			LastName:  member.LastName,
		},
	}

	return s.client.Do(ctx, http.MethodPut, s.memberURL(member.Email), s.headers(), payload, nil)
}

// ApplyTags adds tags to a member. The tags endpoint is additive; tags absent
// from the payload are left untouched.
func (s *MailchimpService) ApplyTags(ctx context.Context, email string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	payload := struct {
		Tags []mailchimpTag `json:"tags"`
	}{}
	for _, tag := range tags {
		payload.Tags = append(payload.Tags, mailchimpTag{Name: tag, Status: "active"})
	}

	endpoint := s.memberURL(email) + "/tags"
	return s.client.Do(ctx, http.MethodPost, endpoint, s.headers(), payload, nil)
}

// SetStatus changes a member's subscription status.
func (s *MailchimpService) SetStatus(ctx context.Context, email, status string) error {
	payload := struct {
		Status string `json:"status"`
	}{Status: status}

	err := s.client.Do(ctx, http.MethodPatch, s.memberURL(email), s.headers(), payload, nil)
	return s.mapNotFound(err, email)
}

// DeleteMember permanently removes a member from the list.
func (s *MailchimpService) DeleteMember(ctx context.Context, email string) error {
	err := s.client.Do(ctx, http.MethodDelete, s.memberURL(email), s.headers(), nil, nil)
	return s.mapNotFound(err, email)
}

func (s *MailchimpService) mapNotFound(err error, email string) error {
	if err != nil && strings.Contains(err.Error(), "status 404") {
		return fmt.Errorf("%w: %s", shared.ErrMemberNotFound, email)
	}
	return err
}

func (m mailchimpMember) toSubscriber() models.Subscriber {
	return models.Subscriber{
		ID:        m.ID,
		FirstName: m.MergeFields.FirstName,
		LastName:  m.MergeFields.LastName,
		Email:     m.EmailAddress,
		Status:    m.Status,
	}
}
