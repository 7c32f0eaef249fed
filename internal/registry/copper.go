// Copper CRM implementation of [ContactService]
//
// Copper developer API reference: https://developer.copper.com/
package registry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
)

const copperBaseURL = "https://api.copper.com/developer_api/v1"

// copperEmail is one entry of a person's email list.
type copperEmail struct {
	Email    string `json:"email"`
	Category string `json:"category"`
}

// copperPerson is the wire representation of a Copper person record.
type copperPerson struct {
	ID        int64         `json:"id,omitempty"`
	Name      string        `json:"name,omitempty"`
	FirstName string        `json:"first_name,omitempty"`
	LastName  string        `json:"last_name,omitempty"`
	Emails    []copperEmail `json:"emails,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
}

// copperSearch is the paginated people search payload.
type copperSearch struct {
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
}

// CopperService implements [ContactService] against the Copper developer API.
// Authentication is header-based (API key + user email).
type CopperService struct {
	baseURL   string
	apiKey    string
	userEmail string
	client    *Client
}

// NewCopperService creates a Copper client. baseURL defaults to the public
// developer API endpoint.
func NewCopperService(baseURL, apiKey, userEmail string, client *Client) (*CopperService, error) {
	if apiKey == "" || userEmail == "" {
		return nil, fmt.Errorf("%w: copper api key and user email are required", shared.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = copperBaseURL
	}
	if client == nil {
		client = NewClient(ClientOpts{})
	}

	return &CopperService{
		baseURL:   baseURL,
		apiKey:    apiKey,
		userEmail: userEmail,
		client:    client,
	}, nil
}

func (s *CopperService) Name() string {
	return "Copper"
}

// headers returns the per-request authentication headers Copper expects.
func (s *CopperService) headers() http.Header {
	h := http.Header{}
	h.Set("X-PW-AccessToken", s.apiKey)
	h.Set("X-PW-Application", "developer_api")
	h.Set("X-PW-UserEmail", s.userEmail)
	return h
}

// ListContacts retrieves one page of people via the search endpoint. Copper
// signals the end of the collection with a short or empty page.
func (s *CopperService) ListContacts(ctx context.Context, page, pageSize int) ([]models.Contact, bool, error) {
	var people []copperPerson
	payload := copperSearch{PageNumber: page, PageSize: pageSize}

	url := s.baseURL + "/people/search"
	if err := s.client.Do(ctx, http.MethodPost, url, s.headers(), payload, &people); err != nil {
		return nil, false, err
	}

	contacts := make([]models.Contact, 0, len(people))
	for _, p := range people {
		contacts = append(contacts, p.toContact())
	}

	return contacts, len(people) == pageSize && pageSize > 0, nil
}

// GetContact retrieves a single person by record id.
func (s *CopperService) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	var person copperPerson
	url := fmt.Sprintf("%s/people/%s", s.baseURL, id)
	if err := s.client.Do(ctx, http.MethodGet, url, s.headers(), nil, &person); err != nil {
		return nil, err
	}

	contact := person.toContact()
	return &contact, nil
}

// CreateContact creates a new person record and returns its id.
func (s *CopperService) CreateContact(ctx context.Context, contact models.Contact) (string, error) {
	payload := copperPerson{
		Name:      contact.FullName(),
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Emails:    []copperEmail{{Email: contact.Email, Category: "work"}},
		Tags:      contact.Tags,
	}

	var created copperPerson
	url := s.baseURL + "/people"
	if err := s.client.Do(ctx, http.MethodPost, url, s.headers(), payload, &created); err != nil {
		return "", err
	}

	return strconv.FormatInt(created.ID, 10), nil
}

// UpdateContact overwrites a person's name and email fields.
func (s *CopperService) UpdateContact(ctx context.Context, id string, contact models.Contact) error {
	payload := copperPerson{
		Name:      contact.FullName(),
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Emails:    []copperEmail{{Email: contact.Email, Category: "work"}},
	}

	url := fmt.Sprintf("%s/people/%s", s.baseURL, id)
	return s.client.Do(ctx, http.MethodPut, url, s.headers(), payload, nil)
}

// ApplyTags replaces the person's tag list wholesale.
func (s *CopperService) ApplyTags(ctx context.Context, id string, tags []string) error {
	payload := struct {
		Tags []string `json:"tags"`
	}{Tags: tags}

	url := fmt.Sprintf("%s/people/%s", s.baseURL, id)
	return s.client.Do(ctx, http.MethodPut, url, s.headers(), payload, nil)
}

// DeleteContact permanently removes a person record.
func (s *CopperService) DeleteContact(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/people/%s", s.baseURL, id)
	return s.client.Do(ctx, http.MethodDelete, url, s.headers(), nil, nil)
}

// toContact maps the wire representation to the domain model. Only the first
// listed email is considered; Copper orders primary addresses first.
func (p copperPerson) toContact() models.Contact {
	contact := models.Contact{
		ID:        strconv.FormatInt(p.ID, 10),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Tags:      p.Tags,
	}
	if len(p.Emails) > 0 {
		contact.Email = p.Emails[0].Email
	}
	return contact
}
