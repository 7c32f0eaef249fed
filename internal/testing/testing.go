// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/cmx/internal/models"
)

// MockContactService is a configurable test double for [registry.ContactService].
type MockContactService struct {
	Contacts    []models.Contact
	CreatedIDs  []string
	CreateErr   error
	ApplyErr    error
	DeleteErr   error
	ListErr     error
	AppliedTags map[string][]string
	Deleted     []string
}

func (m *MockContactService) ListContacts(ctx context.Context, page, pageSize int) ([]models.Contact, bool, error) {
	if m.ListErr != nil {
		return nil, false, m.ListErr
	}
	start := (page - 1) * pageSize
	if start >= len(m.Contacts) {
		return nil, false, nil
	}
	end := start + pageSize
	if end > len(m.Contacts) {
		end = len(m.Contacts)
	}
	return m.Contacts[start:end], end < len(m.Contacts), nil
}

func (m *MockContactService) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	for _, c := range m.Contacts {
		if c.ID == id {
			contact := c
			return &contact, nil
		}
	}
	return nil, errors.New("contact not found")
}

func (m *MockContactService) CreateContact(ctx context.Context, contact models.Contact) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	id := contact.Email
	m.CreatedIDs = append(m.CreatedIDs, id)
	return id, nil
}

func (m *MockContactService) UpdateContact(ctx context.Context, id string, contact models.Contact) error {
	return nil
}

func (m *MockContactService) ApplyTags(ctx context.Context, id string, tags []string) error {
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	if m.AppliedTags == nil {
		m.AppliedTags = make(map[string][]string)
	}
	m.AppliedTags[id] = tags
	return nil
}

func (m *MockContactService) DeleteContact(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockContactService) Name() string { return "mock-crm" }

// MockMemberService is a configurable test double for [registry.MemberService].
type MockMemberService struct {
	Members     []models.Subscriber
	ListErr     error
	UpsertErr   error
	ApplyErr    error
	StatusErr   error
	DeleteErr   error
	Upserted    []models.Subscriber
	AppliedTags map[string][]string
	Statuses    map[string]string
	Deleted     []string
}

func (m *MockMemberService) ListMembers(ctx context.Context, page, pageSize int, status string) ([]models.Subscriber, bool, error) {
	if m.ListErr != nil {
		return nil, false, m.ListErr
	}
	start := (page - 1) * pageSize
	if start >= len(m.Members) {
		return nil, false, nil
	}
	end := start + pageSize
	if end > len(m.Members) {
		end = len(m.Members)
	}
	return m.Members[start:end], end < len(m.Members), nil
}

func (m *MockMemberService) GetMember(ctx context.Context, email string) (*models.Subscriber, error) {
	for _, s := range m.Members {
		if s.Email == email {
			member := s
			return &member, nil
		}
	}
	return nil, errors.New("member not found")
}

func (m *MockMemberService) UpsertMember(ctx context.Context, member models.Subscriber) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserted = append(m.Upserted, member)
	return nil
}

func (m *MockMemberService) ApplyTags(ctx context.Context, email string, tags []string) error {
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	if m.AppliedTags == nil {
		m.AppliedTags = make(map[string][]string)
	}
	m.AppliedTags[email] = append(m.AppliedTags[email], tags...)
	return nil
}

func (m *MockMemberService) SetStatus(ctx context.Context, email, status string) error {
	if m.StatusErr != nil {
		return m.StatusErr
	}
	if m.Statuses == nil {
		m.Statuses = make(map[string]string)
	}
	m.Statuses[email] = status
	return nil
}

func (m *MockMemberService) DeleteMember(ctx context.Context, email string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, email)
	return nil
}

func (m *MockMemberService) Name() string { return "mock-list" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
