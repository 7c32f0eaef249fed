package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/cmx/internal/models"
)

func newCopperTestService(t *testing.T, handler http.HandlerFunc) (*CopperService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientOpts{Delay: time.Millisecond})
	svc, err := NewCopperService(server.URL, "test-key", "ops@example.com", client)
	if err != nil {
		t.Fatalf("NewCopperService() error: %v", err)
	}
	return svc, server
}

func testContact() models.Contact {
	return models.Contact{FirstName: "Jean", LastName: "Martin", Email: "jean@example.com"}
}

func TestCopperService(t *testing.T) {
	ctx := context.Background()

	t.Run("requires credentials", func(t *testing.T) {
		if _, err := NewCopperService("", "", "", nil); err == nil {
			t.Error("expected error for missing credentials")
		}
	})

	t.Run("ListContacts", func(t *testing.T) {
		svc, _ := newCopperTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/people/search" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("X-PW-AccessToken") != "test-key" {
				t.Error("missing access token header")
			}
			if r.Header.Get("X-PW-Application") != "developer_api" {
				t.Error("missing application header")
			}

			var body map[string]int
			json.NewDecoder(r.Body).Decode(&body)
			if body["page_number"] != 1 || body["page_size"] != 2 {
				t.Errorf("unexpected pagination payload: %v", body)
			}

			w.Write([]byte(`[
				{"id": 1, "first_name": "Jean", "last_name": "Martin", "emails": [{"email": "jean@example.com", "category": "work"}], "tags": ["VIP"]},
				{"id": 2, "first_name": "Anne", "emails": []}
			]`))
		})

		contacts, hasMore, err := svc.ListContacts(ctx, 1, 2)
		if err != nil {
			t.Fatalf("ListContacts() error: %v", err)
		}
		if !hasMore {
			t.Error("full page should signal more")
		}
		if len(contacts) != 2 {
			t.Fatalf("expected 2 contacts, got %d", len(contacts))
		}
		if contacts[0].ID != "1" || contacts[0].Email != "jean@example.com" {
			t.Errorf("unexpected first contact: %+v", contacts[0])
		}
		if contacts[1].Email != "" {
			t.Errorf("contact without emails should map to empty email, got %q", contacts[1].Email)
		}
	})

	t.Run("ListContacts short page ends pagination", func(t *testing.T) {
		svc, _ := newCopperTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": 1, "first_name": "Solo"}]`))
		})

		_, hasMore, err := svc.ListContacts(ctx, 1, 200)
		if err != nil {
			t.Fatalf("ListContacts() error: %v", err)
		}
		if hasMore {
			t.Error("short page must end pagination")
		}
	})

	t.Run("CreateContact returns the new id", func(t *testing.T) {
		svc, _ := newCopperTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/people" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}

			var person map[string]any
			json.NewDecoder(r.Body).Decode(&person)
			if person["name"] != "Jean Martin" {
				t.Errorf("expected full name in payload, got %v", person["name"])
			}

			w.Write([]byte(`{"id": 99}`))
		})

		id, err := svc.CreateContact(ctx, testContact())
		if err != nil {
			t.Fatalf("CreateContact() error: %v", err)
		}
		if id != "99" {
			t.Errorf("expected id 99, got %s", id)
		}
	})

	t.Run("ApplyTags replaces the tag list", func(t *testing.T) {
		svc, _ := newCopperTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/people/42" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}

			var body map[string][]string
			json.NewDecoder(r.Body).Decode(&body)
			if len(body["tags"]) != 2 {
				t.Errorf("expected 2 tags, got %v", body["tags"])
			}

			w.Write([]byte(`{}`))
		})

		if err := svc.ApplyTags(ctx, "42", []string{"Client", "📥 INACTIF"}); err != nil {
			t.Fatalf("ApplyTags() error: %v", err)
		}
	})

	t.Run("DeleteContact", func(t *testing.T) {
		svc, _ := newCopperTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/people/42" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			w.Write([]byte(`{}`))
		})

		if err := svc.DeleteContact(ctx, "42"); err != nil {
			t.Fatalf("DeleteContact() error: %v", err)
		}
	})
}
