package redmine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAdapter(srv.Client(), srv.URL, "test_api_key")
}

func TestValidateConnectionStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantName string
		wantErr  func(error) bool
	}{
		{
			name:     "200 with user payload",
			status:   http.StatusOK,
			body:     `{"user":{"id":1,"login":"admin","firstname":"Red","lastname":"Mine"}}`,
			wantName: "Red Mine",
		},
		{
			name:   "2xx with empty body is still success",
			status: http.StatusNoContent,
		},
		{
			name:   "2xx with garbage body is still success",
			status: http.StatusOK,
			body:   "<html>not json</html>",
		},
		{
			name:    "401 is an auth error",
			status:  http.StatusUnauthorized,
			wantErr: IsAuthError,
		},
		{
			name:    "403 is a connection error",
			status:  http.StatusForbidden,
			wantErr: IsConnectionError,
		},
		{
			name:    "500 is a connection error",
			status:  http.StatusInternalServerError,
			wantErr: IsConnectionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/users/current.json" {
					t.Errorf("path = %q, want /users/current.json", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			name, err := adapter.ValidateConnection(context.Background())
			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !tt.wantErr(err) {
					t.Errorf("error %v has wrong classification", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateConnection() error = %v", err)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestValidateConnectionSendsAuthHeaders(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Redmine-API-Key"); got != "test_api_key" {
			t.Errorf("X-Redmine-API-Key = %q, want %q", got, "test_api_key")
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		w.WriteHeader(http.StatusOK)
	})

	if _, err := adapter.ValidateConnection(context.Background()); err != nil {
		t.Fatalf("ValidateConnection() error = %v", err)
	}
}

func TestValidateConnectionTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	adapter := NewAdapter(nil, url, "key")
	_, err := adapter.ValidateConnection(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !IsConnectionError(err) {
		t.Errorf("error %v is not a ConnectionError", err)
	}
}

func TestValidateConnectionTLSFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	// A strict-verification client refuses the test server's self-signed
	// certificate; the handshake failure surfaces as a ConnectionError.
	strict := NewAdapter(&http.Client{}, srv.URL, "key")
	_, err := strict.ValidateConnection(context.Background())
	if !IsConnectionError(err) {
		t.Errorf("TLS failure error = %v, want ConnectionError", err)
	}

	// The default client skips verification and accepts the same server.
	insecure := NewAdapter(nil, srv.URL, "key")
	if _, err := insecure.ValidateConnection(context.Background()); err != nil {
		t.Errorf("default client rejected self-signed certificate: %v", err)
	}
}

func TestValidateConnectionTimeout(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := adapter.ValidateConnection(ctx)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsConnectionError(err) {
		t.Errorf("timeout error %v is not a ConnectionError", err)
	}
}

func TestListReferenceDataKeepsServerOrder(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/projects.json":
			_, _ = w.Write([]byte(`{"projects":[
				{"id":3,"name":"Zeta","identifier":"zeta"},
				{"id":1,"name":"Alpha","identifier":"alpha"}
			]}`))
		case "/trackers.json":
			_, _ = w.Write([]byte(`{"trackers":[
				{"id":2,"name":"Feature"},
				{"id":1,"name":"Bug"}
			]}`))
		case "/issue_priorities.json":
			_, _ = w.Write([]byte(`{"issue_priorities":[
				{"id":1,"name":"Low"},
				{"id":2,"name":"Normal","is_default":true}
			]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	projects, err := adapter.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 || projects[0].Identifier != "zeta" || projects[1].Identifier != "alpha" {
		t.Errorf("projects order not preserved: %+v", projects)
	}

	trackers, err := adapter.ListTrackers(ctx)
	if err != nil {
		t.Fatalf("ListTrackers() error = %v", err)
	}
	if len(trackers) != 2 || trackers[0].ID != 2 || trackers[1].ID != 1 {
		t.Errorf("trackers order not preserved: %+v", trackers)
	}

	priorities, err := adapter.ListPriorities(ctx)
	if err != nil {
		t.Fatalf("ListPriorities() error = %v", err)
	}
	if len(priorities) != 2 || priorities[0].ID != 1 || priorities[1].ID != 2 {
		t.Errorf("priorities order not preserved: %+v", priorities)
	}
	if !priorities[1].IsDefault {
		t.Error("is_default flag not decoded")
	}
}

func TestListReferenceDataFailure(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := adapter.ListProjects(context.Background()); !IsConnectionError(err) {
		t.Errorf("ListProjects error = %v, want ConnectionError", err)
	}
}

func TestCreateIssueDefaultsPriority(t *testing.T) {
	var gotBody map[string]map[string]interface{}
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"issue":{"id":1,"subject":"x"}}`))
	})

	_, err := adapter.CreateIssue(context.Background(), IssueDraft{
		ProjectID: "demo",
		Subject:   "x",
		TrackerID: 1,
	})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}

	if got := gotBody["issue"]["priority_id"]; got != float64(DefaultPriorityID) {
		t.Errorf("priority_id = %v, want %d", got, DefaultPriorityID)
	}
	if _, ok := gotBody["issue"]["description"]; ok {
		t.Error("empty description should be omitted from the request body")
	}
}

func TestCreateIssueEndToEnd(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/issues.json" {
			t.Errorf("%s %s, want POST /issues.json", r.Method, r.URL.Path)
		}

		var body createIssueRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		want := issueFields{
			ProjectID:   "test-project",
			Subject:     "Test Issue",
			TrackerID:   1,
			PriorityID:  2,
			Description: "Test description",
		}
		if body.Issue != want {
			t.Errorf("request issue = %+v, want %+v", body.Issue, want)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"issue":{"id":123,"subject":"Test Issue"}}`))
	})

	created, err := adapter.CreateIssue(context.Background(), IssueDraft{
		ProjectID:   "test-project",
		Subject:     "Test Issue",
		TrackerID:   1,
		PriorityID:  2,
		Description: "Test description",
	})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if created.Issue.ID != 123 {
		t.Errorf("issue ID = %d, want 123", created.Issue.ID)
	}
	if created.Issue.Subject != "Test Issue" {
		t.Errorf("issue subject = %q, want %q", created.Issue.Subject, "Test Issue")
	}
}

func TestCreateIssueValidationError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":["Project is invalid","Subject is too short"]}`))
	})

	_, err := adapter.CreateIssue(context.Background(), IssueDraft{
		ProjectID: "bad",
		Subject:   "x",
		TrackerID: 1,
	})
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want ValidationError", err)
	}

	// Every server error must appear, comma-joined, in server order.
	wantMsg := "Project is invalid, Subject is too short"
	if !strings.Contains(err.Error(), wantMsg) {
		t.Errorf("error %q does not contain %q", err.Error(), wantMsg)
	}
}

func TestCreateIssueValidationErrorUnparsableBody(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("oops"))
	})

	_, err := adapter.CreateIssue(context.Background(), IssueDraft{
		ProjectID: "p", Subject: "x", TrackerID: 1,
	})
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(err.Error(), "unknown validation error") {
		t.Errorf("error %q missing fallback message", err.Error())
	}
}

func TestCreateIssueErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr func(error) bool
	}{
		{"401 is auth", http.StatusUnauthorized, IsAuthError},
		{"404 is api error", http.StatusNotFound, IsAPIError},
		{"500 is api error", http.StatusInternalServerError, IsAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := adapter.CreateIssue(context.Background(), IssueDraft{
				ProjectID: "p", Subject: "x", TrackerID: 1,
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr(err) {
				t.Errorf("error %v has wrong classification", err)
			}
		})
	}
}

func TestCreateIssueAPIErrorCarriesStatus(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := adapter.CreateIssue(context.Background(), IssueDraft{
		ProjectID: "p", Subject: "x", TrackerID: 1,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusBadGateway)
	}
}
