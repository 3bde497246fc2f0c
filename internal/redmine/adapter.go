package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultPriorityID is the client-side priority applied when a draft carries
// none. It matches Redmine's stock "Normal" priority and is deliberately
// independent of the server-reported default.
const DefaultPriorityID = 2

// Adapter exposes the Redmine operations the bridge needs: an auth probe,
// the three reference-data lookups used by setup, and issue creation. Every
// failure is reclassified into AuthError, ConnectionError, ValidationError,
// or APIError so callers branch on a small taxonomy instead of raw HTTP
// details.
type Adapter struct {
	client *Client
}

// NewAdapter creates a Redmine adapter over a shared HTTP client. The
// httpClient is borrowed, never owned; pass nil to use DefaultHTTPClient.
func NewAdapter(httpClient *http.Client, baseURL, apiKey string) *Adapter {
	return &Adapter{client: NewClient(httpClient, baseURL, apiKey)}
}

// BaseURL returns the normalized root URL of the Redmine instance.
func (a *Adapter) BaseURL() string {
	return a.client.BaseURL()
}

// ValidateConnection verifies the URL and API key by fetching the current
// user. Any 2xx is success regardless of payload; the user payload is only
// decoded opportunistically to surface a display name. A 401 maps to
// AuthError, everything else to ConnectionError.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	status, body, err := a.client.do(
		ctx, http.MethodGet, "/users/current.json", nil, readTimeout,
	)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusUnauthorized:
		return "", &AuthError{Message: "invalid API key"}
	case status < 200 || status >= 300:
		return "", &ConnectionError{
			Message: fmt.Sprintf("unexpected status %d on auth probe", status),
		}
	}

	var me currentUserResponse
	if err := json.Unmarshal(body, &me); err != nil {
		// Success is defined by the status code alone.
		return "", nil
	}
	return me.User.DisplayName(), nil
}

// ListProjects fetches the projects visible to the API key, in server order.
func (a *Adapter) ListProjects(ctx context.Context) ([]Project, error) {
	var resp projectsResponse
	if err := a.client.getJSON(ctx, "/projects.json", &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// ListTrackers fetches the configured trackers, in server order.
func (a *Adapter) ListTrackers(ctx context.Context) ([]Tracker, error) {
	var resp trackersResponse
	if err := a.client.getJSON(ctx, "/trackers.json", &resp); err != nil {
		return nil, err
	}
	return resp.Trackers, nil
}

// ListPriorities fetches the issue priorities, in server order.
func (a *Adapter) ListPriorities(ctx context.Context) ([]Priority, error) {
	var resp prioritiesResponse
	if err := a.client.getJSON(ctx, "/issue_priorities.json", &resp); err != nil {
		return nil, err
	}
	return resp.IssuePriorities, nil
}

// CreateIssue creates a new issue from the draft. A missing PriorityID is
// filled with DefaultPriorityID before the request is sent. A 422 maps to a
// ValidationError carrying every server-reported field error; any other
// non-2xx (except 401) maps to APIError with the status code.
func (a *Adapter) CreateIssue(ctx context.Context, draft IssueDraft) (*CreatedIssue, error) {
	priorityID := draft.PriorityID
	if priorityID == 0 {
		priorityID = DefaultPriorityID
	}

	payload := createIssueRequest{
		Issue: issueFields{
			ProjectID:   draft.ProjectID,
			Subject:     draft.Subject,
			TrackerID:   draft.TrackerID,
			PriorityID:  priorityID,
			Description: draft.Description,
		},
	}

	status, body, err := a.client.do(
		ctx, http.MethodPost, "/issues.json", payload, createTimeout,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, &AuthError{Message: "invalid API key"}
	case status == http.StatusUnprocessableEntity:
		var errResp errorsResponse
		if json.Unmarshal(body, &errResp) != nil || len(errResp.Errors) == 0 {
			errResp.Errors = []string{"unknown validation error"}
		}
		return nil, &ValidationError{Errors: errResp.Errors}
	case status < 200 || status >= 300:
		return nil, &APIError{StatusCode: status}
	}

	var created CreatedIssue
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, &ConnectionError{
			Message: "decoding issue creation response",
			Err:     err,
		}
	}

	return &created, nil
}
