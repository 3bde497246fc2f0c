package setup

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nhle/redmine-bridge/internal/credential"
	"github.com/nhle/redmine-bridge/internal/model"
	"github.com/nhle/redmine-bridge/internal/redmine"
	"github.com/nhle/redmine-bridge/internal/store"
)

// State identifies the current step of the setup flow.
type State int

const (
	// StateCollectCredentials gathers and validates the URL and API key.
	StateCollectCredentials State = iota

	// StateCollectDefaults presents reference data for default selection.
	StateCollectDefaults

	// StateDone means an installation was persisted.
	StateDone

	// StateAborted means the flow ended without persisting, reachable
	// only through duplicate detection.
	StateAborted
)

// Field identifiers used to route errors to the matching wizard input.
const (
	FieldRedmineURL = "redmine_url"
	FieldAPIKey     = "api_key"
	FieldBase       = "base"
)

// ErrDuplicateInstallation aborts the flow when an installation already
// exists for the normalized URL.
var ErrDuplicateInstallation = errors.New("an installation already exists for this URL")

// Connection is a validated Redmine endpoint plus its API key.
type Connection struct {
	RedmineURL string
	APIKey     string
}

// ReferenceData holds the lookup lists fetched during the credential step.
// It lives only for the duration of one flow; nothing is cached beyond it.
type ReferenceData struct {
	Projects   []redmine.Project
	Trackers   []redmine.Tracker
	Priorities []redmine.Priority
}

// Adapter is the transport surface the flow needs. It is satisfied by
// *redmine.Adapter and injected through a factory so the flow can be
// exercised against a stub.
type Adapter interface {
	ValidateConnection(ctx context.Context) (string, error)
	ListProjects(ctx context.Context) ([]redmine.Project, error)
	ListTrackers(ctx context.Context) ([]redmine.Tracker, error)
	ListPriorities(ctx context.Context) ([]redmine.Priority, error)
}

// AdapterFactory builds a transport adapter for candidate credentials.
type AdapterFactory func(redmineURL, apiKey string) Adapter

// Flow is the setup state machine. It has no retry logic anywhere: every
// failure re-presents the current step for human correction.
type Flow struct {
	store      store.Store
	newAdapter AdapterFactory

	// SaveCredential persists an installation's API key once the row is
	// created. Defaults to the system keyring.
	SaveCredential func(installationID, apiKey string) error

	state State
	conn  Connection
	refs  ReferenceData
}

// NewFlow creates a setup flow over the given store and adapter factory.
func NewFlow(s store.Store, factory AdapterFactory) *Flow {
	return &Flow{
		store:          s,
		newAdapter:     factory,
		SaveCredential: credential.SetAPIKey,
		state:          StateCollectCredentials,
	}
}

// State returns the flow's current step.
func (f *Flow) State() State {
	return f.state
}

// Connection returns the validated connection once the credential step has
// succeeded.
func (f *Flow) Connection() Connection {
	return f.conn
}

// References returns the lookup lists fetched during the credential step.
func (f *Flow) References() ReferenceData {
	return f.refs
}

// SubmitCredentials runs the credential step: normalize the URL, validate
// against the instance, abort on a duplicate, then fetch reference data and
// advance to the defaults step. A non-empty fieldErrors map means the step
// failed and should be re-presented; the keys name the offending field
// (FieldBase for form-level problems). The only non-nil error returned is
// ErrDuplicateInstallation, which terminates the flow.
func (f *Flow) SubmitCredentials(
	ctx context.Context,
	rawURL string,
	apiKey string,
) (map[string]string, error) {
	if f.state != StateCollectCredentials {
		return nil, fmt.Errorf("credentials already collected")
	}

	redmineURL := NormalizeURL(rawURL)
	adapter := f.newAdapter(redmineURL, apiKey)

	if _, err := adapter.ValidateConnection(ctx); err != nil {
		switch {
		case redmine.IsAuthError(err):
			return map[string]string{FieldAPIKey: "invalid API key"}, nil
		case redmine.IsConnectionError(err):
			return map[string]string{FieldRedmineURL: "cannot connect to Redmine"}, nil
		default:
			return map[string]string{FieldBase: "unexpected error: " + err.Error()}, nil
		}
	}

	existing, err := f.store.GetInstallationByURL(ctx, redmineURL)
	if err != nil {
		return map[string]string{FieldBase: "unexpected error: " + err.Error()}, nil
	}
	if existing != nil {
		f.state = StateAborted
		return nil, ErrDuplicateInstallation
	}

	refs, err := fetchReferences(ctx, adapter)
	if err != nil {
		// Credentials are kept; the next submission re-validates.
		return map[string]string{FieldBase: "cannot fetch Redmine options"}, nil
	}

	f.conn = Connection{RedmineURL: redmineURL, APIKey: apiKey}
	f.refs = *refs
	f.state = StateCollectDefaults
	return nil, nil
}

// fetchReferences issues the three lookups sequentially; latency is not a
// concern for a one-time wizard.
func fetchReferences(ctx context.Context, adapter Adapter) (*ReferenceData, error) {
	projects, err := adapter.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	trackers, err := adapter.ListTrackers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching trackers: %w", err)
	}
	priorities, err := adapter.ListPriorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching priorities: %w", err)
	}

	return &ReferenceData{
		Projects:   projects,
		Trackers:   trackers,
		Priorities: priorities,
	}, nil
}

// DefaultTrackerID returns the pre-selected tracker for the defaults step:
// the first tracker in server order, or "" when the list is empty.
func (f *Flow) DefaultTrackerID() string {
	if len(f.refs.Trackers) == 0 {
		return ""
	}
	return strconv.Itoa(f.refs.Trackers[0].ID)
}

// DefaultPriorityID returns the pre-selected priority for the defaults
// step: the priority flagged is_default by the server, else the first in
// list order, else the hard-coded Normal priority.
func (f *Flow) DefaultPriorityID() string {
	for _, p := range f.refs.Priorities {
		if p.IsDefault {
			return strconv.Itoa(p.ID)
		}
	}
	if len(f.refs.Priorities) > 0 {
		return strconv.Itoa(f.refs.Priorities[0].ID)
	}
	return strconv.Itoa(redmine.DefaultPriorityID)
}

// SubmitDefaults runs the defaults step: coerce the selections, persist the
// installation, and store the API key in the keyring. Tracker and priority
// arrive as form string values and are coerced to integers here.
func (f *Flow) SubmitDefaults(
	ctx context.Context,
	projectID string,
	trackerID string,
	priorityID string,
) (*model.Installation, error) {
	if f.state != StateCollectDefaults {
		return nil, fmt.Errorf("defaults step is not active")
	}

	tracker, err := strconv.Atoi(trackerID)
	if err != nil {
		return nil, fmt.Errorf("invalid tracker selection %q: %w", trackerID, err)
	}
	priority, err := strconv.Atoi(priorityID)
	if err != nil {
		return nil, fmt.Errorf("invalid priority selection %q: %w", priorityID, err)
	}

	inst, err := f.store.CreateInstallation(ctx, model.Installation{
		RedmineURL:        f.conn.RedmineURL,
		DefaultProjectID:  projectID,
		DefaultTrackerID:  tracker,
		DefaultPriorityID: priority,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting installation: %w", err)
	}

	if err := f.SaveCredential(inst.ID, f.conn.APIKey); err != nil {
		return nil, fmt.Errorf("storing API key: %w", err)
	}

	f.state = StateDone
	return inst, nil
}
