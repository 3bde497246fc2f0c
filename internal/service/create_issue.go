// Package service implements the create-issue invocation path: one handler
// that merges call-supplied parameters over an installation's persisted
// defaults and reports every remote failure as a single user-facing error.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nhle/redmine-bridge/internal/model"
	"github.com/nhle/redmine-bridge/internal/redmine"
)

// CreateIssueInput carries the caller-supplied parameters of one
// create-issue invocation. Subject is required; everything else falls back
// to the installation's defaults.
type CreateIssueInput struct {
	Subject     string
	ProjectID   string
	Description string
	TrackerID   int
	PriorityID  int
}

// InvocationError is the single user-facing failure for a service call.
// The underlying cause is preserved for error-chain inspection but the
// Message is what the operator sees.
type InvocationError struct {
	Message string
	Err     error
}

func (e *InvocationError) Error() string {
	return e.Message
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError reports whether err (or any error in its chain) is an
// InvocationError.
func IsInvocationError(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr)
}

// IssueCreator is the transport surface the handler needs, satisfied by
// *redmine.Adapter.
type IssueCreator interface {
	CreateIssue(ctx context.Context, draft redmine.IssueDraft) (*redmine.CreatedIssue, error)
}

// NewCreateIssueHandler builds the create-issue handler for one
// installation. Call-supplied fields win over the installation's defaults;
// priority falls back to the hard-coded client default when absent from
// both the call and the installation. There are no retries and a failed
// creation is never partially applied.
func NewCreateIssueHandler(adapter IssueCreator, inst model.Installation) Handler {
	return func(ctx context.Context, in CreateIssueInput) (*redmine.CreatedIssue, error) {
		if strings.TrimSpace(in.Subject) == "" {
			return nil, &InvocationError{Message: "subject is required"}
		}

		draft := redmine.IssueDraft{
			Subject:     in.Subject,
			ProjectID:   in.ProjectID,
			TrackerID:   in.TrackerID,
			Description: in.Description,
			PriorityID:  in.PriorityID,
		}
		if draft.ProjectID == "" {
			draft.ProjectID = inst.DefaultProjectID
		}
		if draft.TrackerID == 0 {
			draft.TrackerID = inst.DefaultTrackerID
		}
		if draft.PriorityID == 0 {
			draft.PriorityID = inst.DefaultPriorityID
		}
		if draft.PriorityID == 0 {
			draft.PriorityID = redmine.DefaultPriorityID
		}

		created, err := adapter.CreateIssue(ctx, draft)
		if err != nil {
			if redmine.IsAuthError(err) {
				return nil, &InvocationError{Message: "authentication failed", Err: err}
			}
			return nil, &InvocationError{Message: err.Error(), Err: err}
		}

		log.Printf("created Redmine issue #%d: %s", created.Issue.ID, in.Subject)
		return created, nil
	}
}

// RegisterCreateIssue installs the create-issue handler in the registry,
// guarded by a presence check so repeated setup of additional installations
// leaves the first registration in place.
func RegisterCreateIssue(r *Registry, adapter IssueCreator, inst model.Installation) {
	if r.Has(ServiceCreateIssue) {
		return
	}
	r.Register(ServiceCreateIssue, NewCreateIssueHandler(adapter, inst))
}

// Invoke dispatches a create-issue call through the registry.
func Invoke(
	ctx context.Context,
	r *Registry,
	in CreateIssueInput,
) (*redmine.CreatedIssue, error) {
	h := r.Get(ServiceCreateIssue)
	if h == nil {
		return nil, fmt.Errorf("service %q is not registered", ServiceCreateIssue)
	}
	return h(ctx, in)
}
