package redmine

// User is the account returned by the current-user auth probe.
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// DisplayName returns a human-readable label for the user.
func (u User) DisplayName() string {
	switch {
	case u.Firstname != "" && u.Lastname != "":
		return u.Firstname + " " + u.Lastname
	case u.Login != "":
		return u.Login
	default:
		return ""
	}
}

type currentUserResponse struct {
	User User `json:"user"`
}

// Project is a Redmine project as returned by GET /projects.json.
type Project struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

type projectsResponse struct {
	Projects []Project `json:"projects"`
}

// Tracker is an issue tracker category (Bug, Feature, ...).
type Tracker struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type trackersResponse struct {
	Trackers []Tracker `json:"trackers"`
}

// Priority is an issue priority as returned by GET /issue_priorities.json.
type Priority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type prioritiesResponse struct {
	IssuePriorities []Priority `json:"issue_priorities"`
}

// IssueDraft holds the fields for a new issue. ProjectID and TrackerID are
// always populated by the caller (defaults are merged upstream); PriorityID
// and Description are optional.
type IssueDraft struct {
	ProjectID   string
	Subject     string
	TrackerID   int
	Description string
	PriorityID  int
}

// issueFields is the nested body inside {"issue": {...}} on creation.
type issueFields struct {
	ProjectID   string `json:"project_id"`
	Subject     string `json:"subject"`
	TrackerID   int    `json:"tracker_id"`
	PriorityID  int    `json:"priority_id"`
	Description string `json:"description,omitempty"`
}

type createIssueRequest struct {
	Issue issueFields `json:"issue"`
}

// Issue is the created issue echoed back by POST /issues.json.
type Issue struct {
	ID          int    `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// CreatedIssue is the full decoded creation response.
type CreatedIssue struct {
	Issue Issue `json:"issue"`
}

type errorsResponse struct {
	Errors []string `json:"errors"`
}
