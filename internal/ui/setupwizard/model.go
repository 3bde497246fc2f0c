// Package setupwizard is the Bubble Tea front end for the setup flow: a
// credentials form, a validating spinner, a defaults form fed from the
// fetched reference data, and terminal success/abort screens.
package setupwizard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/redmine-bridge/internal/keys"
	"github.com/nhle/redmine-bridge/internal/model"
	"github.com/nhle/redmine-bridge/internal/redmine"
	"github.com/nhle/redmine-bridge/internal/setup"
	"github.com/nhle/redmine-bridge/internal/theme"
)

// Mode represents the current state of the wizard view.
type Mode int

const (
	ModeCredentials Mode = iota // URL + API key form
	ModeValidating              // Probing the instance
	ModeDefaults                // Default selections form
	ModeSaving                  // Persisting the installation
	ModeDone                    // Installation created
	ModeAborted                 // Duplicate URL, flow terminated
)

// credentialsCheckedMsg carries the outcome of the credential step.
type credentialsCheckedMsg struct {
	fieldErrors map[string]string
	err         error
}

// installationSavedMsg carries the outcome of the defaults step.
type installationSavedMsg struct {
	inst *model.Installation
	err  error
}

// formValues holds the strings the huh fields bind to. Bubble Tea copies
// the model on every Update, so these live behind a pointer to keep the
// bound addresses stable across copies.
type formValues struct {
	url      string
	apiKey   string
	project  string
	tracker  string
	priority string
}

// Model is the Bubble Tea model for the setup wizard.
type Model struct {
	mode Mode
	flow *setup.Flow
	keys *keys.KeyMap

	credForm     *huh.Form
	defaultsForm *huh.Form
	vals         *formValues

	fieldErrors map[string]string
	result      *model.Installation
	abortErr    error

	spinner       spinner.Model
	width, height int
}

// New creates a wizard over the given setup flow.
func New(flow *setup.Flow) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:    ModeCredentials,
		flow:    flow,
		keys:    keys.DefaultKeyMap(),
		vals:    &formValues{},
		spinner: sp,
		width:   80,
		height:  24,
	}
	m.credForm = m.buildCredentialsForm()
	return m
}

// Init starts the credentials form.
func (m Model) Init() tea.Cmd {
	return m.credForm.Init()
}

// Result returns the persisted installation once the wizard completed.
func (m Model) Result() *model.Installation {
	return m.result
}

// Aborted reports whether the wizard ended on the duplicate-detection path.
func (m Model) Aborted() bool {
	return m.mode == ModeAborted
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case credentialsCheckedMsg:
		if errors.Is(msg.err, setup.ErrDuplicateInstallation) {
			m.abortErr = msg.err
			m.mode = ModeAborted
			return m, nil
		}
		if len(msg.fieldErrors) > 0 {
			m.fieldErrors = msg.fieldErrors
			m.mode = ModeCredentials
			m.credForm = m.buildCredentialsForm()
			return m, m.credForm.Init()
		}
		m.fieldErrors = nil
		m.mode = ModeDefaults
		m.defaultsForm = m.buildDefaultsForm()
		return m, m.defaultsForm.Init()

	case installationSavedMsg:
		if msg.err != nil {
			m.fieldErrors = map[string]string{setup.FieldBase: msg.err.Error()}
			m.mode = ModeDefaults
			m.defaultsForm = m.buildDefaultsForm()
			return m, m.defaultsForm.Init()
		}
		m.result = msg.inst
		m.mode = ModeDone
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating || m.mode == ModeSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeDone, ModeAborted:
			if key.Matches(msg, m.keys.Confirm) ||
				key.Matches(msg, m.keys.Back) ||
				key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		case ModeValidating, ModeSaving:
			// Remote calls have fixed timeouts; only quit is allowed.
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	return m.updateActiveForm(msg)
}

// updateActiveForm feeds the message to whichever form is on screen and
// advances the flow when the form completes.
func (m Model) updateActiveForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeCredentials:
		if m.credForm == nil {
			return m, nil
		}
		mdl, cmd := m.credForm.Update(msg)
		if f, ok := mdl.(*huh.Form); ok {
			m.credForm = f
		}
		if m.credForm.State == huh.StateCompleted {
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.submitCredentials())
		}
		if m.credForm.State == huh.StateAborted {
			return m, tea.Quit
		}
		return m, cmd

	case ModeDefaults:
		if m.defaultsForm == nil {
			return m, nil
		}
		mdl, cmd := m.defaultsForm.Update(msg)
		if f, ok := mdl.(*huh.Form); ok {
			m.defaultsForm = f
		}
		if m.defaultsForm.State == huh.StateCompleted {
			m.mode = ModeSaving
			return m, tea.Batch(m.spinner.Tick, m.submitDefaults())
		}
		if m.defaultsForm.State == huh.StateAborted {
			return m, tea.Quit
		}
		return m, cmd
	}

	return m, nil
}

// --- Credentials step ---

func (m Model) buildCredentialsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Redmine URL").
				Description("Root URL of your Redmine instance; http:// is assumed when no scheme is given").
				Placeholder("redmine.example.com").
				Value(&m.vals.url).
				Validate(validateRequired("Redmine URL")),
			huh.NewInput().
				Title("API Key").
				Description("Your Redmine API key (My account → API access key)").
				EchoMode(huh.EchoModePassword).
				Value(&m.vals.apiKey).
				Validate(validateRequired("API key")),
		),
	).WithWidth(m.formWidth())
}

// submitCredentials runs the credential step of the flow off the UI loop.
func (m Model) submitCredentials() tea.Cmd {
	flow := m.flow
	rawURL, apiKey := m.vals.url, m.vals.apiKey
	return func() tea.Msg {
		fieldErrors, err := flow.SubmitCredentials(context.Background(), rawURL, apiKey)
		return credentialsCheckedMsg{fieldErrors: fieldErrors, err: err}
	}
}

// --- Defaults step ---

func (m Model) buildDefaultsForm() *huh.Form {
	refs := m.flow.References()

	projectOptions := make([]huh.Option[string], 0, len(refs.Projects))
	for _, p := range refs.Projects {
		label := fmt.Sprintf("%s (%s)", p.Name, p.Identifier)
		projectOptions = append(projectOptions, huh.NewOption(label, p.Identifier))
	}

	trackerOptions := make([]huh.Option[string], 0, len(refs.Trackers))
	for _, t := range refs.Trackers {
		trackerOptions = append(trackerOptions, huh.NewOption(t.Name, strconv.Itoa(t.ID)))
	}

	priorityOptions := make([]huh.Option[string], 0, len(refs.Priorities))
	for _, p := range refs.Priorities {
		priorityOptions = append(priorityOptions, huh.NewOption(p.Name, strconv.Itoa(p.ID)))
	}
	if len(priorityOptions) == 0 {
		priorityOptions = append(priorityOptions, huh.NewOption(
			"Normal", strconv.Itoa(redmine.DefaultPriorityID),
		))
	}

	// Trackers and priorities come pre-selected; the project never does,
	// so the user always makes that choice explicitly.
	m.vals.project = ""
	m.vals.tracker = m.flow.DefaultTrackerID()
	m.vals.priority = m.flow.DefaultPriorityID()

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default Project").
				Description("Project used when a create-issue call names none").
				Options(projectOptions...).
				Value(&m.vals.project),
			huh.NewSelect[string]().
				Title("Default Tracker").
				Description("Tracker used when a create-issue call names none").
				Options(trackerOptions...).
				Value(&m.vals.tracker),
			huh.NewSelect[string]().
				Title("Default Priority").
				Description("Priority used when a create-issue call names none").
				Options(priorityOptions...).
				Value(&m.vals.priority),
		),
	).WithWidth(m.formWidth())
}

// submitDefaults runs the defaults step of the flow off the UI loop.
func (m Model) submitDefaults() tea.Cmd {
	flow := m.flow
	project, tracker, priority := m.vals.project, m.vals.tracker, m.vals.priority
	return func() tea.Msg {
		inst, err := flow.SubmitDefaults(
			context.Background(), project, tracker, priority,
		)
		return installationSavedMsg{inst: inst, err: err}
	}
}

// --- View ---

// View renders the wizard based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeCredentials:
		return m.viewForm("Connect to Redmine", m.credForm)
	case ModeValidating:
		return m.viewSpinner("Validating connection...")
	case ModeDefaults:
		return m.viewForm("Choose defaults", m.defaultsForm)
	case ModeSaving:
		return m.viewSpinner("Saving installation...")
	case ModeDone:
		return m.viewDone()
	case ModeAborted:
		return m.viewAborted()
	default:
		return ""
	}
}

func (m Model) viewForm(title string, f *huh.Form) string {
	if f == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.fieldErrors) > 0 {
		b.WriteString(m.renderFieldErrors())
		b.WriteString("\n")
	}

	b.WriteString(f.View())

	return m.pageStyle().Render(b.String())
}

// renderFieldErrors lists step errors, each prefixed with the field it
// belongs to, in a stable order.
func (m Model) renderFieldErrors() string {
	fields := make([]string, 0, len(m.fieldErrors))
	for field := range m.fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for _, field := range fields {
		msg := m.fieldErrors[field]
		if field == setup.FieldBase {
			b.WriteString(theme.FieldErrorStyle.Render(msg))
		} else {
			b.WriteString(theme.FieldErrorStyle.Render(field + ": " + msg))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewSpinner(label string) string {
	content := fmt.Sprintf("%s %s\n\n%s",
		m.spinner.View(),
		label,
		theme.HintStyle.Render("q quit"),
	)
	return m.pageStyle().Render(content)
}

func (m Model) viewDone() string {
	inst := m.result
	var b strings.Builder
	b.WriteString(theme.SuccessStyle.Render("Installation created"))
	b.WriteString("\n\n")
	if inst != nil {
		b.WriteString(inst.Title())
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(
			"Defaults: project %s, tracker %d, priority %d\n",
			inst.DefaultProjectID, inst.DefaultTrackerID, inst.DefaultPriorityID,
		))
	}
	b.WriteString("\n")
	b.WriteString(theme.HintStyle.Render("enter/esc quit"))
	return m.pageStyle().Render(b.String())
}

func (m Model) viewAborted() string {
	var b strings.Builder
	b.WriteString(theme.ErrorStyle.Render("Setup aborted"))
	b.WriteString("\n\n")
	b.WriteString("An installation already exists for this Redmine URL.\n")
	b.WriteString("Remove it first to run setup for the same instance again.\n\n")
	b.WriteString(theme.HintStyle.Render("enter/esc quit"))
	return m.pageStyle().Render(b.String())
}

// --- Helpers ---

func (m Model) pageStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
