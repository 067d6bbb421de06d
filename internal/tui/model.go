package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"devmem/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type screen int

const (
	screenLogin screen = iota
	screenLoading
	screenFatal
	screenSetup
	screenDashboard
)

type tab int

const (
	tabChat tab = iota
	tabRepos
	tabHistory
	tabCount
)

// Model is the presentation layer. It owns no domain state: everything it
// renders is read from the application core each frame, so optimistic
// writes show up without any UI-side bookkeeping.
type Model struct {
	app  *app.Application
	keys keyMap

	screen screen
	tab    tab

	input        textarea.Model
	width        int
	height       int
	spinnerFrame int
	fatalErr     string

	historyCursor int
	repoCursor    int

	ghRepos     []app.GitHubRepo
	ghSelected  map[string]bool
	setupCursor int
	setupBusy   bool
	setupErr    string
}

func New(application *app.Application) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask anything about your code..."
	ta.CharLimit = 4000
	ta.SetWidth(80)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.Prompt = "▍ "
	ta.Focus()

	m := &Model{
		app:        application,
		keys:       defaultKeyMap(),
		input:      ta,
		width:      80,
		height:     24,
		ghSelected: map[string]bool{},
	}
	if application.Auth.Authenticated() {
		m.screen = screenLoading
	} else {
		m.screen = screenLogin
		m.input.Placeholder = "Paste your access token..."
	}
	return m
}

// Run starts the program and blocks until the user quits.
func Run(application *app.Application) error {
	p := tea.NewProgram(New(application), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	if m.screen == screenLoading {
		return tea.Batch(textarea.Blink, m.loadProfileCmd(), tickCmd())
	}
	return tea.Batch(textarea.Blink, tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 6)
		return m, nil

	case tickMsg:
		m.spinnerFrame++
		// A 401 anywhere tears the session down; the tick is where the
		// presentation notices and falls back to the login screen.
		if m.screen == screenDashboard && !m.app.Auth.Authenticated() {
			m.toLogin()
		}
		return m, tickCmd()

	case profileMsg:
		return m.handleProfile(msg)

	case ghReposMsg:
		if msg.err != nil {
			m.setupErr = "Could not load your GitHub repositories."
			return m, nil
		}
		m.ghRepos = msg.repos
		return m, nil

	case setupDoneMsg:
		m.setupBusy = false
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrUnauthorized) {
				m.toLogin()
				return m, nil
			}
			m.setupErr = "Saving your selection failed. Try again."
			return m, nil
		}
		m.enterDashboard()
		return m, m.refreshSessionsCmd()

	case sendFinishedMsg, toggleDoneMsg, sessionsLoadedMsg:
		return m, nil

	case sessionOpenedMsg:
		if msg.err == nil {
			m.tab = tabChat
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleProfile(msg profileMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, app.ErrUnauthorized) {
			m.toLogin()
			return m, nil
		}
		m.screen = screenFatal
		m.fatalErr = "Could not load your profile. Is the backend running?"
		return m, nil
	}

	if u := m.app.User(); u != nil && u.NeedsSetup {
		m.screen = screenSetup
		m.setupErr = ""
		return m, m.loadGitHubReposCmd()
	}

	m.enterDashboard()
	return m, m.refreshSessionsCmd()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenFatal:
		return m.handleFatalKey(msg)
	case screenSetup:
		return m.handleSetupKey(msg)
	case screenDashboard:
		return m.handleDashboardKey(msg)
	}
	return m, nil
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Enter) {
		token := strings.TrimSpace(m.input.Value())
		if token == "" {
			return m, nil
		}
		if err := m.app.Auth.Set(token); err != nil {
			m.fatalErr = "Could not store the token."
			m.screen = screenFatal
			return m, nil
		}
		m.input.Reset()
		m.screen = screenLoading
		return m, m.loadProfileCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleFatalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.screen = screenLoading
		return m, m.loadProfileCmd()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.setupBusy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.setupCursor > 0 {
			m.setupCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.setupCursor < len(m.ghRepos)-1 {
			m.setupCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.setupCursor < len(m.ghRepos) {
			name := m.ghRepos[m.setupCursor].FullName
			m.ghSelected[name] = !m.ghSelected[name]
		}
	case key.Matches(msg, m.keys.Enter):
		names := make([]string, 0, len(m.ghSelected))
		for name, on := range m.ghSelected {
			if on {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return m, nil
		}
		m.setupBusy = true
		m.setupErr = ""
		return m, m.completeSetupCmd(names)
	}
	return m, nil
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.app.Conversation.StartNewChat(m.app.User())
		m.tab = tabChat
		return m, nil

	case key.Matches(msg, m.keys.NewSaved):
		return m, m.startNamedChatCmd()

	case key.Matches(msg, m.keys.Logout):
		m.app.Logout()
		m.toLogin()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.tab == tabHistory {
			return m, m.refreshSessionsCmd()
		}
		return m, nil
	}

	switch m.tab {
	case tabChat:
		return m.handleChatKey(msg)
	case tabHistory:
		return m.handleHistoryKey(msg)
	case tabRepos:
		return m.handleReposKey(msg)
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Enter) {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		// The core's single-flight guard refuses a second in-flight
		// send; keep the draft so nothing typed is lost.
		if m.app.Conversation.Sending() {
			return m, nil
		}
		m.input.Reset()
		return m, m.sendCmd(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := m.app.Directory.Sessions()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.historyCursor < len(sessions)-1 {
			m.historyCursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if m.historyCursor < len(sessions) {
			return m, m.openSessionCmd(sessions[m.historyCursor].ID)
		}
	}
	return m, nil
}

func (m *Model) handleReposKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	repos := m.app.Repos.Repositories()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.repoCursor > 0 {
			m.repoCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.repoCursor < len(repos)-1 {
			m.repoCursor++
		}
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Enter):
		if m.repoCursor < len(repos) {
			return m, m.toggleRepoCmd(repos[m.repoCursor].ID)
		}
	}
	return m, nil
}

func (m *Model) enterDashboard() {
	m.screen = screenDashboard
	m.tab = tabChat
	m.input.Placeholder = "Ask anything about your code..."
	if m.app.Conversation.State() == app.StateEmpty {
		m.app.Conversation.StartNewChat(m.app.User())
	}
}

func (m *Model) toLogin() {
	m.screen = screenLogin
	m.input.Reset()
	m.input.Placeholder = "Paste your access token..."
}

// --- commands and messages ---

type (
	tickMsg           struct{}
	profileMsg        struct{ err error }
	sendFinishedMsg   struct{}
	sessionOpenedMsg  struct{ err error }
	sessionsLoadedMsg struct{}
	toggleDoneMsg     struct{}
	ghReposMsg        struct {
		repos []app.GitHubRepo
		err   error
	}
	setupDoneMsg struct{ err error }
)

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) loadProfileCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return profileMsg{err: m.app.LoadProfile(ctx)}
	}
}

func (m *Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		m.app.Conversation.Send(ctx, text)
		return sendFinishedMsg{}
	}
}

func (m *Model) openSessionCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sessionOpenedMsg{err: m.app.Conversation.OpenSession(ctx, id)}
	}
}

func (m *Model) startNamedChatCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		u := m.app.User()
		title := "Chat"
		if u != nil {
			title = "Chat with " + u.Username
		}
		err := m.app.Conversation.StartNamedChat(ctx, title, u)
		return sessionOpenedMsg{err: err}
	}
}

func (m *Model) refreshSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		m.app.Directory.Refresh(ctx)
		return sessionsLoadedMsg{}
	}
}

func (m *Model) toggleRepoCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		m.app.ToggleRepo(ctx, id)
		return toggleDoneMsg{}
	}
}

func (m *Model) loadGitHubReposCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		repos, err := m.app.ListGitHubRepos(ctx)
		return ghReposMsg{repos: repos, err: err}
	}
}

func (m *Model) completeSetupCmd(names []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return setupDoneMsg{err: m.app.CompleteSetup(ctx, names)}
	}
}
