package tui

import (
	"fmt"
	"strings"

	"devmem/internal/app"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m *Model) View() string {
	switch m.screen {
	case screenLogin:
		return m.viewLogin()
	case screenLoading:
		return m.viewLoading()
	case screenFatal:
		return m.viewFatal()
	case screenSetup:
		return m.viewSetup()
	default:
		return m.viewDashboard()
	}
}

func (m *Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("devmem"))
	b.WriteString("\n\n")
	b.WriteString("Sign in with GitHub in your browser, then paste the token shown\n")
	b.WriteString("by the callback page (or run: devmem login <token>).\n\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("enter confirm | ctrl+c quit"))
	return b.String()
}

func (m *Model) viewLoading() string {
	frame := spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
	return "\n  " + spinnerStyle.Render(frame) + " Loading your profile..."
}

func (m *Model) viewFatal() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("devmem"))
	b.WriteString("\n\n")
	b.WriteString(errorStyle.Render(m.fatalErr))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("r retry | q quit"))
	return b.String()
}

func (m *Model) viewSetup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select repositories to index"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Choose which repositories devmem should index."))
	b.WriteString("\n\n")

	if len(m.ghRepos) == 0 {
		frame := spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
		b.WriteString("  " + spinnerStyle.Render(frame) + " Fetching repositories from GitHub...\n")
	}
	for i, repo := range m.ghRepos {
		mark := "[ ]"
		if m.ghSelected[repo.FullName] {
			mark = markStyle.Render("[x]")
		}
		line := fmt.Sprintf("  %s %s", mark, repo.FullName)
		if repo.Private {
			line += mutedStyle.Render("  private")
		}
		if i == m.setupCursor {
			line = cursorStyle.Render(">") + line[1:]
		}
		b.WriteString(line + "\n")
	}

	if m.setupErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.setupErr) + "\n")
	}
	if m.setupBusy {
		frame := spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
		b.WriteString("\n  " + spinnerStyle.Render(frame) + " Saving selection...\n")
	}
	b.WriteString("\n" + footerStyle.Render("↑/↓ move | space toggle | enter continue | ctrl+c quit"))
	return b.String()
}

func (m *Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.tab {
	case tabChat:
		b.WriteString(m.renderChat())
	case tabRepos:
		b.WriteString(m.renderRepos())
	case tabHistory:
		b.WriteString(m.renderHistory())
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("tab switch | ctrl+n new chat | ctrl+l logout | ctrl+c quit"))
	return b.String()
}

func (m *Model) renderHeader() string {
	name := ""
	if u := m.app.User(); u != nil {
		name = u.Username
	}

	labels := []string{"Chat", "Repositories", "History"}
	var tabs []string
	for i, label := range labels {
		if tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	left := titleStyle.Render("devmem") + "  " + strings.Join(tabs, " ")
	right := mutedStyle.Render(name)
	gap := m.width - visibleWidth(left) - visibleWidth(right) - 2
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderChat() string {
	var b strings.Builder

	msgs := m.app.Conversation.Messages()
	if len(msgs) == 0 {
		b.WriteString("\n  Ask anything about your code. For example:\n\n")
		for _, ex := range []string{
			"How does login work in my projects?",
			"Show payment validation logic",
			"Where do I handle JWT tokens?",
		} {
			b.WriteString(mutedStyle.Render("   ➜ "+ex) + "\n")
		}
		b.WriteString("\n")
	}

	for _, msg := range msgs {
		label := assistantLabelStyle.Render("assistant")
		if msg.Role == app.RoleUser {
			label = userLabelStyle.Render("you")
		}
		stamp := ""
		if !msg.Timestamp.IsZero() {
			stamp = "  " + mutedStyle.Render(formatTime(msg.Timestamp))
		}
		b.WriteString(label + stamp + "\n")
		b.WriteString(indent(msg.Content, "  ") + "\n\n")
	}

	if m.app.Conversation.Sending() {
		frame := spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
		b.WriteString(spinnerStyle.Render(frame) + " Thinking...\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()))
	return b.String()
}

func (m *Model) renderRepos() string {
	var b strings.Builder
	repos := m.app.Repos.Repositories()

	if len(repos) == 0 {
		b.WriteString("\n  No repositories yet.\n")
		b.WriteString(mutedStyle.Render("  Selected repositories are indexed and become searchable in chat.") + "\n")
		return b.String()
	}

	b.WriteString("\n")
	for i, repo := range repos {
		mark := "[ ]"
		if repo.Selected {
			mark = markStyle.Render("[x]")
		}

		status := mutedStyle.Render("not indexed")
		switch {
		case repo.Pending():
			frame := spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
			status = pendingStyle.Render(frame + " indexing...")
		case repo.Indexed:
			status = indexedStyle.Render("indexed")
		}

		line := fmt.Sprintf("  %s %-40s %s", mark, repo.FullName, status)
		if i == m.repoCursor {
			line = cursorStyle.Render(">") + line[1:]
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("  space toggle indexing | ↑/↓ move") + "\n")
	return b.String()
}

func (m *Model) renderHistory() string {
	var b strings.Builder
	sessions := m.app.Directory.Sessions()

	if len(sessions) == 0 {
		b.WriteString("\n  No saved conversations yet.\n")
		b.WriteString(mutedStyle.Render("  Send a message and the session is saved automatically.") + "\n")
		return b.String()
	}

	currentID, bound := m.app.Conversation.CurrentSessionID()

	b.WriteString("\n")
	for i, s := range sessions {
		title := s.Title
		if title == "" {
			title = fmt.Sprintf("Session %d", s.ID)
		}
		line := fmt.Sprintf("  %s", title)
		if bound && s.ID == currentID {
			line += markStyle.Render("  ●")
		}
		if s.Preview != "" {
			line += "\n" + mutedStyle.Render("    "+truncate(s.Preview, m.width-8))
		}
		if i == m.historyCursor {
			line = cursorStyle.Render(">") + line[1:]
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("  enter open | ctrl+r refresh | ctrl+s new saved chat") + "\n")
	return b.String()
}
