package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/api"
	"stockdash/internal/state"
)

// adminModel is the user administration screen: the paged user directory
// with admin grant/revoke.
type adminModel struct {
	res       *state.Resource[[]api.User] // accumulated pages
	nextToken string
	loading   bool
	cursor    int
	errMsg    string

	viewport viewport.Model
	ready    bool
}

func newAdminModel() adminModel {
	return adminModel{res: &state.Resource[[]api.User]{}}
}

func (m adminModel) resize(width, height int) adminModel {
	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.viewport.MouseWheelEnabled = true
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.viewport.SetContent(m.renderContent())
	return m
}

// enter loads the first page on first visit.
func (m adminModel) enter(client *api.Client) tea.Cmd {
	if _, loaded, loading, _ := m.res.Get(); loaded || loading {
		return nil
	}
	return m.loadPageCmd(client, "")
}

func (m adminModel) loadPageCmd(client *api.Client, nextToken string) tea.Cmd {
	token := m.res.Begin()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		page, err := client.ListUsers(ctx, nextToken)
		if err != nil {
			return usersLoadedMsg{token: token, nextToken: nextToken, err: err}
		}
		return usersLoadedMsg{token: token, nextToken: nextToken, page: *page}
	}
}

func setAdminCmd(client *api.Client, username string, isAdmin bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := client.SetAdmin(ctx, username, isAdmin)
		return setAdminDoneMsg{username: username, isAdmin: isAdmin, err: err}
	}
}

func (m adminModel) users() []api.User {
	users, _, _, _ := m.res.Get()
	return users
}

func (m adminModel) update(msg tea.Msg, client *api.Client) (adminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		users := m.users()
		switch msg.String() {
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
			m.viewport.SetContent(m.renderContent())
			return m, nil
		case "down":
			if m.cursor < len(users)-1 {
				m.cursor++
			}
			m.viewport.SetContent(m.renderContent())
			return m, nil
		case "n":
			if m.nextToken != "" && !m.loading {
				m.loading = true
				return m, m.loadPageCmd(client, m.nextToken)
			}
			return m, nil
		case "a":
			if m.cursor < len(users) {
				u := users[m.cursor]
				// Optimistic flip, reverted if the gateway says no.
				users[m.cursor].IsAdmin = !u.IsAdmin
				m.viewport.SetContent(m.renderContent())
				return m, setAdminCmd(client, u.Name, !u.IsAdmin)
			}
			return m, nil
		}

	case usersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.res.Reject(msg.token, msg.err.Error())
			m.errMsg = msg.err.Error()
		} else {
			existing := m.users()
			if msg.nextToken == "" {
				existing = nil // first page restarts the listing
			}
			m.res.Resolve(msg.token, append(existing, msg.page.Users...))
			m.nextToken = msg.page.NextToken
			m.errMsg = ""
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case setAdminDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("setadmin %s: %v", msg.username, msg.err)
			users := m.users()
			for i := range users {
				if users[i].Name == msg.username {
					users[i].IsAdmin = !msg.isAdmin
				}
			}
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m adminModel) view() string {
	if !m.ready {
		return ""
	}
	return m.viewport.View()
}

func (m adminModel) renderContent() string {
	users, loaded, loading, errMsg := m.res.Get()
	if loading && !loaded {
		return dimStyle.Render("loading users...")
	}
	if errMsg != "" && !loaded {
		return errStyle.Render("error: " + errMsg)
	}

	var b strings.Builder
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(" %-20s %-30s %s", "user", "email", "role")))
	b.WriteString("\n")
	for i, u := range users {
		hl := i == m.cursor
		role := dimStyle.Render("user")
		if u.IsAdmin {
			role = adminStyle.Render("admin")
		}
		b.WriteString(fmt.Sprintf(" %s %s %s\n",
			hlStyle(symbolStyle, hl).Render(fmt.Sprintf("%-20s", u.Name)),
			hlStyle(priceStyle, hl).Render(fmt.Sprintf("%-30s", u.Email)),
			role))
	}
	if m.nextToken != "" {
		if m.loading {
			b.WriteString(dimStyle.Render(" loading more..."))
		} else {
			b.WriteString(dimStyle.Render(" n: load more"))
		}
		b.WriteString("\n")
	}
	if m.errMsg != "" {
		b.WriteString(errStyle.Render(" " + m.errMsg))
	}
	return strings.TrimRight(b.String(), "\n")
}
