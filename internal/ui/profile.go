package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/api"
	"stockdash/internal/auth"
	"stockdash/internal/state"
)

// profileModel is the profile screen: token sign-in, the stored gateway
// profile, and a name edit.
type profileModel struct {
	user *state.User
	me   *state.Resource[api.User]

	input     textinput.Model // token paste
	nameInput textinput.Model
	editing   bool
	errMsg    string
}

func newProfileModel(user *state.User) profileModel {
	input := textinput.New()
	input.Placeholder = "paste identity token"
	input.EchoMode = textinput.EchoPassword
	input.CharLimit = 4096

	nameInput := textinput.New()
	nameInput.Placeholder = "display name"
	nameInput.CharLimit = 64

	return profileModel{
		user:      user,
		me:        &state.Resource[api.User]{},
		input:     input,
		nameInput: nameInput,
	}
}

func (p profileModel) typing() bool { return p.input.Focused() || p.editing }

// fetchMeCmd loads the stored profile from the gateway after sign-in.
func (p profileModel) fetchMeCmd(deps Deps) tea.Cmd {
	token := p.me.Begin()
	client := deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		me, err := client.GetMe(ctx)
		if err != nil {
			return meLoadedMsg{token: token, err: err}
		}
		return meLoadedMsg{token: token, user: *me}
	}
}

func updateMeCmd(deps Deps, u api.User) tea.Cmd {
	client := deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := client.UpdateMe(ctx, &u); err != nil {
			return meUpdatedMsg{user: u, err: err}
		}
		return meUpdatedMsg{user: u}
	}
}

func (p profileModel) update(msg tea.Msg, deps Deps) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if _, signedIn := p.user.Profile(); !signedIn {
			switch msg.String() {
			case "enter":
				raw := strings.TrimSpace(p.input.Value())
				if raw == "" {
					return p, nil
				}
				p.input.SetValue("")
				p.input.Blur()
				return p, signInCmd(deps, raw)
			case "i":
				if !p.input.Focused() {
					return p, p.input.Focus()
				}
			case "esc":
				p.input.Blur()
				return p, nil
			}
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, cmd
		}

		if p.editing {
			switch msg.String() {
			case "enter":
				me, loaded, _, _ := p.me.Get()
				p.editing = false
				p.nameInput.Blur()
				if !loaded {
					return p, nil
				}
				me.Name = strings.TrimSpace(p.nameInput.Value())
				return p, updateMeCmd(deps, me)
			case "esc":
				p.editing = false
				p.nameInput.Blur()
				return p, nil
			}
			var cmd tea.Cmd
			p.nameInput, cmd = p.nameInput.Update(msg)
			return p, cmd
		}

		switch msg.String() {
		case "e":
			me, loaded, _, _ := p.me.Get()
			if !loaded {
				return p, nil
			}
			p.editing = true
			p.nameInput.SetValue(me.Name)
			return p, p.nameInput.Focus()
		case "x":
			p.user.SignOut()
			p.me.Reset()
			p.errMsg = ""
			deps.Client.SetToken("")
			if err := auth.ClearSession(deps.SessionPath); err != nil {
				deps.Log.Warn("clearing session", "error", err)
			}
			return p, p.input.Focus()
		}

	case signedInMsg:
		if msg.err != nil {
			return p, p.input.Focus()
		}
		return p, p.fetchMeCmd(deps)

	case meLoadedMsg:
		if msg.err != nil {
			p.me.Reject(msg.token, msg.err.Error())
		} else {
			p.me.Resolve(msg.token, msg.user)
		}
		return p, nil

	case meUpdatedMsg:
		if msg.err != nil {
			p.errMsg = "profile update failed: " + msg.err.Error()
			return p, nil
		}
		p.errMsg = ""
		p.me.Resolve(p.me.Begin(), msg.user)
		return p, nil
	}
	return p, nil
}

// signInCmd decodes the token, stores the session, and reports the result.
func signInCmd(deps Deps, raw string) tea.Cmd {
	return func() tea.Msg {
		claims, err := auth.ParseToken(raw)
		if err != nil {
			return signedInMsg{err: err}
		}
		deps.User.SignIn(state.Profile{
			Username: claims.Username,
			Email:    claims.Email,
			IsAdmin:  claims.IsAdmin,
		}, raw)
		if err := auth.SaveSession(deps.SessionPath, raw); err != nil {
			deps.Log.Warn("saving session", "error", err)
		}
		return signedInMsg{username: claims.Username}
	}
}

func (p profileModel) view(width, height int) string {
	profile, signedIn := p.user.Profile()
	var b strings.Builder

	if !signedIn {
		b.WriteString(dimStyle.Render("sign in with a gateway identity token"))
		b.WriteString("\n\n")
		b.WriteString(p.input.View())
		b.WriteString("\n\n")
		if p.input.Focused() {
			b.WriteString(dimStyle.Render("enter: sign in  esc: stop typing"))
		} else {
			b.WriteString(dimStyle.Render("i: enter token"))
		}
		return b.String()
	}

	b.WriteString(symbolStyle.Render(profile.Username))
	if profile.IsAdmin {
		b.WriteString("  ")
		b.WriteString(adminStyle.Render("admin"))
	}
	b.WriteString("\n\n")

	me, loaded, loading, errMsg := p.me.Get()
	switch {
	case loading && !loaded:
		b.WriteString(dimStyle.Render("  loading profile...") + "\n")
	case errMsg != "" && !loaded:
		b.WriteString(errStyle.Render("  profile: "+errMsg) + "\n")
	case loaded:
		if p.editing {
			b.WriteString("  name   " + p.nameInput.View() + "\n")
		} else {
			b.WriteString("  name   " + priceStyle.Render(me.Name) + "\n")
		}
		if me.Email != "" {
			b.WriteString("  email  " + priceStyle.Render(me.Email) + "\n")
		}
	default:
		if profile.Email != "" {
			b.WriteString("  email  " + priceStyle.Render(profile.Email) + "\n")
		}
	}
	if p.errMsg != "" {
		b.WriteString(errStyle.Render("  " + p.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case p.editing:
		b.WriteString(dimStyle.Render("enter: save  esc: cancel"))
	case loaded:
		b.WriteString(dimStyle.Render("e: edit name  x: sign out"))
	default:
		b.WriteString(dimStyle.Render("x: sign out"))
	}
	return b.String()
}
