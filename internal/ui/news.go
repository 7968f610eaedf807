package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/news"
	"stockdash/internal/state"
)

// newsModel is the market news screen: merged headlines from the RSS feeds.
type newsModel struct {
	res      *state.Resource[[]news.Article]
	log      *slog.Logger
	viewport viewport.Model
	ready    bool
	width    int
}

func newNewsModel(log *slog.Logger) newsModel {
	return newsModel{res: &state.Resource[[]news.Article]{}, log: log}
}

func (n newsModel) resize(width, height int) newsModel {
	n.width = width
	if !n.ready {
		n.viewport = viewport.New(width, height)
		n.viewport.MouseWheelEnabled = true
		n.ready = true
	} else {
		n.viewport.Width = width
		n.viewport.Height = height
	}
	n.viewport.SetContent(n.renderContent())
	return n
}

// enter fetches the feeds on first visit; later visits reuse what loaded.
func (n newsModel) enter() tea.Cmd {
	if _, loaded, loading, _ := n.res.Get(); loaded || loading {
		return nil
	}
	return n.fetchCmd()
}

func (n newsModel) fetchCmd() tea.Cmd {
	token := n.res.Begin()
	log := n.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return newsLoadedMsg{token: token, articles: news.FetchAll(ctx, log)}
	}
}

func (n newsModel) update(msg tea.Msg, log *slog.Logger) (newsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "r" {
			cmd := n.fetchCmd()
			n.viewport.SetContent(n.renderContent())
			return n, cmd
		}

	case newsLoadedMsg:
		n.res.Resolve(msg.token, msg.articles)
		log.Info("news loaded", "articles", len(msg.articles))
		if n.ready {
			n.viewport.SetContent(n.renderContent())
			n.viewport.GotoTop()
		}
		return n, nil
	}

	var cmd tea.Cmd
	if n.ready {
		n.viewport, cmd = n.viewport.Update(msg)
	}
	return n, cmd
}

func (n newsModel) view() string {
	if !n.ready {
		return ""
	}
	return n.viewport.View()
}

func (n newsModel) renderContent() string {
	articles, loaded, loading, _ := n.res.Get()
	if loading && !loaded {
		return dimStyle.Render("loading headlines...")
	}
	if len(articles) == 0 {
		return dimStyle.Render("(no headlines; press r to retry)")
	}

	var b strings.Builder
	for _, a := range articles {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			dimStyle.Render(a.Time.Format("Jan 02 15:04")),
			colHeaderStyle.Render(fmt.Sprintf("%-13s", a.Source)),
			priceStyle.Render(a.Headline)))
		if a.Summary != "" && a.Summary != a.Headline {
			width := n.width - 4
			if width < 20 {
				width = 20
			}
			summary := a.Summary
			if len(summary) > width {
				summary = summary[:width] + "..."
			}
			b.WriteString("    " + dimStyle.Render(summary) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
