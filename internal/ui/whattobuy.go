package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/aggregator"
	"stockdash/internal/util"
)

// suggestionsModel is the "what to buy" screen: the scan progress bar, the
// per-ticker suggestion table, and the cache countdown.
type suggestionsModel struct {
	agg     *aggregator.Aggregator
	prog    progress.Model
	updates chan scanUpdateMsg

	scanning      bool
	latest        aggregator.Progress
	sortKey       aggregator.SortKey
	width, height int
}

func newSuggestionsModel(agg *aggregator.Aggregator) suggestionsModel {
	return suggestionsModel{
		agg:     agg,
		prog:    progress.New(progress.WithDefaultGradient()),
		updates: make(chan scanUpdateMsg, 16),
		sortKey: aggregator.SortByScoreDesc,
	}
}

func (s suggestionsModel) resize(width, height int) suggestionsModel {
	s.width = width
	s.height = height
	s.prog.Width = width - 20
	if s.prog.Width < 10 {
		s.prog.Width = 10
	}
	return s
}

// start kicks off a scan in the background. Progress flows through the
// updates channel; completion comes back as the command's own message.
func (s suggestionsModel) start(force bool) tea.Cmd {
	agg, updates := s.agg, s.updates
	return func() tea.Msg {
		err := agg.Refresh(context.Background(), force, func(p aggregator.Progress) {
			select {
			case updates <- scanUpdateMsg{progress: p}:
			default: // drop rather than stall the scan
			}
		})
		return scanUpdateMsg{done: true, err: err}
	}
}

// listen delivers the next progress update. Exactly one listener is kept
// alive: Init starts it and every delivered update re-arms it.
func (s suggestionsModel) listen() tea.Cmd {
	updates := s.updates
	return func() tea.Msg {
		return <-updates
	}
}

// onTick drives the countdown and fires an automatic refresh when the cache
// expires. The previous results stay visible while the new scan runs.
func (s suggestionsModel) onTick() (suggestionsModel, tea.Cmd) {
	if s.scanning {
		return s, nil
	}
	if s.agg.Phase() == aggregator.PhaseReady && !s.agg.CacheValid() {
		s.scanning = true
		return s, s.start(false)
	}
	return s, nil
}

func (s suggestionsModel) update(msg tea.Msg) (suggestionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			s.sortKey = s.sortKey.Next()
			return s, nil
		case "r":
			if !s.scanning {
				s.scanning = true
				return s, s.start(true)
			}
			return s, nil
		}

	case scanUpdateMsg:
		if msg.done {
			s.scanning = false
			return s, nil
		}
		s.latest = msg.progress
		if !s.scanning {
			s.scanning = true
		}
		return s, s.listen()
	}
	return s, nil
}

func (s suggestionsModel) view(width, height int) string {
	var b strings.Builder

	phase := s.agg.Phase()
	switch phase {
	case aggregator.PhaseIdle:
		if errMsg := s.agg.Err(); errMsg != "" {
			b.WriteString(errStyle.Render("scan failed: " + errMsg))
		} else {
			b.WriteString(dimStyle.Render("starting scan..."))
		}
		b.WriteString("\n\n")
	case aggregator.PhaseFetchingList:
		b.WriteString(dimStyle.Render("fetching stock universe..."))
		b.WriteString("\n\n")
	case aggregator.PhaseFetchingAnalyses, aggregator.PhaseRefreshing:
		p := s.agg.Progress()
		pct := 0.0
		if p.Total > 0 {
			pct = float64(p.Done) / float64(p.Total)
		}
		label := fmt.Sprintf(" %d/%d", p.Done, p.Total)
		if phase == aggregator.PhaseRefreshing {
			label += dimStyle.Render("  refreshing")
		}
		b.WriteString(s.prog.ViewAs(pct))
		b.WriteString(label)
		b.WriteString("\n\n")
	case aggregator.PhaseReady:
		remaining := s.agg.TimeToExpiry()
		b.WriteString(dimStyle.Render("next refresh in "))
		b.WriteString(priceStyle.Render(util.FormatCountdown(remaining)))
		if errMsg := s.agg.Err(); errMsg != "" {
			b.WriteString("  ")
			b.WriteString(errStyle.Render("last refresh failed: " + errMsg))
		}
		b.WriteString("\n\n")
	}

	results := s.agg.Results(s.sortKey)
	if len(results) == 0 {
		if phase == aggregator.PhaseFetchingAnalyses {
			b.WriteString(dimStyle.Render("(waiting for first analysis)"))
		} else if phase == aggregator.PhaseReady {
			b.WriteString(dimStyle.Render("(no analyses available)"))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(" %-8s %-6s %8s %8s %8s %8s   sort: %s",
		"ticker", "call", "score", "ta", "sent", "fund", sortLabel(s.sortKey))))
	b.WriteString("\n")

	rows := height - 4
	if rows < 1 {
		rows = 1
	}
	for i, a := range results {
		if i >= rows {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" ... %d more", len(results)-rows)))
			break
		}
		call := string(a.FinalSuggestion)
		b.WriteString(fmt.Sprintf(" %s %s %s %8s %8s %8s\n",
			symbolStyle.Render(fmt.Sprintf("%-8s", a.Ticker)),
			suggestionStyle(call).Render(fmt.Sprintf("%-6s", call)),
			scoreStyleFor(a.TotalScore).Render(fmt.Sprintf("%8s", util.FormatScore(a.TotalScore))),
			util.FormatScore(a.Breakdown.TA.Score),
			util.FormatScore(a.Breakdown.Sentiment.Score),
			util.FormatScore(a.Breakdown.Fundamentals.Score)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortLabel(k aggregator.SortKey) string {
	switch k {
	case aggregator.SortByTicker:
		return "ticker"
	case aggregator.SortByTickerDesc:
		return "ticker desc"
	case aggregator.SortByScoreAsc:
		return "score asc"
	case aggregator.SortByScoreDesc:
		return "score desc"
	}
	return "?"
}
