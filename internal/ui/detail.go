package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockdash/internal/api"
	"stockdash/internal/chart"
	"stockdash/internal/state"
	"stockdash/internal/store"
	"stockdash/internal/util"
)

// detailModel is the stock detail screen: candlestick chart with marker
// overlays, the analysis explanation, and fundamentals.
type detailModel struct {
	symbol string
	window api.TickWindow

	ticks        *state.Resource[[]api.Tick]
	fundamentals *state.Resource[api.Fundamentals]
	analysis     *state.Resource[api.AnalysisData]

	markers  []string // available marker ids, in gateway order
	active   []string // selected markers, activation order drives colors
	overlays map[string]chart.Overlay
	offline  bool // ticks came from the local export, not the gateway

	viewport      viewport.Model
	ready         bool
	width, height int
}

func newDetailModel() detailModel {
	return detailModel{
		window:       api.WindowDay,
		ticks:        &state.Resource[[]api.Tick]{},
		fundamentals: &state.Resource[api.Fundamentals]{},
		analysis:     &state.Resource[api.AnalysisData]{},
		overlays:     make(map[string]chart.Overlay),
	}
}

func (d detailModel) resize(width, height int) detailModel {
	d.width = width
	d.height = height
	if !d.ready {
		d.viewport = viewport.New(width, height)
		d.viewport.MouseWheelEnabled = true
		d.ready = true
	} else {
		d.viewport.Width = width
		d.viewport.Height = height
	}
	d.viewport.SetContent(d.renderContent())
	return d
}

// open resets the screen for a symbol and fires the initial fetches. Ticks,
// fundamentals, analysis, and the marker list load concurrently.
func (d detailModel) open(symbol string, deps Deps) (detailModel, tea.Cmd) {
	d.symbol = symbol
	d.window = api.WindowDay
	d.active = nil
	d.offline = false
	d.overlays = make(map[string]chart.Overlay)
	d.ticks.Reset()
	d.fundamentals.Reset()
	d.analysis.Reset()
	if d.ready {
		d.viewport.SetContent(d.renderContent())
		d.viewport.GotoTop()
	}
	return d, tea.Batch(
		d.loadTicksCmd(deps.Client, deps.Ticks),
		d.loadFundamentalsCmd(deps.Client),
		d.loadAnalysisCmd(deps.Client),
		loadMarkerListCmd(deps.Client, symbol),
	)
}

// loadTicksCmd fetches the tick window from the gateway. When the gateway
// fails and a local tick store holds exported history for the symbol, the
// stored ticks are served instead, flagged as offline.
func (d detailModel) loadTicksCmd(client *api.Client, local store.TickStore) tea.Cmd {
	token := d.ticks.Begin()
	symbol, window := d.symbol, d.window
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := client.GetTicks(ctx, symbol, window)
		if err == nil {
			return ticksLoadedMsg{token: token, symbol: symbol, window: window, ticks: resp.Ticks}
		}
		if local != nil {
			stored, rerr := local.ReadTicks(ctx, symbol, window)
			if rerr == nil && len(stored) > 0 {
				return ticksLoadedMsg{token: token, symbol: symbol, window: window, ticks: stored, offline: true}
			}
		}
		return ticksLoadedMsg{token: token, symbol: symbol, window: window, err: err}
	}
}

func (d detailModel) loadFundamentalsCmd(client *api.Client) tea.Cmd {
	token := d.fundamentals.Begin()
	symbol := d.symbol
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		data, err := client.GetFundamentals(ctx, symbol)
		return fundamentalsLoadedMsg{token: token, symbol: symbol, data: data, err: err}
	}
}

func (d detailModel) loadAnalysisCmd(client *api.Client) tea.Cmd {
	token := d.analysis.Begin()
	symbol := d.symbol
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		data, err := client.GetAnalysis(ctx, symbol)
		if err != nil {
			return analysisLoadedMsg{token: token, symbol: symbol, err: err}
		}
		return analysisLoadedMsg{token: token, symbol: symbol, data: *data}
	}
}

func loadMarkerListCmd(client *api.Client, symbol string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		markers, err := client.ListMarkers(ctx)
		return markerListMsg{symbol: symbol, markers: markers, err: err}
	}
}

func loadMarkerSeriesCmd(client *api.Client, symbol, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		data, err := client.GetMarker(ctx, symbol, name)
		if err != nil {
			return markerSeriesMsg{symbol: symbol, name: name, err: err}
		}
		return markerSeriesMsg{symbol: symbol, name: name, data: *data}
	}
}

// setWindow switches the tick aggregation window and refetches. The old
// ticks are replaced wholesale when the response lands.
func (d detailModel) setWindow(w api.TickWindow, deps Deps) (detailModel, tea.Cmd) {
	if d.window == w {
		return d, nil
	}
	d.window = w
	return d, d.loadTicksCmd(deps.Client, deps.Ticks)
}

// toggleMarker flips marker idx (0-based within the available list). Turning
// one on fetches its series; turning it off discards the overlay.
func (d detailModel) toggleMarker(idx int, client *api.Client) (detailModel, tea.Cmd) {
	if idx < 0 || idx >= len(d.markers) {
		return d, nil
	}
	name := d.markers[idx]
	for i, a := range d.active {
		if a == name {
			d.active = append(d.active[:i:i], d.active[i+1:]...)
			delete(d.overlays, name)
			d.viewport.SetContent(d.renderContent())
			return d, nil
		}
	}
	d.active = append(d.active, name)
	d.viewport.SetContent(d.renderContent())
	return d, loadMarkerSeriesCmd(client, d.symbol, name)
}

func (d detailModel) update(msg tea.Msg, deps Deps) (detailModel, bool, tea.Cmd) {
	log := deps.Log
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return d, true, nil
		case "d":
			next, cmd := d.setWindow(api.WindowDay, deps)
			return next, false, cmd
		case "w":
			next, cmd := d.setWindow(api.WindowWeek, deps)
			return next, false, cmd
		case "m":
			next, cmd := d.setWindow(api.WindowMonth, deps)
			return next, false, cmd
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.String()[0] - '1')
			next, cmd := d.toggleMarker(idx, deps.Client)
			return next, false, cmd
		}

	case ticksLoadedMsg:
		if msg.symbol != d.symbol {
			return d, false, nil
		}
		if msg.err != nil {
			d.ticks.Reject(msg.token, msg.err.Error())
			log.Warn("loading ticks", "symbol", msg.symbol, "window", msg.window, "error", msg.err)
		} else {
			d.offline = msg.offline
			d.ticks.Resolve(msg.token, msg.ticks)
			if msg.offline {
				log.Info("serving exported ticks", "symbol", msg.symbol, "window", msg.window)
			}
		}
		d.viewport.SetContent(d.renderContent())
		return d, false, nil

	case fundamentalsLoadedMsg:
		if msg.symbol != d.symbol {
			return d, false, nil
		}
		if msg.err != nil {
			d.fundamentals.Reject(msg.token, msg.err.Error())
			log.Warn("loading fundamentals", "symbol", msg.symbol, "error", msg.err)
		} else {
			d.fundamentals.Resolve(msg.token, msg.data)
		}
		d.viewport.SetContent(d.renderContent())
		return d, false, nil

	case analysisLoadedMsg:
		if msg.symbol != d.symbol {
			return d, false, nil
		}
		if msg.err != nil {
			d.analysis.Reject(msg.token, msg.err.Error())
			log.Warn("loading analysis", "symbol", msg.symbol, "error", msg.err)
		} else {
			d.analysis.Resolve(msg.token, msg.data)
		}
		d.viewport.SetContent(d.renderContent())
		return d, false, nil

	case markerListMsg:
		if msg.symbol != d.symbol {
			return d, false, nil
		}
		if msg.err != nil {
			log.Warn("listing markers", "symbol", msg.symbol, "error", msg.err)
		} else {
			d.markers = msg.markers
		}
		d.viewport.SetContent(d.renderContent())
		return d, false, nil

	case markerSeriesMsg:
		if msg.symbol != d.symbol {
			return d, false, nil
		}
		d = d.applyMarkerSeries(msg, log)
		d.viewport.SetContent(d.renderContent())
		return d, false, nil
	}

	var cmd tea.Cmd
	if d.ready {
		d.viewport, cmd = d.viewport.Update(msg)
	}
	return d, false, cmd
}

// applyMarkerSeries validates a fetched series. A series that fails to
// fetch or validate is dropped without an error banner, and its name is
// pruned from the active set so the toggle reflects reality.
func (d detailModel) applyMarkerSeries(msg markerSeriesMsg, log *slog.Logger) detailModel {
	position := -1
	for i, a := range d.active {
		if a == msg.name {
			position = i
			break
		}
	}
	if position < 0 {
		return d // deactivated while the fetch was in flight
	}

	if msg.err != nil {
		log.Warn("loading marker series", "symbol", msg.symbol, "marker", msg.name, "error", msg.err)
		d.active = pruneName(d.active, msg.name)
		return d
	}
	ov, ok := chart.BuildOverlay(msg.data, position)
	if !ok {
		log.Warn("marker series rejected", "symbol", msg.symbol, "marker", msg.name,
			"points", len(msg.data.Series))
		d.active = pruneName(d.active, msg.name)
		return d
	}
	d.overlays[msg.name] = ov
	return d
}

func pruneName(active []string, name string) []string {
	valid := make(map[string]bool, len(active))
	for _, a := range active {
		valid[a] = a != name
	}
	return chart.PruneActive(active, valid)
}

func (d detailModel) view() string {
	if !d.ready {
		return ""
	}
	return d.viewport.View()
}

func (d detailModel) renderContent() string {
	var b strings.Builder

	b.WriteString(symbolStyle.Render(d.symbol))
	b.WriteString("  ")
	for _, w := range api.Windows {
		label := string(w)
		if w == d.window {
			b.WriteString(tabActive.Render("[" + label + "]"))
		} else {
			b.WriteString(dimStyle.Render(" " + label + " "))
		}
	}
	b.WriteString("\n\n")

	ticks, loaded, loading, errMsg := d.ticks.Get()
	chartH := d.height - 12
	if chartH < 6 {
		chartH = 6
	}
	switch {
	case loading && !loaded:
		b.WriteString(dimStyle.Render("loading ticks..."))
		b.WriteString("\n")
	case errMsg != "" && !loaded:
		b.WriteString(errStyle.Render("error: " + errMsg))
		b.WriteString("\n")
	case len(ticks) == 0:
		b.WriteString(dimStyle.Render("(no tick data)"))
		b.WriteString("\n")
	default:
		// A failed refetch keeps the last good chart, with the error
		// shown next to it.
		if errMsg != "" {
			b.WriteString(errStyle.Render("refresh failed: " + errMsg))
			b.WriteString("\n")
		}
		if d.offline {
			b.WriteString(dimStyle.Render("(offline: exported ticks)"))
			b.WriteString("\n")
		}
		rendered := chart.Render(ticks, d.orderedOverlays(), d.width, chartH)
		b.WriteString(rendered)
		b.WriteString("\n")
		if legend := chart.Legend(d.orderedOverlays()); legend != "" {
			b.WriteString(legend)
			b.WriteString("\n")
		}
	}

	if len(d.markers) > 0 {
		b.WriteString("\n")
		b.WriteString(colHeaderStyle.Render("markers:"))
		for i, name := range d.markers {
			if i >= 9 {
				break
			}
			on := false
			for _, a := range d.active {
				if a == name {
					on = true
					break
				}
			}
			label := fmt.Sprintf(" %d:%s", i+1, name)
			if on {
				b.WriteString(tabActive.Render(label))
			} else {
				b.WriteString(dimStyle.Render(label))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(d.renderAnalysis())
	b.WriteString("\n")
	b.WriteString(d.renderFundamentals())
	return strings.TrimRight(b.String(), "\n")
}

func (d detailModel) renderAnalysis() string {
	data, loaded, loading, errMsg := d.analysis.Get()
	switch {
	case loading && !loaded:
		return dimStyle.Render("loading analysis...") + "\n"
	case errMsg != "" && !loaded:
		return errStyle.Render("analysis: "+errMsg) + "\n"
	case !loaded:
		return ""
	}

	var b strings.Builder
	if errMsg != "" {
		b.WriteString(errStyle.Render("analysis refresh failed: " + errMsg))
		b.WriteString("\n")
	}
	b.WriteString(suggestionStyle(string(data.FinalSuggestion)).Render(strings.ToUpper(string(data.FinalSuggestion))))
	b.WriteString("  score ")
	b.WriteString(scoreStyleFor(data.TotalScore).Render(util.FormatScore(data.TotalScore)))
	b.WriteString("\n")

	bd := data.Breakdown
	w := data.Weights
	b.WriteString(fmt.Sprintf("  ta %s (w %.2f)  %s\n",
		util.FormatScore(bd.TA.Score), w.TA, dimStyle.Render(util.Truncate(bd.TA.Explanation, 60))))
	b.WriteString(fmt.Sprintf("  sentiment %s (w %.2f)  %s\n",
		util.FormatScore(bd.Sentiment.Score), w.Sentiment, dimStyle.Render(util.Truncate(bd.Sentiment.Explanation, 60))))
	b.WriteString(fmt.Sprintf("  fundamentals %s (w %.2f)  %s\n",
		util.FormatScore(bd.Fundamentals.Score), w.Fundamentals, dimStyle.Render(util.Truncate(bd.Fundamentals.Explanation, 60))))
	return b.String()
}

func (d detailModel) renderFundamentals() string {
	data, loaded, loading, errMsg := d.fundamentals.Get()
	switch {
	case loading && !loaded:
		return dimStyle.Render("loading fundamentals...")
	case errMsg != "" && !loaded:
		return errStyle.Render("fundamentals: " + errMsg)
	case !loaded || len(data) == 0:
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	if errMsg != "" {
		b.WriteString(errStyle.Render("fundamentals refresh failed: " + errMsg))
		b.WriteString("\n")
	}
	b.WriteString(colHeaderStyle.Render("fundamentals"))
	b.WriteString("\n")
	for _, k := range keys {
		val := strings.Trim(string(data[k]), `"`)
		b.WriteString(fmt.Sprintf("  %-24s %s\n", k, priceStyle.Render(util.Truncate(val, 40))))
	}
	return b.String()
}

func (d detailModel) orderedOverlays() []chart.Overlay {
	out := make([]chart.Overlay, 0, len(d.active))
	for _, name := range d.active {
		if ov, ok := d.overlays[name]; ok {
			out = append(out, ov)
		}
	}
	return out
}

func scoreStyleFor(v float64) lipgloss.Style {
	if v < 0 {
		return scoreDownStyle
	}
	return scoreUpStyle
}
