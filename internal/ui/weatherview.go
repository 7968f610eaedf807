package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/state"
	"stockdash/internal/weather"
)

// weatherModel is the weather screen: geolocated current conditions.
type weatherModel struct {
	res *state.Resource[weather.Report]
}

func newWeatherModel() weatherModel {
	return weatherModel{res: &state.Resource[weather.Report]{}}
}

// enter fetches on first visit. A nil client means the screen stays empty.
func (w weatherModel) enter(client *weather.Client) tea.Cmd {
	if client == nil {
		return nil
	}
	if _, loaded, loading, _ := w.res.Get(); loaded || loading {
		return nil
	}
	return w.fetchCmd(client)
}

func (w weatherModel) fetchCmd(client *weather.Client) tea.Cmd {
	token := w.res.Begin()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rep, err := client.Report(ctx)
		return weatherLoadedMsg{token: token, report: rep, err: err}
	}
}

func (w weatherModel) update(msg tea.Msg) (weatherModel, tea.Cmd) {
	if msg, ok := msg.(weatherLoadedMsg); ok {
		if msg.err != nil {
			w.res.Reject(msg.token, msg.err.Error())
		} else {
			w.res.Resolve(msg.token, msg.report)
		}
	}
	return w, nil
}

func (w weatherModel) view(width, height int) string {
	rep, loaded, loading, errMsg := w.res.Get()
	switch {
	case loading && !loaded:
		return dimStyle.Render("checking the weather...")
	case errMsg != "" && !loaded:
		return errStyle.Render("weather unavailable: " + errMsg)
	case !loaded:
		return dimStyle.Render("(weather disabled)")
	}

	text, glyph := weather.Describe(rep.Current.Code)
	var b strings.Builder
	b.WriteString(symbolStyle.Render(fmt.Sprintf("%s, %s", rep.Location.City, rep.Location.Country)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s  %s\n", glyph, priceStyle.Render(text)))
	b.WriteString(fmt.Sprintf("  temperature  %s\n", priceStyle.Render(fmt.Sprintf("%.1f°C", rep.Current.Temperature))))
	b.WriteString(fmt.Sprintf("  wind         %s\n", priceStyle.Render(fmt.Sprintf("%.1f km/h", rep.Current.WindSpeed))))
	if rep.Current.Time != "" {
		b.WriteString(dimStyle.Render("  observed " + rep.Current.Time))
	}
	return strings.TrimRight(b.String(), "\n")
}
