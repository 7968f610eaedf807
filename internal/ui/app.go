// Package ui implements the terminal dashboard: suggestion scanner, stock
// picker and detail chart, market news, weather, profile, and user admin
// screens composed into one bubbletea program.
package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/aggregator"
	"stockdash/internal/api"
	"stockdash/internal/config"
	"stockdash/internal/state"
	"stockdash/internal/store"
	"stockdash/internal/weather"
)

type screen int

const (
	screenSuggestions screen = iota
	screenPicker
	screenDetail
	screenNews
	screenWeather
	screenProfile
	screenAdmin
)

// Deps carries everything the screens need. All fields must be set except
// Weather, which may be nil to disable the weather screen.
type Deps struct {
	Client      *api.Client
	Resolver    *config.Resolver
	Agg         *aggregator.Aggregator
	Weather     *weather.Client
	Ticks       store.TickStore // optional offline tick fallback
	User        *state.User
	SessionPath string
	Log         *slog.Logger
}

// App is the root model. Screens keep their own sub-models; App routes
// messages and owns the shared fetch state.
type App struct {
	deps Deps

	screen        screen
	width, height int
	ready         bool

	// Shared fetch state. Pointers so Update's model copies share one
	// sequence per resource.
	stocks *state.Resource[[]string]

	picker      pickerModel
	detail      detailModel
	suggestions suggestionsModel
	newsScreen  newsModel
	weatherView weatherModel
	profile     profileModel
	admin       adminModel
}

// NewApp builds the root model. The caller has already restored the
// aggregator snapshot and the saved session.
func NewApp(deps Deps) App {
	return App{
		deps:        deps,
		screen:      screenSuggestions,
		stocks:      &state.Resource[[]string]{},
		picker:      newPickerModel(),
		detail:      newDetailModel(),
		suggestions: newSuggestionsModel(deps.Agg),
		newsScreen:  newNewsModel(deps.Log),
		weatherView: newWeatherModel(),
		profile:     newProfileModel(deps.User),
		admin:       newAdminModel(),
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.resolveConfigCmd(),
		a.loadStocksCmd(),
		a.suggestions.start(false),
		a.suggestions.listen(),
		tickCmd(),
	}
	if _, signedIn := a.deps.User.Profile(); signedIn {
		cmds = append(cmds, a.profile.fetchMeCmd(a.deps))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) resolveConfigCmd() tea.Cmd {
	resolver := a.deps.Resolver
	client := a.deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resolver.Resolve(ctx)
		client.SetBaseURL(resolver.GatewayURL())
		return configResolvedMsg{gatewayURL: resolver.GatewayURL()}
	}
}

func (a App) loadStocksCmd() tea.Cmd {
	token := a.stocks.Begin()
	client := a.deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		symbols, err := client.ListStocks(ctx)
		return stocksLoadedMsg{token: token, symbols: symbols, err: err}
	}
}

// visibleScreens lists the tab order; admin only shows for admins.
func (a App) visibleScreens() []screen {
	screens := []screen{screenSuggestions, screenPicker, screenNews, screenWeather, screenProfile}
	if a.deps.User.IsAdmin() {
		screens = append(screens, screenAdmin)
	}
	return screens
}

func screenLabel(s screen) string {
	switch s {
	case screenSuggestions:
		return "Suggestions"
	case screenPicker:
		return "Stocks"
	case screenDetail:
		return "Detail"
	case screenNews:
		return "News"
	case screenWeather:
		return "Weather"
	case screenProfile:
		return "Profile"
	case screenAdmin:
		return "Admin"
	}
	return "?"
}

func (a *App) cycleScreen(delta int) tea.Cmd {
	screens := a.visibleScreens()
	cur := 0
	active := a.screen
	if active == screenDetail {
		active = screenPicker
	}
	for i, s := range screens {
		if s == active {
			cur = i
			break
		}
	}
	next := screens[(cur+delta+len(screens))%len(screens)]
	return a.switchTo(next)
}

func (a *App) switchTo(s screen) tea.Cmd {
	if a.screen == s {
		return nil
	}
	a.screen = s
	switch s {
	case screenNews:
		return a.newsScreen.enter()
	case screenWeather:
		return a.weatherView.enter(a.deps.Weather)
	case screenAdmin:
		return a.admin.enter(a.deps.Client)
	}
	return nil
}

// typing reports whether the active screen has a focused text input, which
// suspends single-letter shortcuts.
func (a App) typing() bool {
	switch a.screen {
	case screenPicker:
		return a.picker.typing()
	case screenProfile:
		return a.profile.typing()
	}
	return false
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if !a.typing() {
				return a, tea.Quit
			}
		case "tab":
			return a, a.cycleScreen(1)
		case "shift+tab":
			return a, a.cycleScreen(-1)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.detail = a.detail.resize(a.bodyWidth(), a.bodyHeight())
		a.suggestions = a.suggestions.resize(a.bodyWidth(), a.bodyHeight())
		a.newsScreen = a.newsScreen.resize(a.bodyWidth(), a.bodyHeight())
		a.admin = a.admin.resize(a.bodyWidth(), a.bodyHeight())
		return a, nil

	case configResolvedMsg:
		a.deps.Log.Info("gateway resolved", "url", msg.gatewayURL)
		return a, nil

	case tickMsg:
		var cmd tea.Cmd
		a.suggestions, cmd = a.suggestions.onTick()
		return a, tea.Batch(cmd, tickCmd())

	case stocksLoadedMsg:
		if msg.err != nil {
			a.stocks.Reject(msg.token, msg.err.Error())
			a.deps.Log.Warn("loading stocks", "error", msg.err)
		} else {
			a.stocks.Resolve(msg.token, msg.symbols)
			a.picker = a.picker.setUniverse(msg.symbols)
		}
		return a, nil

	case signedInMsg:
		if msg.err != nil {
			a.deps.Log.Warn("sign in failed", "error", msg.err)
		} else {
			a.deps.Client.SetToken(a.deps.User.Token())
			a.deps.Log.Info("signed in", "username", msg.username)
		}
		var cmd tea.Cmd
		a.profile, cmd = a.profile.update(msg, a.deps)
		return a, cmd

	// Background fetches land on their screen regardless of which one is
	// showing, so switching away never drops a response.
	case scanUpdateMsg:
		var cmd tea.Cmd
		a.suggestions, cmd = a.suggestions.update(msg)
		return a, cmd
	case newsLoadedMsg:
		var cmd tea.Cmd
		a.newsScreen, cmd = a.newsScreen.update(msg, a.deps.Log)
		return a, cmd
	case weatherLoadedMsg:
		var cmd tea.Cmd
		a.weatherView, cmd = a.weatherView.update(msg)
		return a, cmd
	case usersLoadedMsg, setAdminDoneMsg:
		var cmd tea.Cmd
		a.admin, cmd = a.admin.update(msg, a.deps.Client)
		return a, cmd
	case meLoadedMsg, meUpdatedMsg:
		var cmd tea.Cmd
		a.profile, cmd = a.profile.update(msg, a.deps)
		return a, cmd
	}

	// Screen-local messages and keys.
	var cmd tea.Cmd
	switch a.screen {
	case screenSuggestions:
		a.suggestions, cmd = a.suggestions.update(msg)
	case screenPicker:
		var selected string
		a.picker, selected, cmd = a.picker.update(msg)
		if selected != "" {
			a.screen = screenDetail
			a.detail, cmd = a.detail.open(selected, a.deps)
		}
	case screenDetail:
		var back bool
		a.detail, back, cmd = a.detail.update(msg, a.deps)
		if back {
			a.screen = screenPicker
		}
	case screenNews:
		a.newsScreen, cmd = a.newsScreen.update(msg, a.deps.Log)
	case screenWeather:
		a.weatherView, cmd = a.weatherView.update(msg)
	case screenProfile:
		a.profile, cmd = a.profile.update(msg, a.deps)
	case screenAdmin:
		a.admin, cmd = a.admin.update(msg, a.deps.Client)
	default:
		// Other screens have no local state to update.
	}
	return a, cmd
}

func (a App) bodyWidth() int { return a.width }

func (a App) bodyHeight() int {
	h := a.height - 2 // tab bar + footer
	if h < 1 {
		h = 1
	}
	return h
}

func (a App) View() string {
	if !a.ready {
		return "loading..."
	}

	var body string
	switch a.screen {
	case screenSuggestions:
		body = a.suggestions.view(a.bodyWidth(), a.bodyHeight())
	case screenPicker:
		body = a.picker.view(a.bodyWidth(), a.bodyHeight(), a.stocks)
	case screenDetail:
		body = a.detail.view()
	case screenNews:
		body = a.newsScreen.view()
	case screenWeather:
		body = a.weatherView.view(a.bodyWidth(), a.bodyHeight())
	case screenProfile:
		body = a.profile.view(a.bodyWidth(), a.bodyHeight())
	case screenAdmin:
		body = a.admin.view()
	}

	lines := strings.Count(body, "\n") + 1
	if pad := a.bodyHeight() - lines; pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return a.tabBar() + "\n" + body + "\n" + a.footer()
}

func (a App) tabBar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" stockdash "))
	active := a.screen
	if active == screenDetail {
		active = screenPicker
	}
	for _, s := range a.visibleScreens() {
		b.WriteString(" ")
		if s == active {
			b.WriteString(tabActive.Render(screenLabel(s)))
		} else {
			b.WriteString(tabStyle.Render(screenLabel(s)))
		}
	}
	return b.String()
}

func (a App) footer() string {
	help := "tab: switch  q: quit"
	switch a.screen {
	case screenSuggestions:
		help = "s: sort  r: refresh  tab: switch  q: quit"
	case screenPicker:
		help = "type to search  enter: open  tab: switch"
	case screenDetail:
		help = "d/w/m: window  1-9: markers  esc: back"
	case screenAdmin:
		help = "up/down: select  a: toggle admin  n: next page"
	}
	if p, ok := a.deps.User.Profile(); ok {
		who := p.Username
		if p.IsAdmin {
			who = adminStyle.Render(who + " (admin)")
		}
		return dimStyle.Render(help) + "  " + who
	}
	return dimStyle.Render(help) + "  " + dimStyle.Render("signed out")
}
