package ui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"

	"stockdash/internal/aggregator"
	"stockdash/internal/api"
	"stockdash/internal/auth"
	"stockdash/internal/chart"
	"stockdash/internal/state"
	"stockdash/internal/store"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerFilterAndSelect(t *testing.T) {
	p := newPickerModel()
	p = p.setUniverse([]string{"AAPL", "MSFT", "GOOGL"})

	p, selected, _ := p.update(keyRunes("ms"))
	if selected != "" {
		t.Fatalf("typing should not select, got %q", selected)
	}
	if len(p.matches) == 0 || p.matches[0] != "MSFT" {
		t.Fatalf("expected MSFT first, got %v", p.matches)
	}

	p, selected, _ = p.update(tea.KeyMsg{Type: tea.KeyEnter})
	if selected != "MSFT" {
		t.Fatalf("enter should select MSFT, got %q", selected)
	}
}

func TestPickerEmptyQueryShowsUniverse(t *testing.T) {
	p := newPickerModel()
	p = p.setUniverse([]string{"AAPL", "MSFT"})
	if len(p.matches) != 2 {
		t.Fatalf("expected full universe, got %v", p.matches)
	}
}

func TestDetailMarkerToggle(t *testing.T) {
	d := newDetailModel()
	d = d.resize(80, 24)
	d.symbol = "AAPL"
	d.markers = []string{"sma_50", "rsi"}

	d, _ = d.toggleMarker(0, nil)
	if len(d.active) != 1 || d.active[0] != "sma_50" {
		t.Fatalf("expected sma_50 active, got %v", d.active)
	}

	d, _ = d.toggleMarker(0, nil)
	if len(d.active) != 0 {
		t.Fatalf("second toggle should deactivate, got %v", d.active)
	}

	if next, _ := d.toggleMarker(9, nil); len(next.active) != 0 {
		t.Fatal("out of range index must be a no-op")
	}
}

func TestDetailRejectedSeriesPrunedFromActive(t *testing.T) {
	d := newDetailModel()
	d = d.resize(80, 24)
	d.symbol = "AAPL"
	d.markers = []string{"rsi"}
	d, _ = d.toggleMarker(0, nil)

	// Two valid points only: rejected by validation.
	d = d.applyMarkerSeries(markerSeriesMsg{
		symbol: "AAPL",
		name:   "rsi",
		data: api.MarkerData{Marker: "rsi", Series: []api.MarkerPoint{
			{Time: "2025-08-28", Value: 50},
			{Time: "2025-08-29", Value: 55},
		}},
	}, discardLog())

	if len(d.active) != 0 {
		t.Fatalf("rejected series must be pruned from the active set, got %v", d.active)
	}
	if _, ok := d.overlays["rsi"]; ok {
		t.Fatal("rejected series must not produce an overlay")
	}
}

func TestDetailValidSeriesBecomesOverlay(t *testing.T) {
	d := newDetailModel()
	d = d.resize(80, 24)
	d.symbol = "AAPL"
	d.markers = []string{"sma_50"}
	d, _ = d.toggleMarker(0, nil)

	series := make([]api.MarkerPoint, 0, chart.MinOverlayPoints)
	days := []string{"2025-08-25", "2025-08-26", "2025-08-27", "2025-08-28", "2025-08-29"}
	for i, day := range days {
		series = append(series, api.MarkerPoint{Time: day, Value: float64(100 + i)})
	}
	d = d.applyMarkerSeries(markerSeriesMsg{
		symbol: "AAPL",
		name:   "sma_50",
		data:   api.MarkerData{Marker: "sma_50", Series: series},
	}, discardLog())

	if len(d.active) != 1 {
		t.Fatalf("valid series should stay active, got %v", d.active)
	}
	ov, ok := d.overlays["sma_50"]
	if !ok || len(ov.Points) != 5 {
		t.Fatalf("expected 5-point overlay, got %+v ok=%v", ov, ok)
	}
}

func TestDetailStaleSymbolSeriesIgnored(t *testing.T) {
	d := newDetailModel()
	d = d.resize(80, 24)
	d.symbol = "MSFT"
	d.markers = []string{"sma_50"}

	// Series for a previously selected stock arrives late: no active entry,
	// so nothing changes.
	d = d.applyMarkerSeries(markerSeriesMsg{symbol: "MSFT", name: "sma_50"}, discardLog())
	if len(d.overlays) != 0 {
		t.Fatalf("inactive marker series must be dropped, got %v", d.overlays)
	}
}

func TestAdminPagingAccumulates(t *testing.T) {
	m := newAdminModel()
	m = m.resize(80, 24)

	token := m.res.Begin()
	m, _ = m.update(usersLoadedMsg{
		token: token,
		page: api.UserList{
			Users:     []api.User{{Name: "alice"}, {Name: "bob"}},
			NextToken: "page2",
		},
	}, nil)
	if got := m.users(); len(got) != 2 || m.nextToken != "page2" {
		t.Fatalf("first page: users=%v next=%q", got, m.nextToken)
	}

	token = m.res.Begin()
	m, _ = m.update(usersLoadedMsg{
		token:     token,
		nextToken: "page2",
		page:      api.UserList{Users: []api.User{{Name: "carol"}}},
	}, nil)
	got := m.users()
	if len(got) != 3 || got[2].Name != "carol" {
		t.Fatalf("second page should accumulate, got %v", got)
	}
	if m.nextToken != "" {
		t.Fatalf("final page should clear the token, got %q", m.nextToken)
	}
}

func TestSignInCmdStoresSession(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "session")
	user := &state.User{}
	deps := Deps{User: user, SessionPath: sessionPath, Log: discardLog()}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"cognito:username": "alice",
		"cognito:groups":   []string{"admin"},
	})
	raw, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	msg := signInCmd(deps, raw)()
	signed, ok := msg.(signedInMsg)
	if !ok || signed.err != nil {
		t.Fatalf("unexpected msg %#v", msg)
	}
	if !user.IsAdmin() {
		t.Fatal("admin group should grant admin")
	}
	saved, err := auth.LoadSession(sessionPath)
	if err != nil || saved != raw {
		t.Fatalf("session not saved: %q err=%v", saved, err)
	}
}

func TestSortKeyCycleReachesTickerDesc(t *testing.T) {
	s := suggestionsModel{sortKey: aggregator.SortByScoreDesc}
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		seen[sortLabel(s.sortKey)] = true
		s, _ = s.update(keyRunes("s"))
	}
	for _, want := range []string{"ticker", "ticker desc", "score asc", "score desc"} {
		if !seen[want] {
			t.Fatalf("sort cycle never reached %q, saw %v", want, seen)
		}
	}
}

func TestDetailServesExportedTicksWhenGatewayDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer down.Close()

	ticks := store.NewParquetStore(t.TempDir())
	stored := []api.Tick{
		{Symbol: "AAPL", Timestamp: "2025-08-28T10:00:00Z", Open: 10, High: 12, Low: 9, Close: 11},
		{Symbol: "AAPL", Timestamp: "2025-08-28T11:00:00Z", Open: 11, High: 13, Low: 10, Close: 12},
	}
	if err := ticks.WriteTicks(context.Background(), api.WindowDay, stored); err != nil {
		t.Fatalf("WriteTicks: %v", err)
	}

	deps := Deps{Client: api.NewClient(down.URL), Ticks: ticks, Log: discardLog()}
	d := newDetailModel()
	d = d.resize(80, 24)
	d.symbol = "AAPL"

	msg := d.loadTicksCmd(deps.Client, deps.Ticks)()
	loaded, ok := msg.(ticksLoadedMsg)
	if !ok || loaded.err != nil || !loaded.offline {
		t.Fatalf("expected offline ticks, got %#v", msg)
	}
	if len(loaded.ticks) != 2 {
		t.Fatalf("expected 2 stored ticks, got %d", len(loaded.ticks))
	}

	d, _, _ = d.update(loaded, deps)
	got, isLoaded, _, errMsg := d.ticks.Get()
	if !isLoaded || errMsg != "" || len(got) != 2 || !d.offline {
		t.Fatalf("stored ticks not applied: loaded=%v err=%q n=%d offline=%v",
			isLoaded, errMsg, len(got), d.offline)
	}
}

func TestDetailNoExportFallbackSurfacesError(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer down.Close()

	d := newDetailModel()
	d.symbol = "AAPL"
	msg := d.loadTicksCmd(api.NewClient(down.URL), store.NewParquetStore(t.TempDir()))()
	loaded, ok := msg.(ticksLoadedMsg)
	if !ok || loaded.err == nil || loaded.offline {
		t.Fatalf("expected gateway error with empty export, got %#v", msg)
	}
}

func TestDetailRefetchFailureShowsErrorWithStaleData(t *testing.T) {
	d := newDetailModel()
	d = d.resize(80, 24)
	d.symbol = "AAPL"
	deps := Deps{Log: discardLog()}

	token := d.ticks.Begin()
	d, _, _ = d.update(ticksLoadedMsg{token: token, symbol: "AAPL", window: api.WindowDay,
		ticks: []api.Tick{{Symbol: "AAPL", Timestamp: "2025-08-28T10:00:00Z", Open: 1, High: 2, Low: 1, Close: 2}},
	}, deps)

	token = d.ticks.Begin()
	d, _, _ = d.update(ticksLoadedMsg{token: token, symbol: "AAPL", window: api.WindowWeek,
		err: errors.New("bad gateway")}, deps)

	got, loaded, _, errMsg := d.ticks.Get()
	if !loaded || len(got) != 1 || errMsg == "" {
		t.Fatalf("stale ticks must survive a failed refetch: loaded=%v n=%d err=%q",
			loaded, len(got), errMsg)
	}
	if !strings.Contains(d.renderContent(), "refresh failed") {
		t.Fatal("stale chart must render an inline error")
	}

	token = d.analysis.Begin()
	d.analysis.Resolve(token, api.AnalysisData{Ticker: "AAPL", FinalSuggestion: api.SuggestionBuy})
	token = d.analysis.Begin()
	d.analysis.Reject(token, "bad gateway")
	if !strings.Contains(d.renderContent(), "analysis refresh failed") {
		t.Fatal("stale analysis must render an inline error")
	}
}

func TestProfileFetchesStoredProfile(t *testing.T) {
	me := api.User{ID: "u1", Name: "alice", Email: "alice@example.com"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/me" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(me)
	}))
	defer server.Close()

	user := &state.User{}
	user.SignIn(state.Profile{Username: "alice"}, "tok")
	deps := Deps{Client: api.NewClient(server.URL), User: user, Log: discardLog()}

	p := newProfileModel(user)
	msg := p.fetchMeCmd(deps)()
	p, _ = p.update(msg, deps)

	got, loaded, _, errMsg := p.me.Get()
	if !loaded || errMsg != "" || got.Name != "alice" || got.Email != "alice@example.com" {
		t.Fatalf("stored profile not loaded: %+v err=%q", got, errMsg)
	}
}

func TestProfileNameEditUpdatesGateway(t *testing.T) {
	var put api.User
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/me" || r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&put)
	}))
	defer server.Close()

	user := &state.User{}
	user.SignIn(state.Profile{Username: "alice"}, "tok")
	deps := Deps{Client: api.NewClient(server.URL), User: user, Log: discardLog()}

	p := newProfileModel(user)
	p.me.Resolve(p.me.Begin(), api.User{ID: "u1", Name: "alice"})

	p, _ = p.update(keyRunes("e"), deps)
	if !p.editing {
		t.Fatal("e should start the name edit")
	}
	p.nameInput.SetValue("alice b")
	p, cmd := p.update(tea.KeyMsg{Type: tea.KeyEnter}, deps)
	if cmd == nil {
		t.Fatal("enter should send the update")
	}

	msg := cmd()
	updated, ok := msg.(meUpdatedMsg)
	if !ok || updated.err != nil {
		t.Fatalf("unexpected msg %#v", msg)
	}
	if put.Name != "alice b" || put.ID != "u1" {
		t.Fatalf("gateway saw %+v", put)
	}

	p, _ = p.update(updated, deps)
	got, _, _, _ := p.me.Get()
	if got.Name != "alice b" {
		t.Fatalf("profile not updated locally: %+v", got)
	}
}

func TestSignInCmdBadToken(t *testing.T) {
	deps := Deps{User: &state.User{}, SessionPath: filepath.Join(t.TempDir(), "s"), Log: discardLog()}
	msg := signInCmd(deps, "garbage")()
	signed, ok := msg.(signedInMsg)
	if !ok || signed.err == nil {
		t.Fatalf("expected error msg, got %#v", msg)
	}
	if _, signedIn := deps.User.Profile(); signedIn {
		t.Fatal("bad token must not sign in")
	}
}
