package ui

import (
	"time"

	"stockdash/internal/aggregator"
	"stockdash/internal/api"
	"stockdash/internal/news"
	"stockdash/internal/weather"
)

// Messages.
type tickMsg time.Time

type configResolvedMsg struct{ gatewayURL string }

type stocksLoadedMsg struct {
	token   uint64
	symbols []string
	err     error
}

type ticksLoadedMsg struct {
	token   uint64
	symbol  string
	window  api.TickWindow
	ticks   []api.Tick
	offline bool // served from the local tick export
	err     error
}

type fundamentalsLoadedMsg struct {
	token  uint64
	symbol string
	data   api.Fundamentals
	err    error
}

type analysisLoadedMsg struct {
	token  uint64
	symbol string
	data   api.AnalysisData
	err    error
}

type markerListMsg struct {
	symbol  string
	markers []string
	err     error
}

type markerSeriesMsg struct {
	symbol string
	name   string
	data   api.MarkerData
	err    error
}

type scanUpdateMsg struct {
	progress aggregator.Progress
	done     bool
	err      error
}

type newsLoadedMsg struct {
	token    uint64
	articles []news.Article
}

type weatherLoadedMsg struct {
	token  uint64
	report weather.Report
	err    error
}

type usersLoadedMsg struct {
	token     uint64
	page      api.UserList
	nextToken string // the token this page was requested with
	err       error
}

type setAdminDoneMsg struct {
	username string
	isAdmin  bool
	err      error
}

type signedInMsg struct {
	username string
	err      error
}

type meLoadedMsg struct {
	token uint64
	user  api.User
	err   error
}

type meUpdatedMsg struct {
	user api.User
	err  error
}
