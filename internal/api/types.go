// Package api provides a typed client for the stock-analysis gateway REST
// surface: stock universe, tick windows, fundamentals, analysis suggestions,
// technical markers, and user administration.
package api

import (
	"encoding/json"
	"time"
)

// TickWindow selects the backend aggregation window for tick requests.
type TickWindow string

const (
	WindowDay   TickWindow = "day"
	WindowWeek  TickWindow = "week"
	WindowMonth TickWindow = "month"
)

// Windows lists all valid tick windows in display order.
var Windows = []TickWindow{WindowDay, WindowWeek, WindowMonth}

// Tick is one OHLCV observation for a symbol at a timestamp. Ticks are
// immutable once fetched and replaced wholesale on every fetch.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp string  `json:"timestamp"` // RFC3339, as sent by the gateway
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Interval  int     `json:"interval"`
	TTL       int64   `json:"ttl"`
}

// Time parses the tick timestamp. Returns the zero time if it is malformed.
func (t Tick) Time() time.Time {
	ts, err := time.Parse(time.RFC3339, t.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// TickResponse is the payload of GET /ticks/{symbol}.
type TickResponse struct {
	Symbol string `json:"symbol"`
	Ticks  []Tick `json:"ticks"`
}

// Suggestion is the per-ticker buy/sell/hold call.
type Suggestion string

const (
	SuggestionBuy  Suggestion = "buy"
	SuggestionSell Suggestion = "sell"
	SuggestionHold Suggestion = "hold"
)

// Article is one sentiment-scored news article inside an analysis breakdown.
type Article struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	PubDate        string  `json:"pubdate"`
	SentimentLabel string  `json:"sentiment_label"`
	SentimentScore float64 `json:"sentiment_score"`
}

// TechnicalAnalysis is the TA component of an analysis breakdown.
type TechnicalAnalysis struct {
	Score       float64 `json:"score"`
	Marker      string  `json:"marker"`
	Value       float64 `json:"value"`
	Explanation string  `json:"explanation"`
}

// Sentiment is the news-sentiment component of an analysis breakdown.
type Sentiment struct {
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
	Articles    []Article `json:"articles"`
}

// FundamentalsScore is the fundamentals component of an analysis breakdown.
type FundamentalsScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Breakdown groups the three scored components of a suggestion.
type Breakdown struct {
	TA           TechnicalAnalysis `json:"ta"`
	Sentiment    Sentiment         `json:"sentiment"`
	Fundamentals FundamentalsScore `json:"fundamentals"`
}

// Weights holds the blend weights applied to the breakdown components.
type Weights struct {
	TA           float64 `json:"ta"`
	Sentiment    float64 `json:"sentiment"`
	Fundamentals float64 `json:"fundamentals"`
}

// AnalysisData is an atomic per-ticker suggestion snapshot. It is never
// merged field-by-field; each fetch replaces the previous snapshot.
type AnalysisData struct {
	Ticker          string     `json:"ticker"`
	FinalSuggestion Suggestion `json:"finalSuggestion"`
	TotalScore      float64    `json:"totalScore"`
	Breakdown       Breakdown  `json:"breakdown"`
	Weights         Weights    `json:"weights"`
}

// Fundamentals is an open-ended map of backend-defined financial metrics.
// No schema is enforced client-side.
type Fundamentals map[string]json.RawMessage

// MarkerPoint is one observation in a technical-indicator overlay series.
type MarkerPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// MarkerData is a named technical-indicator series for one symbol, rendered
// as a chart overlay. It is ephemeral: discarded when the active marker set
// or the selected stock changes.
type MarkerData struct {
	Symbol string        `json:"symbol"`
	Marker string        `json:"marker"`
	Series []MarkerPoint `json:"series"`
}

// User is one row of the admin user list.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// UserList is the payload of GET /user/list, paged by NextToken.
type UserList struct {
	Users     []User `json:"users"`
	NextToken string `json:"nextToken"`
}

type stocksResponse struct {
	Stocks []string `json:"stocks"`
}

type fundamentalsResponse struct {
	Fundamentals Fundamentals `json:"fundamentals"`
}

type markersResponse struct {
	Markers []string `json:"markers"`
}
