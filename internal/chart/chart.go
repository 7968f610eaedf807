package chart

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stockdash/internal/api"
)

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// candle is one rendered column after downsampling.
type candle struct {
	time  time.Time
	open  float64
	high  float64
	low   float64
	close float64
}

// Render draws ticks as one candlestick column per terminal cell, with
// overlay series drawn on top. Ticks with malformed timestamps are skipped.
// When there are more ticks than columns, consecutive ticks are merged into
// wider candles. Returns an empty string when nothing is drawable.
func Render(ticks []api.Tick, overlays []Overlay, width, height int) string {
	if width < 1 || height < 2 {
		return ""
	}
	candles := buildCandles(ticks, width)
	if len(candles) == 0 {
		return ""
	}

	lo, hi := priceRange(candles, overlays)
	if hi <= lo {
		hi = lo + 1
	}

	type cell struct {
		ch    rune
		style *lipgloss.Style
	}
	grid := make([][]cell, height)
	for r := range grid {
		grid[r] = make([]cell, len(candles))
		for c := range grid[r] {
			grid[r][c] = cell{ch: ' '}
		}
	}

	row := func(v float64) int {
		frac := (v - lo) / (hi - lo)
		r := (height - 1) - int(math.Round(frac*float64(height-1)))
		if r < 0 {
			r = 0
		}
		if r > height-1 {
			r = height - 1
		}
		return r
	}

	for c, k := range candles {
		style := &upStyle
		if k.close < k.open {
			style = &downStyle
		}
		wickTop, wickBot := row(k.high), row(k.low)
		for r := wickTop; r <= wickBot; r++ {
			grid[r][c] = cell{ch: '│', style: style}
		}
		bodyTop, bodyBot := row(math.Max(k.open, k.close)), row(math.Min(k.open, k.close))
		for r := bodyTop; r <= bodyBot; r++ {
			grid[r][c] = cell{ch: '█', style: style}
		}
	}

	for i := range overlays {
		ov := &overlays[i]
		style := lipgloss.NewStyle().Foreground(ov.Color)
		for _, p := range ov.Points {
			c := columnFor(candles, p.Time)
			if c < 0 {
				continue
			}
			grid[row(p.Value)][c] = cell{ch: '•', style: &style}
		}
	}

	var b strings.Builder
	for r := range grid {
		for _, cl := range grid[r] {
			if cl.style != nil {
				b.WriteString(cl.style.Render(string(cl.ch)))
			} else {
				b.WriteRune(cl.ch)
			}
		}
		if r < len(grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// buildCandles parses and downsamples ticks to at most width candles.
func buildCandles(ticks []api.Tick, width int) []candle {
	parsed := make([]candle, 0, len(ticks))
	for _, t := range ticks {
		ts := t.Time()
		if ts.IsZero() {
			continue
		}
		parsed = append(parsed, candle{time: ts, open: t.Open, high: t.High, low: t.Low, close: t.Close})
	}
	if len(parsed) <= width {
		return parsed
	}

	per := (len(parsed) + width - 1) / width
	out := make([]candle, 0, width)
	for i := 0; i < len(parsed); i += per {
		end := i + per
		if end > len(parsed) {
			end = len(parsed)
		}
		merged := parsed[i]
		for _, k := range parsed[i+1 : end] {
			if k.high > merged.high {
				merged.high = k.high
			}
			if k.low < merged.low {
				merged.low = k.low
			}
			merged.close = k.close
		}
		out = append(out, merged)
	}
	return out
}

// priceRange spans candle lows/highs plus any overlay values inside the
// candle time range, so every drawn point fits on the grid.
func priceRange(candles []candle, overlays []Overlay) (lo, hi float64) {
	lo, hi = math.MaxFloat64, -math.MaxFloat64
	for _, k := range candles {
		if k.low < lo {
			lo = k.low
		}
		if k.high > hi {
			hi = k.high
		}
	}
	for _, ov := range overlays {
		for _, p := range ov.Points {
			if columnFor(candles, p.Time) < 0 {
				continue
			}
			if p.Value < lo {
				lo = p.Value
			}
			if p.Value > hi {
				hi = p.Value
			}
		}
	}
	return lo, hi
}

// columnFor maps a timestamp to the candle covering it: the last candle at
// or before ts. Returns -1 when ts precedes all candles or follows the last
// candle by more than one candle interval.
func columnFor(candles []candle, ts time.Time) int {
	n := len(candles)
	i := sort.Search(n, func(i int) bool { return candles[i].time.After(ts) })
	if i == 0 {
		return -1
	}
	if i == n && n >= 2 {
		interval := candles[n-1].time.Sub(candles[n-2].time)
		if ts.Sub(candles[n-1].time) > interval {
			return -1
		}
	}
	return i - 1
}

// Legend renders one colored swatch per overlay for the footer line.
func Legend(overlays []Overlay) string {
	if len(overlays) == 0 {
		return ""
	}
	parts := make([]string, 0, len(overlays))
	for i := range overlays {
		ov := &overlays[i]
		style := lipgloss.NewStyle().Foreground(ov.Color)
		parts = append(parts, style.Render("•")+" "+ov.Name)
	}
	return strings.Join(parts, "  ")
}
