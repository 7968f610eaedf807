// Package chart renders tick history as a terminal candlestick chart with
// optional technical-indicator overlays.
package chart

import (
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stockdash/internal/api"
)

// Overlay is a validated indicator series ready to draw over the candles.
type Overlay struct {
	Name   string
	Color  lipgloss.Color
	Points []OverlayPoint
}

// OverlayPoint is one validated overlay observation.
type OverlayPoint struct {
	Time  time.Time
	Value float64
}

// MinOverlayPoints is the smallest series worth drawing. Shorter series are
// dropped rather than rendered as a misleading stub.
const MinOverlayPoints = 5

// palette cycles across concurrently shown overlays. Ten entries, reused
// from index 10 on.
var palette = []lipgloss.Color{
	"33",  // blue
	"208", // orange
	"170", // violet
	"114", // green
	"220", // yellow
	"51",  // cyan
	"198", // pink
	"130", // brown
	"250", // gray
	"124", // dark red
}

// PaletteColor returns the overlay color for position i in the active set.
func PaletteColor(i int) lipgloss.Color {
	return palette[i%len(palette)]
}

// overlay time formats the gateway emits, tried in order.
var overlayTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseOverlayTime(s string) (time.Time, bool) {
	for _, layout := range overlayTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// BuildOverlay validates a marker series for rendering. Points with
// unparseable timestamps or non-finite values are filtered out; when fewer
// than MinOverlayPoints survive, the series is rejected and ok is false.
// Valid points come back sorted by time regardless of input order.
func BuildOverlay(md api.MarkerData, position int) (Overlay, bool) {
	pts := make([]OverlayPoint, 0, len(md.Series))
	for _, p := range md.Series {
		ts, ok := parseOverlayTime(p.Time)
		if !ok {
			continue
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		pts = append(pts, OverlayPoint{Time: ts, Value: p.Value})
	}
	if len(pts) < MinOverlayPoints {
		return Overlay{}, false
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })
	return Overlay{Name: md.Marker, Color: PaletteColor(position), Points: pts}, true
}

// PruneActive removes names not present in valid from the active marker
// set, preserving order. The screen calls this after a batch of marker
// fetches so rejected series do not linger as selected-but-invisible.
func PruneActive(active []string, valid map[string]bool) []string {
	kept := active[:0]
	for _, name := range active {
		if valid[name] {
			kept = append(kept, name)
		}
	}
	return kept
}
