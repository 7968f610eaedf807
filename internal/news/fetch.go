// Package news fetches general market headlines from a fixed set of
// financial RSS feeds for the news screen.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Article is a single headline from any feed.
type Article struct {
	Time     time.Time
	Source   string
	Headline string
	Summary  string
	Link     string
}

// Feed is one RSS source.
type Feed struct {
	Name string
	URL  string
}

// Feeds lists the sources shown on the news screen, in display order.
var Feeds = []Feed{
	{Name: "Seeking Alpha", URL: "https://seekingalpha.com/market_currents.xml"},
	{Name: "CNBC", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10000664"},
	{Name: "BBC Business", URL: "https://feeds.bbci.co.uk/news/business/rss.xml"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

// pubDate layouts seen across the feeds, tried in order.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 02 Jan 2006 15:04 MST",
	time.RFC3339,
}

func parsePubDate(s string) (time.Time, bool) {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FetchFeed fetches and parses one feed. Items with unparseable pubDates
// are skipped.
func FetchFeed(ctx context.Context, feed Feed) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", feed.Name, resp.StatusCode)
	}

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, fmt.Errorf("%s: decoding feed: %w", feed.Name, err)
	}

	articles := make([]Article, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		t, ok := parsePubDate(item.PubDate)
		if !ok {
			continue
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   feed.Name,
			Headline: StripHTML(item.Title),
			Summary:  StripHTML(item.Desc),
			Link:     strings.TrimSpace(item.Link),
		})
	}
	return articles, nil
}

// FetchAll fetches every feed, merging results newest-first. A feed that
// fails is logged and skipped; the screen shows whatever loaded.
func FetchAll(ctx context.Context, log *slog.Logger) []Article {
	var all []Article
	for _, feed := range Feeds {
		articles, err := FetchFeed(ctx, feed)
		if err != nil {
			log.Warn("feed fetch failed", "feed", feed.Name, "error", err)
			continue
		}
		all = append(all, articles...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Time.After(all[j].Time)
	})
	return all
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
