package news

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Markets rally on rate &amp;amp; earnings hopes</title>
      <link>https://example.com/a</link>
      <pubDate>Fri, 29 Aug 2025 14:00:00 +0000</pubDate>
      <description>&lt;p&gt;Stocks &lt;b&gt;climbed&lt;/b&gt; broadly.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Older story</title>
      <link>https://example.com/b</link>
      <pubDate>Thu, 28 Aug 2025 09:30:00 GMT</pubDate>
      <description>Yesterday.</description>
    </item>
    <item>
      <title>No usable date</title>
      <pubDate>someday soon</pubDate>
    </item>
  </channel>
</rss>`

func TestFetchFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, feedXML)
	}))
	defer srv.Close()

	articles, err := FetchFeed(context.Background(), Feed{Name: "Test", URL: srv.URL})
	if err != nil {
		t.Fatalf("FetchFeed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (undated one skipped), got %d", len(articles))
	}

	first := articles[0]
	if first.Source != "Test" || first.Link != "https://example.com/a" {
		t.Errorf("unexpected article %+v", first)
	}
	if first.Headline != "Markets rally on rate & earnings hopes" {
		t.Errorf("entities not unescaped: %q", first.Headline)
	}
	if first.Summary != "Stocks climbed broadly." {
		t.Errorf("HTML not stripped: %q", first.Summary)
	}
}

func TestFetchFeedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := FetchFeed(context.Background(), Feed{Name: "Down", URL: srv.URL}); err == nil {
		t.Fatal("expected error for non-200 feed")
	}
}

func TestFetchAllSkipsFailingFeeds(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, feedXML)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	orig := Feeds
	Feeds = []Feed{{Name: "Good", URL: good.URL}, {Name: "Bad", URL: bad.URL}}
	defer func() { Feeds = orig }()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	articles := FetchAll(context.Background(), log)
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles from the healthy feed, got %d", len(articles))
	}
	if !articles[0].Time.After(articles[1].Time) {
		t.Error("articles not sorted newest-first")
	}
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Hello &amp; <b>world</b></p>\n  extra")
	if got != "Hello & world extra" {
		t.Fatalf("unexpected output %q", got)
	}
}
