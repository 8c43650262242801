// Package trending refreshes and serves the shared set of trending topics.
package trending

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benvon/postcraft/internal/logger"
	"go.uber.org/zap"
)

const (
	// MaxHeadlinesPerFeed caps how many headlines one feed contributes
	MaxHeadlinesPerFeed = 20
	minHeadlineLength   = 10
	maxFeedBytes        = 5 << 20
)

// DefaultFeeds are the Google News Business, Technology and Careers topic feeds
var DefaultFeeds = []string{
	"https://news.google.com/rss/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRFZxYUdjU0FtVnVHZ0pWVXlnQVAB?hl=en-US&gl=US&ceid=US:en",
	"https://news.google.com/rss/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGRqTVhZU0FtVnVHZ0pWVXlnQVAB?hl=en-US&gl=US&ceid=US:en",
	"https://news.google.com/rss/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRFZ4ZERBU0FtVnVHZ0pWVXlnQVAB?hl=en-US&gl=US&ceid=US:en",
}

type rssDocument struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

// FeedFetcher reads headlines from RSS feeds
type FeedFetcher struct {
	client *http.Client
	feeds  []string
	logger *zap.Logger
}

// NewFeedFetcher creates a fetcher over feeds, or DefaultFeeds when feeds is empty
func NewFeedFetcher(client *http.Client, feeds []string, logger *zap.Logger) *FeedFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedFetcher{client: client, feeds: feeds, logger: logger}
}

// Headlines collects headlines from every configured feed. A feed that fails
// is logged and skipped.
func (f *FeedFetcher) Headlines(ctx context.Context) []string {
	var all []string
	for _, url := range f.feeds {
		headlines, err := f.fetch(ctx, url)
		if err != nil {
			f.logger.Warn("rss_feed_fetch_failed",
				zap.String("feed", logger.SanitizeString(url, 200)),
				zap.String("error", logger.SanitizeError(err)),
			)
			continue
		}
		all = append(all, headlines...)
	}
	return all
}

func (f *FeedFetcher) fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return ParseHeadlines(io.LimitReader(resp.Body, maxFeedBytes))
}

// ParseHeadlines reads item titles from an RSS document, keeping those longer
// than 10 characters that are not Google News boilerplate.
func ParseHeadlines(r io.Reader) ([]string, error) {
	var doc rssDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	headlines := make([]string, 0, MaxHeadlinesPerFeed)
	for _, item := range doc.Channel.Items {
		title := strings.TrimSpace(item.Title)
		if utf8.RuneCountInString(title) <= minHeadlineLength || strings.Contains(title, "Google News") {
			continue
		}
		headlines = append(headlines, title)
		if len(headlines) == MaxHeadlinesPerFeed {
			break
		}
	}
	return headlines, nil
}
